package ports

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"applenotes/internal/domain"
)

// Resolver is the back-reference a converter uses to turn entity
// references inside a note payload into output files. Both methods
// tolerate being called for ids that are already resolved, and both may
// return a nil file for skipped or failed entities.
type Resolver interface {
	ResolveNote(id int64) (*domain.File, error)
	ResolveAttachment(id int64, typeUTI string) (*domain.File, error)

	// Lookups from the external UUIDs embedded in payloads to the
	// primary keys the resolvers work on.
	LookupNote(identifier string) (int64, error)
	LookupAttachment(identifier string) (id int64, typeUTI string, err error)

	// HandwritingSummary returns the recognized text of a drawing
	// attachment, or "" when handwriting import is disabled or nothing
	// was recognized.
	HandwritingSummary(id int64) string
}

// Converter turns one decoded note payload into markdown.
type Converter interface {
	Format() (string, error)
}

// ConverterFactory declares which message schema a payload decodes
// against and builds the converter for the decoded message.
type ConverterFactory interface {
	MessageType() protoreflect.FullName
	New(res Resolver, msg proto.Message) Converter
}
