package noteproto

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Registry holds the note payload schema, resolved once at startup.
type Registry struct {
	files *protoregistry.Files
}

// NewRegistry builds the schema registry from the embedded descriptor.
func NewRegistry() (*Registry, error) {
	fd, err := protodesc.NewFile(buildFileDescriptor(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload schema: %w", err)
	}

	files := new(protoregistry.Files)
	if err := files.RegisterFile(fd); err != nil {
		return nil, fmt.Errorf("failed to register payload schema: %w", err)
	}
	return &Registry{files: files}, nil
}

// Decode hex-decodes and gunzips a note payload, then parses it against
// the named message schema. Corrupt bytes or a schema mismatch surface
// as an error for the caller to scope to one note.
func (r *Registry) Decode(hexData string, messageType protoreflect.FullName) (proto.Message, error) {
	raw, err := hex.DecodeString(hexData)
	if err != nil {
		return nil, fmt.Errorf("invalid payload hex: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid payload compression: %w", err)
	}
	data, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}

	desc, err := r.files.FindDescriptorByName(messageType)
	if err != nil {
		return nil, fmt.Errorf("unknown payload schema %s: %w", messageType, err)
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("payload schema %s is not a message", messageType)
	}

	msg := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to parse payload as %s: %w", messageType, err)
	}
	return msg, nil
}

// MessageDescriptor exposes a schema by name, for building payloads in
// tests and for converter wiring.
func (r *Registry) MessageDescriptor(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	desc, err := r.files.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%s is not a message", name)
	}
	return md, nil
}
