package noteproto

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// DocumentType is the schema name of a note's rich-text payload.
const DocumentType protoreflect.FullName = "ciofecaforensics.Document"

// Document wraps a decoded payload with typed accessors, so callers
// never touch protoreflect field lookups directly.
type Document struct {
	msg protoreflect.Message
}

// AsDocument views a decoded payload message as a Document.
func AsDocument(m proto.Message) Document {
	return Document{msg: m.ProtoReflect()}
}

// Note returns the embedded note body. The zero Note is returned when
// the payload carries none.
func (d Document) Note() Note {
	if d.msg == nil {
		return Note{}
	}
	f := d.msg.Descriptor().Fields().ByName("note")
	if f == nil || !d.msg.Has(f) {
		return Note{}
	}
	return Note{msg: d.msg.Get(f).Message()}
}

// Note is the text body of a document plus its attribute runs.
type Note struct {
	msg protoreflect.Message
}

// Text returns the note's plain text.
func (n Note) Text() string {
	if n.msg == nil {
		return ""
	}
	f := n.msg.Descriptor().Fields().ByName("note_text")
	if f == nil {
		return ""
	}
	return n.msg.Get(f).String()
}

// AttributeRuns returns the formatting runs covering the text.
func (n Note) AttributeRuns() []AttributeRun {
	if n.msg == nil {
		return nil
	}
	f := n.msg.Descriptor().Fields().ByName("attribute_run")
	if f == nil {
		return nil
	}
	list := n.msg.Get(f).List()
	runs := make([]AttributeRun, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		runs = append(runs, AttributeRun{msg: list.Get(i).Message()})
	}
	return runs
}

// AttributeRun is one contiguous stretch of identically formatted text.
type AttributeRun struct {
	msg protoreflect.Message
}

// Length returns the run's character count.
func (r AttributeRun) Length() int {
	if r.msg == nil {
		return 0
	}
	f := r.msg.Descriptor().Fields().ByName("length")
	if f == nil {
		return 0
	}
	return int(r.msg.Get(f).Int())
}

// Link returns the run's hyperlink target, if any.
func (r AttributeRun) Link() string {
	if r.msg == nil {
		return ""
	}
	f := r.msg.Descriptor().Fields().ByName("link")
	if f == nil {
		return ""
	}
	return r.msg.Get(f).String()
}

// Attachment returns the attachment reference carried by the run.
func (r AttributeRun) Attachment() (identifier, typeUTI string, ok bool) {
	if r.msg == nil {
		return "", "", false
	}
	f := r.msg.Descriptor().Fields().ByName("attachment_info")
	if f == nil || !r.msg.Has(f) {
		return "", "", false
	}
	info := r.msg.Get(f).Message()
	fields := info.Descriptor().Fields()
	if idField := fields.ByName("attachment_identifier"); idField != nil {
		identifier = info.Get(idField).String()
	}
	if utiField := fields.ByName("type_uti"); utiField != nil {
		typeUTI = info.Get(utiField).String()
	}
	return identifier, typeUTI, true
}
