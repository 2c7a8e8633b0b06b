package noteproto

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// The note payload schema, reconstructed from the community forensics of
// the NoteStore format. Only the subset the exporter reads is declared;
// unknown fields pass through the decoder untouched.
func buildFileDescriptor() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("notestore.proto"),
		Package: proto.String("ciofecaforensics"),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Document"),
				Field: []*descriptorpb.FieldDescriptorProto{
					optionalField("version", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					messageField("note", 3, ".ciofecaforensics.Note"),
				},
			},
			{
				Name: proto.String("Note"),
				Field: []*descriptorpb.FieldDescriptorProto{
					optionalField("note_text", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					repeatedMessageField("attribute_run", 5, ".ciofecaforensics.AttributeRun"),
				},
			},
			{
				Name: proto.String("AttributeRun"),
				Field: []*descriptorpb.FieldDescriptorProto{
					optionalField("length", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					messageField("paragraph_style", 2, ".ciofecaforensics.ParagraphStyle"),
					optionalField("font_weight", 5, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					optionalField("underlined", 6, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					optionalField("strikethrough", 7, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					optionalField("superscript", 8, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					optionalField("link", 9, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					messageField("attachment_info", 12, ".ciofecaforensics.AttachmentInfo"),
				},
			},
			{
				Name: proto.String("ParagraphStyle"),
				Field: []*descriptorpb.FieldDescriptorProto{
					optionalField("style_type", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					optionalField("indent_amount", 4, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				},
			},
			{
				Name: proto.String("AttachmentInfo"),
				Field: []*descriptorpb.FieldDescriptorProto{
					optionalField("attachment_identifier", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					optionalField("type_uti", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
		},
	}
}

func optionalField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func messageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName: proto.String(typeName),
	}
}

func repeatedMessageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := messageField(name, number, typeName)
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}
