package markdown

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"applenotes/internal/noteproto"
	"applenotes/internal/ports"
)

// noteLinkScheme prefixes in-app links between notes.
const noteLinkScheme = "applenotes:"

// Factory builds note converters for decoded Document payloads.
type Factory struct {
	OmitFirstLine      bool
	IncludeHandwriting bool
}

// Ensure Factory implements ports.ConverterFactory
var _ ports.ConverterFactory = Factory{}

// MessageType names the payload schema note documents decode against.
func (f Factory) MessageType() protoreflect.FullName {
	return noteproto.DocumentType
}

// New wraps a decoded document in a converter bound to the resolver.
func (f Factory) New(res ports.Resolver, msg proto.Message) ports.Converter {
	return &Converter{
		res:                res,
		doc:                noteproto.AsDocument(msg),
		omitFirstLine:      f.OmitFirstLine,
		includeHandwriting: f.IncludeHandwriting,
	}
}

// Converter renders one decoded note document as markdown, resolving
// embedded note links and attachment references through the engine.
type Converter struct {
	res                ports.Resolver
	doc                noteproto.Document
	omitFirstLine      bool
	includeHandwriting bool
}

// Format produces the note's markdown body.
func (c *Converter) Format() (string, error) {
	note := c.doc.Note()
	text := []rune(note.Text())
	runs := note.AttributeRuns()

	var out strings.Builder
	offset := 0
	for _, run := range runs {
		length := run.Length()
		if length < 0 {
			length = 0
		}
		end := offset + length
		if end > len(text) {
			end = len(text)
		}
		segment := string(text[offset:end])
		offset = end

		if identifier, typeUTI, ok := run.Attachment(); ok {
			c.writeAttachment(&out, identifier, typeUTI)
			continue
		}
		if link := run.Link(); link != "" {
			out.WriteString(c.formatLink(segment, link))
			continue
		}
		out.WriteString(segment)
	}
	// Text not covered by any run passes through untouched.
	if offset < len(text) {
		out.WriteString(string(text[offset:]))
	}

	content := out.String()
	if c.omitFirstLine {
		// The first line duplicates the note title used as the filename.
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = strings.TrimLeft(content[idx+1:], "\n")
		} else {
			content = ""
		}
	}
	return content, nil
}

// writeAttachment resolves an embedded attachment and emits a wiki
// embed. A nil result (skipped or failed attachment) becomes a comment
// placeholder so the surrounding note still formats.
func (c *Converter) writeAttachment(out *strings.Builder, identifier, typeUTI string) {
	id, storedUTI, err := c.res.LookupAttachment(identifier)
	if err != nil {
		fmt.Fprintf(out, "<!-- missing attachment %s -->", identifier)
		return
	}
	if storedUTI != "" {
		typeUTI = storedUTI
	}

	file, err := c.res.ResolveAttachment(id, typeUTI)
	if err != nil || file == nil {
		fmt.Fprintf(out, "<!-- missing attachment %s -->", identifier)
		return
	}

	fmt.Fprintf(out, "![[%s]]", filepath.Base(file.Path))

	if c.includeHandwriting {
		if summary := c.res.HandwritingSummary(id); summary != "" {
			out.WriteString("\n\n> " + strings.ReplaceAll(summary, "\n", "\n> "))
		}
	}
}

// formatLink renders a hyperlink run. In-app note links become wiki
// links to the target note's exported file; everything else becomes a
// regular markdown link.
func (c *Converter) formatLink(segment, link string) string {
	if strings.HasPrefix(strings.ToLower(link), noteLinkScheme) {
		if target := c.resolveNoteLink(link); target != "" {
			return fmt.Sprintf("[[%s|%s]]", target, segment)
		}
		return segment
	}
	return fmt.Sprintf("[%s](%s)", segment, link)
}

func (c *Converter) resolveNoteLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	identifier := u.Query().Get("identifier")
	if identifier == "" {
		return ""
	}

	id, err := c.res.LookupNote(identifier)
	if err != nil {
		return ""
	}
	file, err := c.res.ResolveNote(id)
	if err != nil || file == nil {
		return ""
	}
	return file.Basename
}
