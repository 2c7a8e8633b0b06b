package domain

import (
	"regexp"
	"strings"
)

var (
	illegalRe         = regexp.MustCompile(`[\/\?<>\\:\*\|"]`)
	controlRe         = regexp.MustCompile(`[\x00-\x1f\x80-\x9f]`)
	reservedRe        = regexp.MustCompile(`^\.+$`)
	windowsReservedRe = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	windowsTrailingRe = regexp.MustCompile(`[\. ]+$`)
	startsWithDotRe   = regexp.MustCompile(`^\.`)
	badLinkRe         = regexp.MustCompile(`[\[\]#|^]`) // characters that break markdown links
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// SanitizeFileName strips everything from a title that the target
// filesystem or a markdown link cannot carry: illegal and control
// characters, reserved device names, leading dots, trailing dots and
// spaces, and link-breaking punctuation.
func SanitizeFileName(name string) string {
	name = illegalRe.ReplaceAllString(name, "")
	name = controlRe.ReplaceAllString(name, "")
	name = reservedRe.ReplaceAllString(name, "")
	name = windowsReservedRe.ReplaceAllString(name, "")
	name = windowsTrailingRe.ReplaceAllString(name, "")
	name = startsWithDotRe.ReplaceAllString(name, "")
	return badLinkRe.ReplaceAllString(name, "")
}

// CollapseWhitespace replaces whitespace runs with underscores, for
// attachment basenames.
func CollapseWhitespace(name string) string {
	return whitespaceRe.ReplaceAllString(name, "_")
}

// Splitext splits a filename at its last dot. A leading dot does not
// count as an extension separator.
func Splitext(name string) (basename, extension string) {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return name, ""
	}
	return name[:dot], strings.ToLower(name[dot+1:])
}
