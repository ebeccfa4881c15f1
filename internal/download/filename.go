package download

import (
	"fmt"
	"regexp"
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	strayChars   = regexp.MustCompile(`[^\w\s.-]`)
)

// SanitizeFilename makes a lesson or course title safe for the filesystem:
// illegal filename characters become dashes, anything else outside
// alphanumerics, spaces, dots and dashes is dropped. Idempotent.
func SanitizeFilename(name string) string {
	sanitized := illegalChars.ReplaceAllString(name, "-")
	return strayChars.ReplaceAllString(sanitized, "")
}

// BuildFilename combines a 1-based lesson index, a title and an extension
// into the on-disk name, optionally prefixed with the zero-padded index.
func BuildFilename(index int, title, ext string, prefix bool) string {
	name := SanitizeFilename(title)
	if prefix {
		return fmt.Sprintf("%02d-%s%s", index, name, ext)
	}
	return name + ext
}
