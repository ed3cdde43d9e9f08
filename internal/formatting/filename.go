package formatting

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// forbiddenFilenameChars are stripped from output file names.
const forbiddenFilenameChars = `\/:"*?<>|`

// SafeFilename removes characters that are invalid in Windows file names,
// trims surrounding whitespace and replaces spaces with underscores.
func SafeFilename(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenFilenameChars, r) {
			return -1
		}
		return r
	}, s)
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// BaseName returns the sanitized output base name for a record:
// "<serial>_<name>" when both are present, otherwise "record_<index>".
func BaseName(serial, name string, index int) string {
	if serial != "" && name != "" {
		return SafeFilename(serial + "_" + name)
	}
	return SafeFilename(fmt.Sprintf("record_%d", index))
}
