// Package extract turns raw claim text into structured sections and fields.
// Every extractor is total: missing or malformed input yields zero values,
// never an error, so OCR noise can only downgrade to "unknown".
package extract

import "strings"

// Normalize trims surrounding whitespace. It never alters semantic content.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// Lower trims and lower-cases for case-insensitive matching.
func Lower(s string) string {
	return strings.ToLower(Normalize(s))
}
