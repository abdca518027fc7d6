// Package validate holds the pure input checks used by the workflow.
package validate

import "unicode/utf8"

const (
	// MaxMessageLength is the soft limit on a whisper body. Bodies within it
	// usually fit the reveal pop-up.
	MaxMessageLength = 200
	// MaxDescriptionLength is the hard limit on the public description.
	MaxDescriptionLength = 1000

	// MaxAlertUnits is Telegram's cap on a callback alert.
	MaxAlertUnits = 200
	// MaxTextUnits is Telegram's cap on a message, counted after entity
	// parsing.
	MaxTextUnits = 4096
)

// Length counts the characters (code points) in text.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// LengthWithin reports whether text has at most max characters.
func LengthWithin(text string, max int) bool {
	return Length(text) <= max
}

// Units counts text the way Telegram measures its limits: in UTF-16 code
// units, so characters outside the BMP count twice.
func Units(text string) int {
	n := 0
	for _, r := range text {
		n += unitsOf(r)
	}
	return n
}

// Clip returns the longest prefix of text that is at most max units.
func Clip(text string, max int) string {
	n := 0
	for i, r := range text {
		n += unitsOf(r)
		if n > max {
			return text[:i]
		}
	}
	return text
}

func unitsOf(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
