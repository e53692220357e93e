package errors

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits applied to user- and tutor-supplied input.
const (
	// MaxAnnotationText is the longest annotation text accepted, in runes.
	MaxAnnotationText = 1000

	// MaxProblemText is the longest problem statement accepted, in runes.
	MaxProblemText = 20000

	// MaxIDLength is the longest identifier accepted in a URL path.
	MaxIDLength = 128

	// MaxViewportSide bounds viewport width and height in pixels.
	MaxViewportSide = 100000
)

// ValidateAnnotationText validates the text of a proposed annotation.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only text
//   - No control characters other than newline and tab
//   - Maximum length of MaxAnnotationText runes
func ValidateAnnotationText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidText, "annotation text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxAnnotationText {
		return New(ErrCodeInvalidText, "annotation text too long (%d > %d characters)", n, MaxAnnotationText)
	}
	for _, r := range text {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidText, "annotation text contains invalid control characters")
		}
	}
	return nil
}

// ValidateProblemText validates a problem statement. Empty text is allowed
// because a problem may be given as an image only.
func ValidateProblemText(text string) error {
	if n := utf8.RuneCountInString(text); n > MaxProblemText {
		return New(ErrCodeInvalidInput, "problem text too long (%d > %d characters)", n, MaxProblemText)
	}
	if strings.ContainsRune(text, '\x00') {
		return New(ErrCodeInvalidInput, "problem text contains null bytes")
	}
	return nil
}

// ValidateViewport validates screen bounds reported by a client.
// Width and height must be positive and finite; the origin may be negative.
func ValidateViewport(x, y, width, height float64) error {
	for _, v := range []float64{x, y, width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidViewport, "viewport values must be finite")
		}
	}
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidViewport, "viewport must have positive size (got %gx%g)", width, height)
	}
	if width > MaxViewportSide || height > MaxViewportSide {
		return New(ErrCodeInvalidViewport, "viewport too large (max %d pixels per side)", MaxViewportSide)
	}
	return nil
}

// ValidateID validates an opaque identifier taken from a request path.
// Only ASCII letters, digits, dash and underscore are allowed.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", MaxIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return New(ErrCodeInvalidInput, "id contains invalid character %q", r)
		}
	}
	return nil
}
