// Package annotation defines tutor-proposed annotations and the registry
// that tracks them until the student approves or dismisses them.
//
// An [Annotation] is created once, from a normalized [Proposal], and never
// mutated afterwards. The [Registry] holds the pending annotations in
// arrival order together with the screen position assigned to each of them.
package annotation

import (
	"strings"

	"github.com/google/uuid"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

// Kind distinguishes Socratic questions from scaffolding hints. It only
// affects styling: card colors and the color of the committed canvas marker.
type Kind string

// Supported kinds.
const (
	KindQuestion Kind = "question"
	KindHint     Kind = "hint"
)

// ParseKind converts a kind string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindQuestion, KindHint:
		return k, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidKind, "unknown annotation kind %q (want question or hint)", s)
}

// Label returns the display label used on annotation cards.
func (k Kind) Label() string {
	if k == KindHint {
		return "Hint"
	}
	return "Question"
}

// Color returns the marker color class for k: blue for questions, yellow
// for hints.
func (k Kind) Color() string {
	if k == KindHint {
		return "yellow"
	}
	return "blue"
}

// Annotation is a pending tutor suggestion.
type Annotation struct {
	ID           string          `json:"id"`
	Kind         Kind            `json:"kind"`
	Text         string          `json:"text"`
	PositionHint geometry.Anchor `json:"position_hint,omitempty"`
}

// Hint returns the placement anchor, falling back to the default anchor.
func (a Annotation) Hint() geometry.Anchor {
	return a.PositionHint.OrDefault()
}

// Proposal is the normalized payload of one tutor suggestion, before an id
// has been assigned.
type Proposal struct {
	Kind         string `json:"kind"`
	Text         string `json:"text"`
	PositionHint string `json:"position_hint,omitempty"`
}

// IDFunc produces unique annotation identifiers.
type IDFunc func() string

// NewID is the default IDFunc: a random UUID.
func NewID() string {
	return uuid.NewString()
}

// New validates p and turns it into an Annotation with a fresh id.
// An unrecognized position hint is dropped rather than rejected, so the
// annotation is placed at the default anchor. A nil gen uses [NewID].
func New(p Proposal, gen IDFunc) (Annotation, error) {
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return Annotation{}, err
	}
	text := strings.TrimSpace(p.Text)
	if err := apperr.ValidateAnnotationText(text); err != nil {
		return Annotation{}, err
	}

	var hint geometry.Anchor
	if p.PositionHint != "" {
		if a, ok := geometry.ParseAnchor(p.PositionHint); ok {
			hint = a
		}
	}

	if gen == nil {
		gen = NewID
	}
	return Annotation{
		ID:           gen(),
		Kind:         kind,
		Text:         text,
		PositionHint: hint,
	}, nil
}
