package annotation

import (
	"strings"
	"testing"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

func fixedID(id string) IDFunc {
	return func() string { return id }
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"question", KindQuestion, false},
		{"hint", KindHint, false},
		{" Hint ", KindHint, false},
		{"QUESTION", KindQuestion, false},
		{"answer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if err != nil && !apperr.Is(err, apperr.ErrCodeInvalidKind) {
				t.Errorf("wrong error code: %v", err)
			}
		})
	}
}

func TestKindStyling(t *testing.T) {
	if KindQuestion.Color() != "blue" || KindHint.Color() != "yellow" {
		t.Errorf("colors = %s/%s", KindQuestion.Color(), KindHint.Color())
	}
	if KindQuestion.Label() != "Question" || KindHint.Label() != "Hint" {
		t.Errorf("labels = %s/%s", KindQuestion.Label(), KindHint.Label())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		p        Proposal
		wantErr  apperr.Code
		wantHint geometry.Anchor
	}{
		{"question", Proposal{Kind: "question", Text: "What is x?"}, "", ""},
		{"hint with anchor", Proposal{Kind: "hint", Text: "Try 2", PositionHint: "bottom_left"}, "", geometry.BottomLeft},
		{"unknown hint dropped", Proposal{Kind: "hint", Text: "Try 2", PositionHint: "middle"}, "", ""},
		{"bad kind", Proposal{Kind: "answer", Text: "42"}, apperr.ErrCodeInvalidKind, ""},
		{"empty text", Proposal{Kind: "hint", Text: "   "}, apperr.ErrCodeInvalidText, ""},
		{"long text", Proposal{Kind: "hint", Text: strings.Repeat("a", apperr.MaxAnnotationText+1)}, apperr.ErrCodeInvalidText, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.p, fixedID("a1"))
			if tt.wantErr != "" {
				if !apperr.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want code %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if a.ID != "a1" {
				t.Errorf("ID = %q, want a1", a.ID)
			}
			if a.PositionHint != tt.wantHint {
				t.Errorf("PositionHint = %q, want %q", a.PositionHint, tt.wantHint)
			}
		})
	}
}

func TestNewTrimsAndDefaultsID(t *testing.T) {
	a, err := New(Proposal{Kind: "question", Text: "  Why?  "}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Text != "Why?" {
		t.Errorf("Text = %q", a.Text)
	}
	if a.ID == "" {
		t.Error("expected generated id")
	}
	if a.Hint() != geometry.TopRight {
		t.Errorf("Hint() = %q, want top-right", a.Hint())
	}
}
