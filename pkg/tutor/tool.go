package tutor

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

// =============================================================================
// proposeAnnotation tool
// =============================================================================

// ToolName is the name of the annotation tool offered to the model.
const ToolName = "proposeAnnotation"

// Tool descriptions shown to the model.
const (
	ToolDescription = "Propose an annotation (question or hint) to appear on the student's canvas. " +
		"Use this when you want to guide their thinking about a specific part of their work."
	toolTypeDescription = "Type of annotation: question for Socratic questions, hint for scaffolding/partial solutions"
	toolTextDescription = "The annotation text. Keep concise (1-2 sentences max). Questions should be open-ended. " +
		"Hints should be partial (not complete answers)."
	toolHintDescription = "Rough position preference. Algorithm will avoid overlaps."
)

// toolKinds lists the values of the tool's type enum.
var toolKinds = []string{string(annotation.KindQuestion), string(annotation.KindHint)}

// toolRequired lists the required tool input fields.
var toolRequired = []string{"type", "text"}

// toolAnchors lists the values of the tool's positionHint enum.
func toolAnchors() []string {
	out := make([]string, len(geometry.Anchors))
	for i, a := range geometry.Anchors {
		out[i] = string(a)
	}
	return out
}

// ToolSchema returns the JSON schema of the tool input.
func ToolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type":        "string",
				"enum":        toolKinds,
				"description": toolTypeDescription,
			},
			"text": map[string]any{
				"type":        "string",
				"description": toolTextDescription,
			},
			"positionHint": map[string]any{
				"type":        "string",
				"enum":        toolAnchors(),
				"description": toolHintDescription,
			},
		},
		"required": toolRequired,
	}
}

// =============================================================================
// Payload decoding
// =============================================================================

// rawProposal accepts every field spelling models have produced.
type rawProposal struct {
	Type          string `json:"type"`
	Kind          string `json:"kind"`
	Text          string `json:"text"`
	PositionHint  string `json:"positionHint"`
	PositionHint2 string `json:"position_hint"`
	Position      string `json:"position"`
}

func (r rawProposal) normalize() annotation.Proposal {
	p := annotation.Proposal{
		Kind:         firstNonEmpty(r.Kind, r.Type),
		Text:         r.Text,
		PositionHint: firstNonEmpty(r.PositionHint, r.PositionHint2, r.Position),
	}
	return p
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// DecodeProposals parses a tool input payload into proposals.
//
// Accepted shapes:
//   - a single object: {"type": "hint", "text": "...", "positionHint": "top-left"}
//   - "kind" in place of "type", "position_hint" in place of "positionHint"
//   - a wrapper: {"annotations": [ ... ]}
//   - a bare array of objects
//   - any of the above encoded as a JSON string
//
// The proposals are not validated; [annotation.New] does that.
func DecodeProposals(raw []byte) ([]annotation.Proposal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "empty %s payload", ToolName)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode %s payload", ToolName)
		}
		return DecodeProposals([]byte(s))
	case '[':
		var items []rawProposal
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode %s payload", ToolName)
		}
		out := make([]annotation.Proposal, len(items))
		for i, it := range items {
			out[i] = it.normalize()
		}
		return out, nil
	case '{':
		var wrapper struct {
			Annotations json.RawMessage `json:"annotations"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode %s payload", ToolName)
		}
		if len(wrapper.Annotations) > 0 && !bytes.Equal(wrapper.Annotations, []byte("null")) {
			return DecodeProposals(wrapper.Annotations)
		}
		var item rawProposal
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode %s payload", ToolName)
		}
		return []annotation.Proposal{item.normalize()}, nil
	default:
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "unexpected %s payload", ToolName)
	}
}

// DecodeArgs decodes tool arguments delivered as a map, as function-calling
// APIs do.
func DecodeArgs(args map[string]any) ([]annotation.Proposal, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "encode %s args", ToolName)
	}
	return DecodeProposals(raw)
}
