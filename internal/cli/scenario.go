package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

// Scenario is a scripted tutoring state: a problem, an optional viewport
// and the annotations a tutor proposed, in arrival order.
//
// Scenarios are JSON or TOML, chosen by file extension:
//
//	problem = "Solve 2x + 3 = 7"
//
//	[viewport]
//	width = 1000
//	height = 800
//
//	[[annotations]]
//	kind = "question"
//	text = "What is being asked?"
//	position_hint = "top-left"
type Scenario struct {
	Problem     string               `json:"problem" toml:"problem"`
	Viewport    *geometry.Viewport   `json:"viewport,omitempty" toml:"viewport"`
	Annotations []ScenarioAnnotation `json:"annotations" toml:"annotations"`
}

// ScenarioAnnotation is one proposal. CallID deduplicates replays the way
// tool call ids do.
type ScenarioAnnotation struct {
	CallID       string `json:"call_id,omitempty" toml:"call_id"`
	Kind         string `json:"kind" toml:"kind"`
	Text         string `json:"text" toml:"text"`
	PositionHint string `json:"position_hint,omitempty" toml:"position_hint"`
}

// Rejected records a proposal the workspace refused.
type Rejected struct {
	Index  int
	Reason string
}

func loadScenario(path string) (Scenario, error) {
	var s Scenario
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &s); err != nil {
			return s, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "parse scenario %s", path)
		}
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return s, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "parse scenario %s", path)
		}
	}
	return s, nil
}

// sequentialIDs returns an id generator producing a1, a2, ...
func sequentialIDs() annotation.IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("a%d", n)
	}
}

// build replays the scenario into a fresh workspace. The viewport, when
// given, is reported before any annotation arrives.
func (s Scenario) build(ctx context.Context, logger *log.Logger, opts ...workspace.Option) (*workspace.Workspace, []Rejected, error) {
	opts = append([]workspace.Option{workspace.WithLogger(logger), workspace.WithIDFunc(sequentialIDs())}, opts...)
	ws, err := workspace.New(workspace.Problem{Text: s.Problem}, opts...)
	if err != nil {
		return nil, nil, err
	}
	if s.Viewport != nil {
		if _, err := ws.SetViewport(ctx, *s.Viewport); err != nil {
			return nil, nil, err
		}
	}

	var rejected []Rejected
	for i, a := range s.Annotations {
		p := annotation.Proposal{Kind: a.Kind, Text: a.Text, PositionHint: a.PositionHint}
		if _, _, err := ws.Propose(ctx, a.CallID, p); err != nil {
			rejected = append(rejected, Rejected{Index: i, Reason: apperr.UserMessage(err)})
		}
	}
	return ws, rejected, nil
}
