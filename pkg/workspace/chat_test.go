package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/canvas"
	"github.com/matzehuels/socraticboard/pkg/tutor"
)

// scriptedEngine replays a fixed list of events and records requests.
type scriptedEngine struct {
	events   []tutor.Event
	requests []tutor.Request
	before   func()
	err      error
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Stream(ctx context.Context, req tutor.Request, emit func(tutor.Event) error) error {
	e.requests = append(e.requests, req)
	if e.before != nil {
		e.before()
	}
	for _, ev := range e.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return e.err
}

func proposal(kind, text string) *annotation.Proposal {
	return &annotation.Proposal{Kind: kind, Text: text}
}

func TestChatGreetingWithOfflineEngine(t *testing.T) {
	w := newTestWorkspace(t)
	var events []ChatEvent
	res, err := w.Chat(context.Background(), tutor.NewOffline(), "", func(ev ChatEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Greeting || res.Reply == "" || len(res.Proposed) != 0 {
		t.Errorf("greeting result = %+v", res)
	}
	if last := events[len(events)-1]; last.Type != tutor.EventDone {
		t.Errorf("last event = %+v, want done", last)
	}
	hist := w.State().History
	if len(hist) != 1 || hist[0].Role != tutor.RoleAssistant {
		t.Errorf("history = %+v", hist)
	}
}

func TestChatIngestsProposals(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	w.AddStroke([]canvas.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, "")

	eng := &scriptedEngine{events: []tutor.Event{
		{Type: tutor.EventText, Text: "What do you "},
		{Type: tutor.EventText, Text: "notice?"},
		{Type: tutor.EventProposal, CallID: "t1", Proposal: proposal("question", "What changed?")},
		{Type: tutor.EventProposal, CallID: "t1", Proposal: proposal("question", "What changed?")},
		{Type: tutor.EventProposal, CallID: "t2", Proposal: proposal("answer", "x = 4")},
		{Type: tutor.EventProposal, CallID: "t3", Proposal: proposal("hint", "Subtract 3 first")},
	}}

	var annotations []*PendingAnnotation
	res, err := w.Chat(ctx, eng, "I got x = 4", func(ev ChatEvent) error {
		if ev.Type == tutor.EventProposal {
			annotations = append(annotations, ev.Annotation)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "What do you notice?" {
		t.Errorf("reply = %q", res.Reply)
	}
	if len(res.Proposed) != 2 || len(annotations) != 2 {
		t.Fatalf("proposed = %v, forwarded %d", res.Proposed, len(annotations))
	}
	for _, pa := range annotations {
		if pa.Position == nil {
			t.Errorf("forwarded annotation %s has no position", pa.ID)
		}
	}

	req := eng.requests[0]
	if len(req.History) != 1 || req.History[0].Text != "I got x = 4" {
		t.Errorf("request history = %+v", req.History)
	}
	if !strings.Contains(string(req.Screenshot), "<svg") {
		t.Error("screenshot not attached")
	}
	if req.Problem != "Solve 2x + 3 = 11" {
		t.Errorf("problem = %q", req.Problem)
	}

	hist := w.State().History
	if len(hist) != 2 || hist[1].Text != "What do you notice?" {
		t.Errorf("history = %+v", hist)
	}
}

func TestChatStreamError(t *testing.T) {
	w := newTestWorkspace(t)
	boom := errors.New("upstream down")
	eng := &scriptedEngine{events: []tutor.Event{{Type: tutor.EventText, Text: "partial"}}, err: boom}

	_, err := w.Chat(context.Background(), eng, "hello", nil)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v", err)
	}
	hist := w.State().History
	if len(hist) != 1 || hist[0].Role != tutor.RoleUser {
		t.Errorf("failed turn should keep only the user message: %+v", hist)
	}
}

func TestChatDropsProposalsAfterReset(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	eng := &scriptedEngine{
		events: []tutor.Event{
			{Type: tutor.EventText, Text: "old"},
			{Type: tutor.EventProposal, CallID: "t1", Proposal: proposal("hint", "stale")},
		},
	}
	eng.before = func() { w.Reset(ctx, Problem{Text: "Another problem"}) }

	res, err := w.Chat(ctx, eng, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Proposed) != 0 || len(w.Pending()) != 0 {
		t.Error("proposal from a stale stream was registered")
	}
	if len(w.State().History) != 0 {
		t.Error("stale reply recorded after reset")
	}
}
