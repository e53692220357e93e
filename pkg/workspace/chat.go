package workspace

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/observability"
	"github.com/matzehuels/socraticboard/pkg/tutor"
)

// ChatEvent is one item of a streamed chat turn as seen by clients.
type ChatEvent struct {
	Type       tutor.EventType    `json:"type"`
	Text       string             `json:"text,omitempty"`
	Annotation *PendingAnnotation `json:"annotation,omitempty"`
}

// ChatResult summarizes a completed chat turn.
type ChatResult struct {
	Reply    string   `json:"reply"`
	Proposed []string `json:"proposed"`
	Greeting bool     `json:"greeting"`
}

// Chat sends the student's message to the tutor and streams the reply.
//
// An empty text with an empty history runs the greeting turn. Text deltas
// are forwarded as they arrive. Each proposal is registered and placed
// before it is forwarded, so the annotation event already carries its
// position. Invalid and replayed proposals are dropped silently. The
// stream runs without holding the workspace lock.
func (w *Workspace) Chat(ctx context.Context, engine tutor.Engine, text string, emit func(ChatEvent) error) (ChatResult, error) {
	text = strings.TrimSpace(text)
	if emit == nil {
		emit = func(ChatEvent) error { return nil }
	}

	w.mu.Lock()
	if text != "" {
		w.history = append(w.history, tutor.Message{Role: tutor.RoleUser, Text: text})
	}
	gen := w.generation
	req := tutor.Request{
		Problem:      w.problem.Text,
		ProblemImage: w.problem.Image,
		History:      append([]tutor.Message(nil), w.history...),
	}
	w.mu.Unlock()

	if shot, ok := w.Screenshot(ctx); ok {
		req.Screenshot = shot
	}

	res := ChatResult{Greeting: req.Greeting()}
	start := time.Now()
	observability.Tutor().OnTurnStart(ctx, engine.Name(), len(req.History))

	var reply strings.Builder
	err := engine.Stream(ctx, req, func(ev tutor.Event) error {
		switch ev.Type {
		case tutor.EventText:
			reply.WriteString(ev.Text)
			return emit(ChatEvent{Type: tutor.EventText, Text: ev.Text})
		case tutor.EventProposal:
			if ev.Proposal == nil {
				return nil
			}
			pa, created, err := w.ingest(ctx, gen, ev.CallID, *ev.Proposal)
			if err != nil {
				w.logger.Warn("dropping tutor proposal", "call", ev.CallID, "err", apperr.UserMessage(err))
				return nil
			}
			if !created {
				return nil
			}
			res.Proposed = append(res.Proposed, pa.ID)
			return emit(ChatEvent{Type: tutor.EventProposal, Annotation: &pa})
		}
		return nil
	})
	observability.Tutor().OnTurnComplete(ctx, engine.Name(), len(res.Proposed), time.Since(start), err)
	if err != nil {
		return res, err
	}

	res.Reply = reply.String()
	w.mu.Lock()
	if gen == w.generation && strings.TrimSpace(res.Reply) != "" {
		w.history = append(w.history, tutor.Message{Role: tutor.RoleAssistant, Text: res.Reply})
	}
	w.mu.Unlock()

	return res, emit(ChatEvent{Type: tutor.EventDone})
}

func (w *Workspace) ingest(ctx context.Context, gen int, callID string, p annotation.Proposal) (PendingAnnotation, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.proposeLocked(ctx, gen, callID, p)
}
