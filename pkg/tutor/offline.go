package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

// offlineQuestions are cycled through, one per turn.
var offlineQuestions = []string{
	"What information does the problem give you, and what is it asking for?",
	"What do you notice about the step you just wrote?",
	"What happens if you try a simpler version of this problem first?",
	"Why might that approach work here? Can you check it against the original problem?",
	"How could you verify your answer?",
}

// offlineHint is proposed when the student asks for help.
const offlineHint = "Try breaking the problem into smaller steps. What is the first quantity you can work out?"

// offlineAnchors spread proposals over the canvas corners.
var offlineAnchors = []geometry.Anchor{geometry.TopRight, geometry.TopLeft, geometry.BottomRight, geometry.BottomLeft}

// Offline is a deterministic tutor that needs no network. The same request
// always yields the same events, including call ids, so replays dedupe.
type Offline struct{}

// NewOffline creates an offline engine.
func NewOffline() *Offline { return &Offline{} }

func (*Offline) Name() string { return EngineOffline }

// Stream implements Engine.
func (o *Offline) Stream(ctx context.Context, req Request, emit func(Event) error) error {
	conv := req.Conversation()
	if len(conv) == 0 {
		return streamWords(ctx, "Hi! Let's work through this together. "+offlineQuestions[0], emit)
	}

	turn := len(conv)
	question := offlineQuestions[turn%len(offlineQuestions)]
	if err := streamWords(ctx, question, emit); err != nil {
		return err
	}

	ps := []annotation.Proposal{{
		Kind:         string(annotation.KindQuestion),
		Text:         question,
		PositionHint: string(offlineAnchors[turn%len(offlineAnchors)]),
	}}
	if wantsHelp(conv[len(conv)-1]) {
		ps = append(ps, annotation.Proposal{Kind: string(annotation.KindHint), Text: offlineHint})
	}
	return emitProposals(fmt.Sprintf("offline-%d", turn), ps, emit)
}

func wantsHelp(m Message) bool {
	if m.Role != RoleUser {
		return false
	}
	t := strings.ToLower(m.Text)
	return strings.Contains(t, "stuck") || strings.Contains(t, "hint") || strings.Contains(t, "help")
}

// streamWords emits text one word at a time.
func streamWords(ctx context.Context, text string, emit func(Event) error) error {
	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(Event{Type: EventText, Text: w}); err != nil {
			return err
		}
	}
	return nil
}
