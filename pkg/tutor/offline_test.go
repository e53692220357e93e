package tutor

import (
	"context"
	"strings"
	"testing"
)

func collect(t *testing.T, e Engine, req Request) (string, []Event) {
	t.Helper()
	var text strings.Builder
	var proposals []Event
	err := e.Stream(context.Background(), req, func(ev Event) error {
		switch ev.Type {
		case EventText:
			text.WriteString(ev.Text)
		case EventProposal:
			proposals = append(proposals, ev)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	return text.String(), proposals
}

func TestOfflineGreeting(t *testing.T) {
	text, proposals := collect(t, NewOffline(), Request{Problem: "2x=8"})
	if !strings.HasPrefix(text, "Hi!") {
		t.Errorf("greeting = %q", text)
	}
	if len(proposals) != 0 {
		t.Errorf("greeting proposed %d annotations", len(proposals))
	}
}

func TestOfflineTurnDeterministic(t *testing.T) {
	req := Request{History: []Message{
		{Role: RoleAssistant, Text: "Hi"},
		{Role: RoleUser, Text: "I'm stuck"},
	}}
	text1, p1 := collect(t, NewOffline(), req)
	text2, p2 := collect(t, NewOffline(), req)

	if text1 != text2 || len(p1) != len(p2) {
		t.Fatal("offline engine should be deterministic")
	}
	if len(p1) != 2 {
		t.Fatalf("got %d proposals, want question + hint", len(p1))
	}
	if p1[0].CallID != "offline-2-0" || p1[1].CallID != "offline-2-1" {
		t.Errorf("call ids = %s, %s", p1[0].CallID, p1[1].CallID)
	}
	if p1[1].Proposal.Kind != "hint" {
		t.Errorf("second proposal kind = %s", p1[1].Proposal.Kind)
	}
}

func TestOfflineSingleProposalKeepsCallID(t *testing.T) {
	req := Request{History: []Message{{Role: RoleUser, Text: "x = 4"}}}
	_, ps := collect(t, NewOffline(), req)
	if len(ps) != 1 || ps[0].CallID != "offline-1" {
		t.Errorf("proposals = %+v", ps)
	}
}

func TestOfflineEmitError(t *testing.T) {
	stop := context.Canceled
	err := NewOffline().Stream(context.Background(), Request{}, func(Event) error { return stop })
	if err != stop {
		t.Errorf("Stream() error = %v, want emit error", err)
	}
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		cfg     Config
		want    string
		wantErr bool
	}{
		{Config{}, EngineOffline, false},
		{Config{Engine: "offline"}, EngineOffline, false},
		{Config{Engine: "anthropic", APIKey: "k"}, EngineAnthropic, false},
		{Config{Engine: "Gemini", APIKey: "k"}, EngineGemini, false},
		{Config{Engine: "anthropic"}, "", true},
		{Config{Engine: "gemini"}, "", true},
		{Config{Engine: "gpt"}, "", true},
	}
	for _, tt := range tests {
		e, err := New(tt.cfg, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			continue
		}
		if err == nil && e.Name() != tt.want {
			t.Errorf("New(%+v).Name() = %s, want %s", tt.cfg, e.Name(), tt.want)
		}
	}
}
