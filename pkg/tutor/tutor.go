// Package tutor streams Socratic tutor turns from a language model.
//
// An [Engine] takes the problem, a text rendering of the student's canvas
// and the conversation so far, and streams back text deltas and annotation
// proposals. Proposals arrive through the proposeAnnotation tool; engines
// normalize every payload shape the model produces with [DecodeProposals].
//
// # Engines
//
//   - anthropic: Claude Messages API with server-sent events
//   - gemini: Google Gemini through generative-ai-go with function calling
//   - offline: deterministic canned tutor for development and tests
//
// When the conversation is empty the engine runs a greeting turn: a short
// welcome plus one opening question, with no tools offered.
package tutor

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
)

// Engine names.
const (
	EngineAnthropic = "anthropic"
	EngineGemini    = "gemini"
	EngineOffline   = "offline"
)

// Engine produces tutor turns.
type Engine interface {
	// Name returns the engine name.
	Name() string

	// Stream runs one tutor turn and calls emit for every event in order.
	// An error returned by emit aborts the turn and is returned by Stream.
	Stream(ctx context.Context, req Request, emit func(Event) error) error
}

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Image is an inline image attachment.
type Image struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// Request is the input of one tutor turn.
type Request struct {
	// Problem is the problem statement. It may be empty when the problem
	// was given as an image only.
	Problem string

	// ProblemImage is the uploaded problem image, if any.
	ProblemImage *Image

	// Screenshot is the SVG rendering of the canvas, or nil for an empty page.
	Screenshot []byte

	// History is the conversation so far, oldest first.
	History []Message
}

// Conversation returns the history without blank messages.
func (r Request) Conversation() []Message {
	out := make([]Message, 0, len(r.History))
	for _, m := range r.History {
		if strings.TrimSpace(m.Text) != "" {
			out = append(out, m)
		}
	}
	return out
}

// Greeting reports whether this turn opens the conversation.
func (r Request) Greeting() bool {
	return len(r.Conversation()) == 0
}

// EventType identifies a stream event.
type EventType string

// Event types.
const (
	EventText     EventType = "text"
	EventProposal EventType = "proposal"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is one item of a streamed tutor turn.
type Event struct {
	Type EventType `json:"type"`

	// Text is the delta for text events and the message for error events.
	Text string `json:"text,omitempty"`

	// CallID identifies the tool call a proposal came from. Replays of the
	// same call carry the same id.
	CallID string `json:"call_id,omitempty"`

	Proposal *annotation.Proposal `json:"proposal,omitempty"`
}

// Config selects and configures an engine.
type Config struct {
	Engine      string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// Defaults for engine configuration.
const (
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1024
	DefaultAnthropicModel = "claude-haiku-4-5"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// New creates the engine named by cfg.Engine.
func New(cfg Config, logger *log.Logger) (Engine, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch strings.ToLower(cfg.Engine) {
	case EngineAnthropic:
		if cfg.APIKey == "" {
			return nil, apperr.New(apperr.ErrCodeInvalidConfig, "anthropic engine requires an API key (ANTHROPIC_API_KEY)")
		}
		return NewAnthropic(cfg, logger), nil
	case EngineGemini:
		if cfg.APIKey == "" {
			return nil, apperr.New(apperr.ErrCodeInvalidConfig, "gemini engine requires an API key (GEMINI_API_KEY)")
		}
		return NewGemini(cfg, logger), nil
	case EngineOffline, "":
		return NewOffline(), nil
	default:
		return nil, apperr.New(apperr.ErrCodeInvalidConfig, "unknown tutor engine %q (want anthropic, gemini or offline)", cfg.Engine)
	}
}

// emitProposals sends one proposal event per decoded proposal. Multiple
// proposals from a single call get suffixed ids.
func emitProposals(callID string, ps []annotation.Proposal, emit func(Event) error) error {
	for i := range ps {
		id := callID
		if len(ps) > 1 {
			id = callID + "-" + strconv.Itoa(i)
		}
		if err := emit(Event{Type: EventProposal, CallID: id, Proposal: &ps[i]}); err != nil {
			return err
		}
	}
	return nil
}
