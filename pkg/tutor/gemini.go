package tutor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/httputil"
)

// Gemini streams tutor turns from Google Gemini with function calling.
type Gemini struct {
	cfg        Config
	logger     *log.Logger
	attempts   int
	retryDelay time.Duration
}

// NewGemini creates a Gemini engine.
func NewGemini(cfg Config, logger *log.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if logger == nil {
		logger = log.Default()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return &Gemini{cfg: cfg, logger: logger, attempts: 3, retryDelay: time.Second}
}

func (g *Gemini) Name() string { return EngineGemini }

// geminiTool declares proposeAnnotation for the Gemini API.
func geminiTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        ToolName,
			Description: ToolDescription,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {
						Type:        genai.TypeString,
						Format:      "enum",
						Enum:        toolKinds,
						Description: toolTypeDescription,
					},
					"text": {
						Type:        genai.TypeString,
						Description: toolTextDescription,
					},
					"positionHint": {
						Type:        genai.TypeString,
						Format:      "enum",
						Enum:        toolAnchors(),
						Description: toolHintDescription,
					},
				},
				Required: []string{"type", "text"},
			},
		}},
	}
}

// Stream implements Engine.
func (g *Gemini) Stream(ctx context.Context, req Request, emit func(Event) error) error {
	if g.cfg.APIKey == "" {
		return apperr.New(apperr.ErrCodeInvalidConfig, "GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.APIKey))
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeUpstream, err, "create gemini client")
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.cfg.Model)
	m.SetTemperature(g.cfg.Temperature)
	m.SetMaxOutputTokens(int32(g.cfg.MaxTokens))
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(BuildSystem(req))}}

	cs := m.StartChat()
	var parts []genai.Part
	if req.Greeting() {
		parts = g.withProblemImage(req, []genai.Part{genai.Text(GreetingPrompt)})
	} else {
		m.Tools = []*genai.Tool{geminiTool()}
		history, last := geminiHistory(req)
		cs.History = history
		parts = last
		if len(history) == 0 {
			parts = g.withProblemImage(req, parts)
		} else if req.ProblemImage != nil {
			history[0].Parts = g.withProblemImage(req, history[0].Parts)
		}
		if len(req.Screenshot) > 0 {
			parts = append(parts, genai.Text(ScreenshotIntro+"\n"+string(req.Screenshot)))
		}
	}

	resp, iter, err := g.open(ctx, cs, parts)
	if err != nil {
		return err
	}

	turnID := uuid.NewString()
	calls := 0
	for resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, p := range cand.Content.Parts {
				switch v := p.(type) {
				case genai.Text:
					if v != "" {
						if err := emit(Event{Type: EventText, Text: string(v)}); err != nil {
							return err
						}
					}
				case genai.FunctionCall:
					if v.Name != ToolName {
						g.logger.Debug("ignoring unknown function call", "name", v.Name)
						continue
					}
					ps, err := DecodeArgs(v.Args)
					if err != nil {
						g.logger.Warn("dropping undecodable function call", "err", err)
						continue
					}
					callID := fmt.Sprintf("gemini-%s-%d", turnID, calls)
					calls++
					if err := emitProposals(callID, ps, emit); err != nil {
						return err
					}
				}
			}
		}

		resp, err = iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return geminiError(ctx, err)
		}
	}
	return nil
}

// open starts the stream and reads its first response, retrying transient
// failures. A nil response means the stream ended without content. Once
// the first response arrives the stream is never retried.
func (g *Gemini) open(ctx context.Context, cs *genai.ChatSession, parts []genai.Part) (*genai.GenerateContentResponse, *genai.GenerateContentResponseIterator, error) {
	history := cs.History
	var (
		first *genai.GenerateContentResponse
		iter  *genai.GenerateContentResponseIterator
	)
	err := httputil.Retry(ctx, g.attempts, g.retryDelay, func() error {
		// SendMessageStream appends the user turn to the session history.
		cs.History = slices.Clone(history)
		iter = cs.SendMessageStream(ctx, parts...)
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			first = nil
			return nil
		}
		if err != nil {
			g.logger.Debug("gemini stream failed to open", "err", err)
			return geminiError(ctx, err)
		}
		first = resp
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return first, iter, nil
}

// geminiError maps client failures onto error codes. Transient HTTP
// statuses are marked retryable.
func geminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "gemini stream")
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return apperr.Wrap(apperr.ErrCodeUpstream, err, "gemini stream")
	}

	code := apperr.ErrCodeUpstream
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = apperr.ErrCodeUnauthorized
	case http.StatusTooManyRequests:
		code = apperr.ErrCodeRateLimited
	case http.StatusBadRequest:
		code = apperr.ErrCodeInvalidInput
	}
	wrapped := apperr.Wrap(code, err, "gemini API error (%d)", apiErr.Code)
	if httputil.TransientStatus(apiErr.Code) {
		return &httputil.RetryableError{Err: wrapped}
	}
	return wrapped
}

func (g *Gemini) withProblemImage(req Request, parts []genai.Part) []genai.Part {
	if req.ProblemImage == nil || len(req.ProblemImage.Data) == 0 {
		return parts
	}
	blob := genai.Blob{MIMEType: req.ProblemImage.MediaType, Data: req.ProblemImage.Data}
	return append([]genai.Part{blob}, parts...)
}

// geminiHistory splits the conversation into chat history and the parts of
// the final user turn. Gemini names the assistant role "model".
func geminiHistory(req Request) ([]*genai.Content, []genai.Part) {
	ts := turns(req)
	var last []genai.Part
	if n := len(ts); n > 0 && ts[n-1].Role == RoleUser {
		last = []genai.Part{genai.Text(ts[n-1].Text)}
		ts = ts[:n-1]
	} else {
		last = []genai.Part{genai.Text("Please continue.")}
	}

	history := make([]*genai.Content, 0, len(ts))
	for _, m := range ts {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Text)}})
	}
	return history, last
}
