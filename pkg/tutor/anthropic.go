package tutor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
)

// anthropicRetries is the number of retries the SDK makes for transient
// failures (connection errors, 408, 409, 429, 5xx) before a stream starts.
const anthropicRetries = 2

// Anthropic streams tutor turns from the Claude Messages API.
type Anthropic struct {
	cfg    Config
	client anthropic.Client
	logger *log.Logger
}

// NewAnthropic creates an Anthropic engine. Extra request options are
// appended after the ones derived from cfg.
func NewAnthropic(cfg Config, logger *log.Logger, opts ...option.RequestOption) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if logger == nil {
		logger = log.Default()
	}

	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(anthropicRetries),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{
		cfg:    cfg,
		client: anthropic.NewClient(append(base, opts...)...),
		logger: logger,
	}
}

func (a *Anthropic) Name() string { return EngineAnthropic }

// Stream implements Engine.
func (a *Anthropic) Stream(ctx context.Context, req Request, emit func(Event) error) error {
	stream := a.client.Messages.NewStreaming(ctx, a.buildParams(req))
	defer stream.Close()

	var msg anthropic.Message
	for stream.Next() {
		ev := stream.Current()
		if err := msg.Accumulate(ev); err != nil {
			return apperr.Wrap(apperr.ErrCodeUpstream, err, "anthropic stream")
		}

		switch v := ev.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if d, ok := v.Delta.AsAny().(anthropic.TextDelta); ok && d.Text != "" {
				if err := emit(Event{Type: EventText, Text: d.Text}); err != nil {
					return err
				}
			}
		case anthropic.ContentBlockStopEvent:
			if err := a.finishBlock(msg.Content, emit); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return anthropicError(ctx, err)
	}
	return nil
}

// finishBlock emits the proposals of a completed tool_use block. The
// accumulator always completes the most recent block.
func (a *Anthropic) finishBlock(blocks []anthropic.ContentBlockUnion, emit func(Event) error) error {
	if len(blocks) == 0 {
		return nil
	}
	b := blocks[len(blocks)-1]
	if b.Type != "tool_use" {
		return nil
	}
	if b.Name != ToolName {
		a.logger.Debug("ignoring unknown tool call", "tool", b.Name)
		return nil
	}
	ps, err := DecodeProposals(b.Input)
	if err != nil {
		a.logger.Warn("dropping undecodable tool call", "id", b.ID, "err", err)
		return nil
	}
	return emitProposals(b.ID, ps, emit)
}

func (a *Anthropic) buildParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.cfg.Model),
		MaxTokens:   int64(a.cfg.MaxTokens),
		System:      []anthropic.TextBlockParam{{Text: BuildSystem(req)}},
		Temperature: anthropic.Float(float64(a.cfg.Temperature)),
	}

	if req.Greeting() {
		params.Messages = []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropicWithImage(req, anthropic.NewTextBlock(GreetingPrompt))...),
		}
		return params
	}

	params.Tools = []anthropic.ToolUnionParam{{OfTool: anthropicTool()}}
	for i, m := range turns(req) {
		blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Text)}
		if i == 0 {
			blocks = anthropicWithImage(req, blocks...)
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(m.Role),
			Content: blocks,
		})
	}

	if len(req.Screenshot) > 0 {
		shot := anthropic.NewTextBlock(ScreenshotIntro + "\n" + string(req.Screenshot))
		if n := len(params.Messages); n > 0 && params.Messages[n-1].Role == anthropic.MessageParamRoleUser {
			params.Messages[n-1].Content = append(params.Messages[n-1].Content, shot)
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(shot))
		}
	}
	return params
}

// anthropicTool declares proposeAnnotation for the Messages API.
func anthropicTool() *anthropic.ToolParam {
	schema := ToolSchema()
	return &anthropic.ToolParam{
		Name:        ToolName,
		Description: anthropic.String(ToolDescription),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
			Required:   toolRequired,
		},
	}
}

func anthropicWithImage(req Request, blocks ...anthropic.ContentBlockParamUnion) []anthropic.ContentBlockParamUnion {
	if req.ProblemImage == nil || len(req.ProblemImage.Data) == 0 {
		return blocks
	}
	img := anthropic.NewImageBlockBase64(req.ProblemImage.MediaType, base64.StdEncoding.EncodeToString(req.ProblemImage.Data))
	return append([]anthropic.ContentBlockParamUnion{img}, blocks...)
}

// anthropicError maps SDK failures onto error codes.
func anthropicError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "anthropic request")
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return apperr.Wrap(apperr.ErrCodeUpstream, err, "anthropic stream")
	}

	code := apperr.ErrCodeUpstream
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = apperr.ErrCodeUnauthorized
	case http.StatusTooManyRequests:
		code = apperr.ErrCodeRateLimited
	case http.StatusBadRequest:
		code = apperr.ErrCodeInvalidInput
	}
	return apperr.New(code, "anthropic API error (%d): %s", apiErr.StatusCode, anthropicMessage(apiErr))
}

// anthropicMessage extracts the error message from an API error body.
func anthropicMessage(apiErr *anthropic.Error) string {
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(apiErr.RawJSON()), &body) == nil && body.Error.Message != "" {
		return body.Error.Type + ": " + body.Error.Message
	}
	return http.StatusText(apiErr.StatusCode)
}
