package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// resolveLevel picks the log level for a command run. --verbose always
// means debug; otherwise the configured level applies, and an empty one
// keeps current.
func resolveLevel(verbose bool, configured string, current log.Level) (log.Level, error) {
	if verbose {
		return log.DebugLevel, nil
	}
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return current, nil
	}
	level, err := log.ParseLevel(strings.ToLower(configured))
	if err != nil {
		return current, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "log.level %q", configured)
	}
	return level, nil
}

// applyLogLevel sets the CLI logger to the level resolved from --verbose
// and the loaded config.
func (c *CLI) applyLogLevel(configured string) error {
	level, err := resolveLevel(c.verbose, configured, c.Logger.GetLevel())
	if err != nil {
		return err
	}
	c.SetLogLevel(level)
	return nil
}

// progress times a command step such as placing a scenario and reports it
// at info level.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Placed 3 annotations (1ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches the command logger. RootCommand does this for every
// subcommand before it runs.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() outside a
// command run.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
