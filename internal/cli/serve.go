package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/socraticboard/pkg/observability"
	"github.com/matzehuels/socraticboard/pkg/server"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

type serveOpts struct {
	addr   string
	engine string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the workspace HTTP API",
		Long: `Run the workspace HTTP API.

The tutor engine, cache backend and session lifetime come from the config
file and environment. API keys are read from ANTHROPIC_API_KEY or
GEMINI_API_KEY.`,
		Example: `  socraticboard serve
  socraticboard serve --addr :9000 --engine gemini
  socraticboard serve --config socraticboard.toml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "tutor engine: anthropic, gemini or offline (overrides config)")
	registerEngineCompletion(cmd)

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.engine != "" {
		cfg.Tutor.Engine = opts.engine
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	engine, err := c.newEngine(cfg)
	if err != nil {
		return err
	}
	shots, err := c.newScreenshotCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer shots.Close()

	observability.NewLogHooks(logger).Install()
	defer observability.Reset()

	srv := server.New(engine, server.Config{
		Addr:            cfg.Server.Addr,
		RequestTimeout:  cfg.Server.RequestTimeout.Duration,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
		SessionTTL:      cfg.Session.TTL.Duration,
		CleanupInterval: cfg.Session.CleanupInterval.Duration,
	},
		server.WithLogger(logger),
		server.WithWorkspaceOptions(workspace.WithScreenshotCache(shots, newKeyer(cfg.Cache))),
	)

	printInfo("Serving on %s (tutor: %s)", StyleHighlight.Render(cfg.Server.Addr), engine.Name())
	return srv.Run(ctx)
}
