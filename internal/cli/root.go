package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/socraticboard/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Socraticboard is a whiteboard tutor that asks instead of tells",
		Long:         `Socraticboard serves a tutoring workspace where an AI tutor proposes question and hint cards next to the student's whiteboard. Cards are placed in free viewport corners and only land on the canvas once the student approves them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging (overrides log.level)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.reviewCommand())
	root.AddCommand(c.chatCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
