package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/socraticboard/pkg/tutor"
)

// completionGenerators maps a shell name to its cobra script generator.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// registerEngineCompletion completes --engine with the known tutor engines.
func registerEngineCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("engine", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{
			tutor.EngineAnthropic + "\tClaude Messages API",
			tutor.EngineGemini + "\tGoogle Gemini",
			tutor.EngineOffline + "\tcanned tutor, no API key",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// completionCommand prints a shell completion script for socraticboard.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for socraticboard.

Load it into the current shell, or write it to your shell's completion
directory to keep it across sessions.`,
		Example: `  source <(socraticboard completion bash)
  socraticboard completion zsh > "${fpath[1]}/_socraticboard"
  socraticboard completion fish > ~/.config/fish/completions/socraticboard.fish
  socraticboard completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
