package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for updsync.

To load completions:

Bash:
  $ source <(updsync completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ updsync completion bash > /etc/bash_completion.d/updsync

Zsh:
  $ updsync completion zsh > "${fpath[1]}/_updsync"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ updsync completion fish > ~/.config/fish/completions/updsync.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			}
			return nil
		},
	}
}
