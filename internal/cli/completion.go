package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xbpar/pkg/fabric"
	"github.com/matzehuels/xbpar/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for xbpar. Completions cover commands,
flags, built-in parts for --device and the --format values.

To load completions:

Bash:
  $ source <(xbpar completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ xbpar completion bash > /etc/bash_completion.d/xbpar
  # macOS:
  $ xbpar completion bash > $(brew --prefix)/etc/bash_completion.d/xbpar

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ xbpar completion zsh > "${fpath[1]}/_xbpar"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ xbpar completion fish | source

  # To load completions for each session, execute once:
  $ xbpar completion fish > ~/.config/fish/completions/xbpar.fish

PowerShell:
  PS> xbpar completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> xbpar completion powershell > xbpar.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions adds value completions for the design and format
// flags that cmd has.
func registerCompletions(cmd *cobra.Command) {
	if cmd.Flags().Lookup("device") != nil {
		_ = cmd.RegisterFlagCompletionFunc("device", completeDevice)
	}
	if cmd.Flags().Lookup("fabric") != nil {
		_ = cmd.RegisterFlagCompletionFunc("fabric", cobra.FixedCompletions(
			[]string{"direct", "hops:", "matrix:"}, cobra.ShellCompDirectiveNoSpace))
	}
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	}
}

// completeDevice offers the built-in parts and falls back to file names.
func completeDevice(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, p := range fabric.Parts() {
		if strings.HasPrefix(p, strings.ToUpper(toComplete)) {
			out = append(out, p)
		}
	}
	return out, cobra.ShellCompDirectiveDefault
}

// completeFormats completes the last entry of a comma-separated list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	done := strings.Split(prefix, ",")

	var out []string
	for f := range pipeline.ValidFormats {
		if strings.HasPrefix(f, last) && !slices.Contains(done, f) {
			out = append(out, prefix+f)
		}
	}
	slices.Sort(out)
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
