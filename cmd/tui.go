package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ecomenu/internal/assistant"
	cfgpkg "github.com/KaramelBytes/ecomenu/internal/config"
	"github.com/KaramelBytes/ecomenu/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [file]",
	Short: "Open the interactive terminal interface",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(args)
		if err != nil {
			return err
		}
		a, aerr := newAssistant()
		return tui.Run(t, terminalOptions(cfg, a, aerr))
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// terminalOptions mirrors dashboardOptions: no per-turn deadline.
func terminalOptions(c *cfgpkg.Global, a *assistant.Assistant, aerr error) tui.Options {
	return tui.Options{
		TopN:         c.TopN,
		Assistant:    a,
		AssistantErr: aerr,
	}
}
