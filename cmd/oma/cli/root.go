package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/deppy/internal/log"
)

// NewRootCmd builds oma's root command: global flags for the repo
// config, blueprint, and installed-state fixture every subcommand reads,
// plus --debug to raise log verbosity, matching the teacher's own
// adapter cmd's PreRunE debug-flag pattern.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oma",
		Short: "Debug harness for the oma resolver core",
		Long: `oma is a debug/demo harness over internal/resolver and internal/planner.
It loads a repo config, a blueprint fixture, and an installed-state
fixture, then runs resolution and (for "oma plan") planning, printing the
result. It is not the package manager's interactive CLI.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				log.Logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().String("config", "", "path to a repo config TOML file")
	root.PersistentFlags().String("blueprint", "", "path to a blueprint fixture file")
	root.PersistentFlags().String("installed", "", "path to an installed-state fixture file")
	root.PersistentFlags().Bool("no-recommends", false, "do not pull in Recommends relations")
	root.PersistentFlags().Bool("allow-remove-essential", false, "allow the resolver to remove essential packages")

	root.AddCommand(newResolveCmd())
	root.AddCommand(newPlanCmd())
	return root
}
