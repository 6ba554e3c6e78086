package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/operator-framework/deppy/internal/planner"
	"github.com/operator-framework/deppy/internal/resolver"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve a blueprint and print the resulting action plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := loadInputs(cmd)
			if err != nil {
				return err
			}

			model, err := resolver.Resolve(cmd.Context(), in.pool, in.requests, in.snap, in.flags)
			if err != nil {
				var unsolvable *resolver.Unsolvable
				if errors.As(err, &unsolvable) {
					fmt.Printf("unsolvable: suspect requests %v\n", unsolvable.Names)
					return nil
				}
				return err
			}

			purge, _ := cmd.Flags().GetBool("purge")
			plan, err := planner.Compute(in.pool, model, in.snap, planner.Flags{Purge: purge})
			if err != nil {
				return err
			}

			printPlan(plan)
			return nil
		},
	}
	cmd.Flags().Bool("purge", false, "remove configuration files along with removed packages")
	return cmd
}
