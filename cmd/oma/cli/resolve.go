package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/operator-framework/deppy/internal/resolver"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a blueprint against a repo config and installed state",
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

			printModel(model)
			return nil
		},
	}
}
