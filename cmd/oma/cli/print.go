package cli

import (
	"fmt"
	"sort"

	"github.com/operator-framework/deppy/internal/planner"
	"github.com/operator-framework/deppy/internal/resolver"
)

func printModel(model *resolver.Model) {
	names := make([]string, 0, len(model.Install))
	for name := range model.Install {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("install:")
	for _, name := range names {
		u := model.Install[name]
		fmt.Printf("  %s %s\n", u.Name, u.Version.String())
	}

	remove := append([]string(nil), model.Remove...)
	sort.Strings(remove)
	fmt.Println("remove:")
	for _, name := range remove {
		fmt.Printf("  %s\n", name)
	}
}

func printPlan(plan *planner.Plan) {
	fmt.Println("diffs:")
	for _, d := range plan.Diffs {
		switch {
		case d.From == nil:
			fmt.Printf("  %s: install %s\n", d.Name, d.To.String())
		case d.To == nil:
			fmt.Printf("  %s: remove %s\n", d.Name, d.From.String())
		default:
			fmt.Printf("  %s: %s -> %s\n", d.Name, d.From.String(), d.To.String())
		}
	}

	fmt.Println("actions:")
	for _, a := range plan.Actions {
		fmt.Printf("  %s %s\n", a.Kind, a.Name)
	}
}
