// Command oma is a debug/demo harness that exercises the resolver core
// end to end: load a repo config and a blueprint fixture, resolve, plan,
// print the result. It is not the full interactive CLI spec.md §1 scopes
// out (install/remove/upgrade/search/...); it exists the way the
// teacher's cmd/dimacs and cmd/sudoku exist to exercise the SAT engine
// directly, here pointed at the full resolver+planner pipeline instead.
package main

import (
	"os"

	"github.com/operator-framework/deppy/cmd/oma/cli"
	"github.com/operator-framework/deppy/internal/log"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		log.Logger.Errorf("oma: %v", err)
		os.Exit(1)
	}
}
