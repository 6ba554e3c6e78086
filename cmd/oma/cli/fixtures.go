package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/operator-framework/deppy/internal/state"
	"github.com/operator-framework/deppy/internal/version"
)

// loadInstalledFixture reads a debug-only installed-state format: one
// package per line, "name version" or "name version essential". It is
// not part of the external interface spec.md §6 names — a real caller
// supplies a state.Oracle backed by dpkg's status file instead.
func loadInstalledFixture(path string) (state.Snapshot, error) {
	snap := state.Snapshot{Installed: state.Installed{}, Essential: state.Essential{}}
	if path == "" {
		return snap, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("opening installed fixture %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return state.Snapshot{}, fmt.Errorf("%s:%d: expected \"name version [essential]\"", path, lineNo)
		}
		v, err := version.Parse(fields[1])
		if err != nil {
			return state.Snapshot{}, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		snap.Installed[fields[0]] = v
		if len(fields) >= 3 && fields[2] == "essential" {
			snap.Essential[fields[0]] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return state.Snapshot{}, fmt.Errorf("reading installed fixture %s: %w", path, err)
	}
	return snap, nil
}
