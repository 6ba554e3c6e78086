package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/operator-framework/deppy/internal/blueprint"
	"github.com/operator-framework/deppy/internal/config"
	"github.com/operator-framework/deppy/internal/metadata"
	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/resolver"
	"github.com/operator-framework/deppy/internal/state"
)

// loaded bundles the inputs every subcommand needs, assembled once from
// the root command's --config/--blueprint/--installed flags.
type loaded struct {
	pool     *pool.Pool
	requests map[string]blueprint.Request
	snap     state.Snapshot
	flags    resolver.Flags
}

func loadInputs(cmd *cobra.Command) (*loaded, error) {
	configPath, _ := cmd.Flags().GetString("config")
	blueprintPath, _ := cmd.Flags().GetString("blueprint")
	installedPath, _ := cmd.Flags().GetString("installed")
	noRecommends, _ := cmd.Flags().GetBool("no-recommends")
	allowRemoveEssential, _ := cmd.Flags().GetBool("allow-remove-essential")

	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	if blueprintPath == "" {
		return nil, fmt.Errorf("--blueprint is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	p, err := buildPool(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(blueprintPath)
	if err != nil {
		return nil, fmt.Errorf("opening blueprint %s: %w", blueprintPath, err)
	}
	defer f.Close()
	reqs, err := blueprint.Parse(f, blueprintPath, nil)
	if err != nil {
		return nil, err
	}
	merged, err := blueprint.Merge(reqs)
	if err != nil {
		return nil, err
	}

	snap, err := loadInstalledFixture(installedPath)
	if err != nil {
		return nil, err
	}

	return &loaded{
		pool:     p,
		requests: merged,
		snap:     snap,
		flags: resolver.Flags{
			NoRecommends:         noRecommends,
			AllowRemoveEssential: allowRemoveEssential,
		},
	}, nil
}

// buildPool fetches every configured repo's metadata and indexes the
// result into a single Pool, the way a real caller would before handing
// it to the resolver.
func buildPool(ctx context.Context, cfg config.File) (*pool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	pipeline := metadata.Pipeline{
		Fetcher:  metadata.Fetcher{MaxRetries: 3, Backoff: 500 * time.Millisecond},
		Cache:    metadata.NewDiskCache(cfg.CacheRoot),
		Inflight: 4,
	}
	if err := pipeline.Cache.Lock(); err != nil {
		return nil, err
	}
	defer pipeline.Cache.Unlock()

	var units []*pool.Unit
	for _, repo := range cfg.Repos {
		repoUnits, err := pipeline.LoadRepo(ctx, repo)
		if err != nil {
			return nil, fmt.Errorf("loading repo %s: %w", repo.Name, err)
		}
		units = append(units, repoUnits...)
	}
	return pool.New(units), nil
}
