package metadata

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/operator-framework/deppy/internal/concurrency"
	"github.com/operator-framework/deppy/internal/config"
	"github.com/operator-framework/deppy/internal/errs"
	"github.com/operator-framework/deppy/internal/pool"
)

// Pipeline ties fetch, signature verification, decompression, caching and
// parsing together into the single operation spec.md §4.B describes:
// given a repo config, produce every Unit that repo currently advertises.
type Pipeline struct {
	Fetcher  Fetcher
	Cache    *DiskCache
	Inflight int64 // max concurrent downloads per repo, via concurrency.Scheduler
}

// LoadRepo fetches repo's InRelease, verifies it against repo's trusted
// keys, then fetches and parses every component/architecture's Packages
// file the Release stanza names, in parallel bounded by p.Inflight.
func (p Pipeline) LoadRepo(ctx context.Context, repo config.RepoConfig) ([]*pool.Unit, error) {
	ring, err := KeyRing(repo.TrustedKeyPaths)
	if err != nil {
		return nil, err
	}

	releaseURL := repo.BaseURL + "/dists/" + repo.Suite + "/InRelease"
	raw, err := p.Fetcher.Fetch(ctx, releaseURL)
	if err != nil {
		return nil, err
	}
	verified, err := VerifyRelease(raw, ring)
	if err != nil {
		return nil, err
	}
	release, err := ParseRelease(bytes.NewReader(verified))
	if err != nil {
		return nil, err
	}

	type target struct {
		component, arch, relPath string
	}
	var targets []target
	for _, component := range repo.Components {
		for _, arch := range repo.Architectures {
			for _, ext := range []string{".xz", ".gz", ""} {
				relPath := path.Join(component, "binary-"+arch, "Packages"+ext)
				if _, ok := release.SHA256[relPath]; ok {
					targets = append(targets, target{component, arch, relPath})
					break
				}
			}
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s: no Packages entries for configured components/architectures", errs.ErrParse, repo.Name)
	}

	results := make([][]*pool.Unit, len(targets))
	sched := concurrency.Scheduler{Limit: p.Inflight}
	err = sched.Run(ctx, len(targets), func(ctx context.Context, i int) error {
		t := targets[i]
		url := repo.BaseURL + "/dists/" + repo.Suite + "/" + t.relPath
		body, err := p.Fetcher.Fetch(ctx, url)
		if err != nil {
			return err
		}
		if err := VerifyIntegrity(t.relPath, body, release); err != nil {
			return err
		}

		digest := release.SHA256[t.relPath]
		if p.Cache != nil {
			if _, err := p.Cache.Store(repo.Name, repo.Suite, t.component, t.arch, "Packages", digest, body); err != nil {
				return err
			}
		}

		plain, err := Decompress(t.relPath, body)
		if err != nil {
			return err
		}
		units, err := ParsePackages(bytes.NewReader(plain), pool.Origin{Repo: repo.Name, Component: t.component})
		if err != nil {
			return err
		}
		results[i] = units
		return nil
	})
	if err != nil {
		return nil, err
	}

	var all []*pool.Unit
	for _, units := range results {
		all = append(all, units...)
	}
	return all, nil
}
