// Package config loads the repo list spec.md §6 takes as an external
// input: a TOML file naming each repository's base URL, suites,
// components, and trusted key paths. Config loading itself is named out
// of core scope in spec.md §1, so this stays thin — a struct and a Load
// function, no validation beyond what's needed to build a metadata.Repo.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// RepoConfig describes one Debian-family repository to fetch metadata
// from.
type RepoConfig struct {
	Name            string   `toml:"name"`
	BaseURL         string   `toml:"base_url"`
	Suite           string   `toml:"suite"`
	Components      []string `toml:"components"`
	Architectures   []string `toml:"architectures"`
	TrustedKeyPaths []string `toml:"trusted_key_paths"`
}

// File is the top-level shape of a repo config TOML document: a flat
// list of repositories plus the on-disk cache root they share.
type File struct {
	CacheRoot string       `toml:"cache_root"`
	Repos     []RepoConfig `toml:"repo"`
}

// Load parses a repo config file at path. A repository missing a
// trusted_key_paths entry is accepted here (Load performs no signature
// policy checks); internal/metadata.VerifyRelease rejects it at fetch
// time instead, keeping this package free of metadata-pipeline concerns.
func Load(path string) (File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, fmt.Errorf("load repo config %s: %w", path, err)
	}
	for i, r := range f.Repos {
		if r.Name == "" {
			return File{}, fmt.Errorf("repo config %s: repo %d missing name", path, i)
		}
		if r.BaseURL == "" {
			return File{}, fmt.Errorf("repo config %s: repo %q missing base_url", path, r.Name)
		}
	}
	return f, nil
}
