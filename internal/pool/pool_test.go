package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func TestLookupOrderedDescendingByVersion(t *testing.T) {
	units := []*pool.Unit{
		{ID: "x=1.0/amd64", Name: "x", Version: mustVersion(t, "1.0"), Arch: "amd64"},
		{ID: "x=2.0/amd64", Name: "x", Version: mustVersion(t, "2.0"), Arch: "amd64"},
		{ID: "x=1.5/amd64", Name: "x", Version: mustVersion(t, "1.5"), Arch: "amd64"},
	}
	p := pool.New(units)

	got := p.Lookup("x")
	require.Len(t, got, 3)
	assert.Equal(t, "2.0", got[0].Version.String())
	assert.Equal(t, "1.5", got[1].Version.String())
	assert.Equal(t, "1.0", got[2].Version.String())
}

func TestResolveAtomRange(t *testing.T) {
	units := []*pool.Unit{
		{ID: "x=1.0/amd64", Name: "x", Version: mustVersion(t, "1.0"), Arch: "amd64"},
		{ID: "x=1.5/amd64", Name: "x", Version: mustVersion(t, "1.5"), Arch: "amd64"},
		{ID: "x=2.0/amd64", Name: "x", Version: mustVersion(t, "2.0"), Arch: "amd64"},
	}
	p := pool.New(units)

	r, err := version.ParseRange([]version.Atom{
		{Op: version.OpGE, Version: mustVersion(t, "1.0")},
		{Op: version.OpLL, Version: mustVersion(t, "2.0")},
	})
	require.NoError(t, err)

	got := p.ResolveAtom(pool.Atom{Name: "x", Range: r})
	var ids []string
	for _, u := range got {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{"x=1.0/amd64", "x=1.5/amd64"}, ids)
}

func TestResolveAtomUnknownNameIsEmptyNotError(t *testing.T) {
	p := pool.New(nil)
	got := p.ResolveAtom(pool.Atom{Name: "missing"})
	assert.Empty(t, got)
}

func TestResolveAtomThroughProvides(t *testing.T) {
	units := []*pool.Unit{
		{
			ID: "real=1.0/amd64", Name: "real", Version: mustVersion(t, "1.0"), Arch: "amd64",
			Relations: []pool.Relation{{Kind: pool.Provides, Atoms: []pool.Atom{{Name: "virtual"}}}},
		},
	}
	p := pool.New(units)
	got := p.ResolveAtom(pool.Atom{Name: "virtual"})
	require.Len(t, got, 1)
	assert.Equal(t, "real=1.0/amd64", got[0].ID)
}

func TestUnitByFile(t *testing.T) {
	units := []*pool.Unit{
		{ID: "x=1.0/amd64", Name: "x", Version: mustVersion(t, "1.0"), Arch: "amd64", Files: []string{"/usr/bin/x"}},
	}
	p := pool.New(units)
	u := p.UnitByFile("/usr/bin/x")
	require.NotNil(t, u)
	assert.Equal(t, "x=1.0/amd64", u.ID)
	assert.Nil(t, p.UnitByFile("/usr/bin/missing"))
}
