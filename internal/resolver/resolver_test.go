package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/deppy/internal/blueprint"
	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/resolver"
	"github.com/operator-framework/deppy/internal/state"
	"github.com/operator-framework/deppy/internal/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func unit(t *testing.T, name, ver string, relations ...pool.Relation) *pool.Unit {
	t.Helper()
	v := mustVersion(t, ver)
	return &pool.Unit{
		ID:        name + "=" + v.String() + "/amd64",
		Name:      name,
		Version:   v,
		Arch:      "amd64",
		Relations: relations,
	}
}

func depends(kind pool.RelationKind, name string) pool.Relation {
	return pool.Relation{Kind: kind, Atoms: []pool.Atom{{Name: name}}}
}

func req(name string) blueprint.Request {
	return blueprint.Request{Name: name}
}

func emptySnapshot() state.Snapshot {
	return state.Snapshot{Installed: state.Installed{}, Essential: state.Essential{}}
}

func TestResolveDirectRequest(t *testing.T) {
	p := pool.New([]*pool.Unit{unit(t, "a", "1.0-1")})

	model, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{"a": req("a")}, emptySnapshot(), resolver.Flags{})
	require.NoError(t, err)
	require.Contains(t, model.Install, "a")
	assert.Equal(t, "1.0-1", model.Install["a"].Version.String())
}

func TestResolveTransitiveDependency(t *testing.T) {
	p := pool.New([]*pool.Unit{
		unit(t, "a", "1.0-1", depends(pool.Depends, "b")),
		unit(t, "b", "1.0-1"),
	})

	model, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{"a": req("a")}, emptySnapshot(), resolver.Flags{})
	require.NoError(t, err)
	assert.Contains(t, model.Install, "a")
	assert.Contains(t, model.Install, "b")
}

func TestResolvePrefersLatestCandidate(t *testing.T) {
	p := pool.New([]*pool.Unit{
		unit(t, "a", "2.0-1"),
		unit(t, "a", "1.0-1"),
	})

	model, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{"a": req("a")}, emptySnapshot(), resolver.Flags{})
	require.NoError(t, err)
	require.Contains(t, model.Install, "a")
	assert.Equal(t, "2.0-1", model.Install["a"].Version.String())
}

func TestResolveConflictIsUnsolvable(t *testing.T) {
	p := pool.New([]*pool.Unit{
		unit(t, "a", "1.0-1", pool.Relation{Kind: pool.Conflicts, Atoms: []pool.Atom{{Name: "b"}}}),
		unit(t, "b", "1.0-1"),
	})

	_, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{
		"a": req("a"),
		"b": req("b"),
	}, emptySnapshot(), resolver.Flags{})
	require.Error(t, err)
	var unsolvable *resolver.Unsolvable
	require.ErrorAs(t, err, &unsolvable)
	assert.NotEmpty(t, unsolvable.Names)
}

func TestResolveRecommendsHonoredUnlessSuppressed(t *testing.T) {
	p := pool.New([]*pool.Unit{
		unit(t, "e", "1.0-1", depends(pool.Recommends, "f")),
		unit(t, "f", "1.0-1"),
	})

	model, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{"e": req("e")}, emptySnapshot(), resolver.Flags{})
	require.NoError(t, err)
	assert.Contains(t, model.Install, "f")

	model, err = resolver.Resolve(context.Background(), p, map[string]blueprint.Request{"e": req("e")}, emptySnapshot(), resolver.Flags{NoRecommends: true})
	require.NoError(t, err)
	assert.NotContains(t, model.Install, "f")
}

func TestResolveEssentialGuardKeepsPackageInstalled(t *testing.T) {
	p := pool.New([]*pool.Unit{unit(t, "e", "1.0-1")})
	snap := state.Snapshot{
		Installed: state.Installed{"e": mustVersion(t, "1.0-1")},
		Essential: state.Essential{"e": true},
	}

	model, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{}, snap, resolver.Flags{})
	require.NoError(t, err)
	assert.Contains(t, model.Install, "e")
	assert.Empty(t, model.Remove)
}

func TestResolveAllowRemoveEssentialDropsUnneededPackage(t *testing.T) {
	p := pool.New([]*pool.Unit{unit(t, "e", "1.0-1")})
	snap := state.Snapshot{
		Installed: state.Installed{"e": mustVersion(t, "1.0-1")},
		Essential: state.Essential{"e": true},
	}

	model, err := resolver.Resolve(context.Background(), p, map[string]blueprint.Request{}, snap, resolver.Flags{AllowRemoveEssential: true})
	require.NoError(t, err)
	assert.NotContains(t, model.Install, "e")
	assert.Contains(t, model.Remove, "e")
}

func TestResolveAddedByOnlyBindsWhenParentSelected(t *testing.T) {
	p := pool.New([]*pool.Unit{
		unit(t, "parent", "1.0-1"),
		unit(t, "other", "1.0-1"),
		unit(t, "child", "1.0-1"),
	})
	requests := map[string]blueprint.Request{
		"parent": req("parent"),
		"child":  {Name: "child", AddedBy: "other"},
	}

	model, err := resolver.Resolve(context.Background(), p, requests, emptySnapshot(), resolver.Flags{})
	require.NoError(t, err)
	assert.Contains(t, model.Install, "parent")
	assert.NotContains(t, model.Install, "child")
}
