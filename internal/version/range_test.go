package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/deppy/internal/version"
)

func atom(op version.Op, v string, t *testing.T) version.Atom {
	t.Helper()
	return version.Atom{Op: op, Version: mustParse(t, v)}
}

func TestParseRange(t *testing.T) {
	t.Run("lower and upper", func(t *testing.T) {
		r, err := version.ParseRange([]version.Atom{
			atom(version.OpGE, "1.0", t),
			atom(version.OpLL, "2.0", t),
		})
		require.NoError(t, err)
		assert.True(t, r.Contains(mustParse(t, "1.0")))
		assert.True(t, r.Contains(mustParse(t, "1.5")))
		assert.False(t, r.Contains(mustParse(t, "2.0")))
		assert.False(t, r.Contains(mustParse(t, "0.9")))
	})

	t.Run("S4 fixture: >=1.0, <<2.0 over x=1.0,1.5,2.0", func(t *testing.T) {
		r, err := version.ParseRange([]version.Atom{
			atom(version.OpGE, "1.0", t),
			atom(version.OpLL, "2.0", t),
		})
		require.NoError(t, err)
		assert.True(t, r.Contains(mustParse(t, "1.0")))
		assert.True(t, r.Contains(mustParse(t, "1.5")))
		assert.False(t, r.Contains(mustParse(t, "2.0")))
	})

	t.Run("contradictory: disjoint bounds", func(t *testing.T) {
		_, err := version.ParseRange([]version.Atom{
			atom(version.OpGE, "2.0", t),
			atom(version.OpLL, "1.0", t),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, version.ErrContradictoryRange)
	})

	t.Run("contradictory: exclusive bounds meet", func(t *testing.T) {
		_, err := version.ParseRange([]version.Atom{
			atom(version.OpGG, "1.0", t),
			atom(version.OpLE, "1.0", t),
		})
		require.Error(t, err)
	})

	t.Run("contradictory: conflicting equals", func(t *testing.T) {
		_, err := version.ParseRange([]version.Atom{
			atom(version.OpEQ, "1.0", t),
			atom(version.OpEQ, "1.1", t),
		})
		require.Error(t, err)
	})

	t.Run("equal outside bound is contradictory", func(t *testing.T) {
		_, err := version.ParseRange([]version.Atom{
			atom(version.OpEQ, "1.0", t),
			atom(version.OpGE, "1.1", t),
		})
		require.Error(t, err)
	})

	t.Run("tightest lower bound wins, strict dominates at equal value", func(t *testing.T) {
		r, err := version.ParseRange([]version.Atom{
			atom(version.OpGE, "1.0", t),
			atom(version.OpGG, "1.0", t),
		})
		require.NoError(t, err)
		assert.False(t, r.Contains(mustParse(t, "1.0")))
		assert.True(t, r.Contains(mustParse(t, "1.1")))
	})

	t.Run("unconstrained", func(t *testing.T) {
		r, err := version.ParseRange(nil)
		require.NoError(t, err)
		assert.True(t, r.IsUnconstrained())
		assert.True(t, r.Contains(mustParse(t, "99.0")))
	})
}

// Soundness: Contains over the intersection equals AND of Contains per atom,
// for every atom individually re-checked against a set of candidate versions.
func TestRangeIntersectionSoundness(t *testing.T) {
	atoms := []version.Atom{
		atom(version.OpGE, "1.0", t),
		atom(version.OpLE, "3.0", t),
		atom(version.OpLL, "2.5", t),
	}
	r, err := version.ParseRange(atoms)
	require.NoError(t, err)

	candidates := []string{"0.5", "1.0", "1.5", "2.0", "2.5", "3.0", "3.5"}
	for _, c := range candidates {
		v := mustParse(t, c)
		want := true
		for _, a := range atoms {
			want = want && evalAtom(a, v)
		}
		assert.Equal(t, want, r.Contains(v), "version %s", c)
	}
}

func evalAtom(a version.Atom, v version.Version) bool {
	switch a.Op {
	case version.OpLL:
		return version.Compare(v, a.Version) == version.Less
	case version.OpLE:
		c := version.Compare(v, a.Version)
		return c == version.Less || c == version.Equal
	case version.OpEQ:
		return version.Compare(v, a.Version) == version.Equal
	case version.OpGE:
		c := version.Compare(v, a.Version)
		return c == version.Greater || c == version.Equal
	case version.OpGG:
		return version.Compare(v, a.Version) == version.Greater
	}
	return false
}
