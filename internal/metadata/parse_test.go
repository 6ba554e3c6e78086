package metadata_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/deppy/internal/metadata"
	"github.com/operator-framework/deppy/internal/pool"
)

const samplePackages = `Package: nginx
Version: 1:1.18.0-6ubuntu1
Architecture: amd64
Priority: optional
Essential: no
Size: 123456
SHA256: abc123
Filename: pool/main/n/nginx/nginx_1.18.0-6ubuntu1_amd64.deb
Depends: libc6 (>= 2.31), libssl3 | libssl1.1
Pre-Depends: dpkg (>= 1.19.3)
Recommends: nginx-common
Conflicts: apache2
Provides: httpd

Package: dpkg
Version: 1.19.7ubuntu3
Architecture: amd64
Essential: yes
`

func TestParsePackagesParsesFieldsAndRelations(t *testing.T) {
	origin := pool.Origin{Repo: "main", Component: "main"}
	units, err := metadata.ParsePackages(strings.NewReader(samplePackages), origin)
	require.NoError(t, err)
	require.Len(t, units, 2)

	nginx := units[0]
	assert.Equal(t, "nginx", nginx.Name)
	assert.Equal(t, "1:1.18.0-6ubuntu1", nginx.Version.String())
	assert.EqualValues(t, 123456, nginx.Size)
	assert.False(t, nginx.Essential)
	assert.Equal(t, origin, nginx.Origin)
	assert.Contains(t, nginx.ProvidedBy, "httpd")

	var kinds []pool.RelationKind
	for _, r := range nginx.Relations {
		kinds = append(kinds, r.Kind)
	}
	assert.Contains(t, kinds, pool.Depends)
	assert.Contains(t, kinds, pool.PreDepends)
	assert.Contains(t, kinds, pool.Recommends)
	assert.Contains(t, kinds, pool.Conflicts)
	assert.Contains(t, kinds, pool.Provides)

	var depends []pool.Relation
	for _, r := range nginx.Relations {
		if r.Kind == pool.Depends {
			depends = append(depends, r)
		}
	}
	require.Len(t, depends, 2)
	assert.Equal(t, "libc6", depends[0].Atoms[0].Name)
	assert.False(t, depends[0].Atoms[0].Range.IsUnconstrained())
	require.Len(t, depends[1].Atoms, 2)

	dpkg := units[1]
	assert.True(t, dpkg.Essential)
}

func TestParsePackagesMissingPackageFieldIsError(t *testing.T) {
	_, err := metadata.ParsePackages(strings.NewReader("Version: 1.0\n"), pool.Origin{})
	require.Error(t, err)
}

func TestParsePackagesBadVersionIsError(t *testing.T) {
	_, err := metadata.ParsePackages(strings.NewReader("Package: x\nVersion: not-a-version\n"), pool.Origin{})
	require.Error(t, err)
}

const sampleRelease = `Suite: stable
Codename: bookworm
SHA256:
 abcdef0123456789 1234 main/binary-amd64/Packages.xz
 fedcba9876543210 5678 contrib/binary-amd64/Packages.gz
`

func TestParseReleaseExtractsSuiteAndDigests(t *testing.T) {
	rf, err := metadata.ParseRelease(strings.NewReader(sampleRelease))
	require.NoError(t, err)
	assert.Equal(t, "stable", rf.Suite)
	assert.Equal(t, "bookworm", rf.Codename)
	assert.Equal(t, "abcdef0123456789", rf.SHA256["main/binary-amd64/Packages.xz"])
	assert.Equal(t, "fedcba9876543210", rf.SHA256["contrib/binary-amd64/Packages.gz"])
}
