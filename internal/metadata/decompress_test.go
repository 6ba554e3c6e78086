package metadata_test

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/operator-framework/deppy/internal/metadata"
)

func TestDecompressGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte("Package: x\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := metadata.Decompress("Packages.gz", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Package: x\n", string(got))
}

func TestDecompressXz(t *testing.T) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("Package: y\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := metadata.Decompress("Packages.xz", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Package: y\n", string(got))
}

func TestDecompressUncompressedPassesThrough(t *testing.T) {
	got, err := metadata.Decompress("Packages", []byte("Package: z\n"))
	require.NoError(t, err)
	assert.Equal(t, "Package: z\n", string(got))
}

func TestDecompressCorruptXzIsIntegrityError(t *testing.T) {
	_, err := metadata.Decompress("Packages.xz", []byte("not xz data"))
	require.Error(t, err)
}
