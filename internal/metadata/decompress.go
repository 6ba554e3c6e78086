package metadata

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/operator-framework/deppy/internal/errs"
)

// Decompress decompresses a metadata file's body, choosing the codec from
// path's suffix in the fixed order spec.md mandates: .xz, then .gz, then
// uncompressed. Grounded on other_examples/thepwagner-debcache__repo.go's
// Compression type, which pairs ulikunitz/xz with stdlib gzip the same
// way.
func Decompress(path string, body []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(path, ".xz"):
		r, err := xz.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %v", errs.ErrIntegrity, err)
		}
		return readAll(r)
	case strings.HasSuffix(path, ".gz"):
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", errs.ErrIntegrity, err)
		}
		defer r.Close()
		return readAll(r)
	default:
		return body, nil
	}
}

func readAll(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIntegrity, err)
	}
	return out, nil
}
