package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/operator-framework/deppy/internal/concurrency"
	"github.com/operator-framework/deppy/internal/errs"
	"github.com/operator-framework/deppy/internal/log"
)

// Fetcher retrieves repository metadata and package files over HTTP,
// retrying transient failures with exponential backoff.
type Fetcher struct {
	Client     *http.Client
	MaxRetries int
	Backoff    time.Duration // base delay; doubled per retry
}

func (f Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f Fetcher) maxRetries() int {
	if f.MaxRetries > 0 {
		return f.MaxRetries
	}
	return 3
}

func (f Fetcher) backoff() time.Duration {
	if f.Backoff > 0 {
		return f.Backoff
	}
	return 200 * time.Millisecond
}

// Fetch retrieves url's body, retrying up to MaxRetries times on a
// transport error or a 5xx response, waiting Backoff*2^attempt between
// tries. A 4xx response is not retried — it indicates the URL itself is
// wrong, not a transient condition.
func (f Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	delay := f.backoff()

	for attempt := 0; attempt <= f.maxRetries(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", errs.ErrCancelled, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err := concurrency.Signal(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := f.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, lastErr
		}
		log.WithField("url", url).WithField("attempt", attempt).Warn("metadata fetch failed, retrying")
	}
	return nil, fmt.Errorf("%w: %s: exhausted retries: %v", errs.ErrNetwork, url, lastErr)
}

func (f Fetcher) attempt(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request for %s: %v", errs.ErrNetwork, url, err)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", errs.ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("%w: %s: server error %s", errs.ErrNetwork, url, resp.Status)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("%w: %s: %s", errs.ErrNetwork, url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading %s: %v", errs.ErrNetwork, url, err)
	}
	return body, false, nil
}

// VerifyIntegrity checks body's SHA256 digest against the hex digest
// recorded for path in a verified Release file, per spec.md's integrity
// requirement that every fetched Packages file be checked against the
// signed index before being parsed.
func VerifyIntegrity(path string, body []byte, release ReleaseFile) error {
	want, ok := release.SHA256[path]
	if !ok {
		return fmt.Errorf("%w: %s: no recorded digest in Release", errs.ErrIntegrity, path)
	}
	sum := sha256.Sum256(body)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: %s: digest mismatch (want %s, got %s)", errs.ErrIntegrity, path, want, got)
	}
	return nil
}
