package metadata_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/deppy/internal/metadata"
)

// signedRelease clear-signs body with a freshly generated test key and
// returns the signed message bytes plus the path to its armored public
// key, so tests can exercise KeyRing+VerifyRelease the same way a real
// repo's InRelease + trusted_key_paths would be consumed.
func signedRelease(t *testing.T, body string) ([]byte, string) {
	t.Helper()
	entity, err := openpgp.NewEntity("test repo", "", "repo@example.test", &packet.Config{RSABits: 1024})
	require.NoError(t, err)

	var signed bytes.Buffer
	w, err := clearsign.Encode(&signed, entity.PrivateKey, nil, nil)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var keyBuf bytes.Buffer
	aw, err := armor.Encode(&keyBuf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(aw))
	require.NoError(t, aw.Close())

	keyPath := filepath.Join(t.TempDir(), "trusted.asc")
	require.NoError(t, os.WriteFile(keyPath, keyBuf.Bytes(), 0o644))

	return signed.Bytes(), keyPath
}

func TestVerifyReleaseValidSignature(t *testing.T) {
	raw, keyPath := signedRelease(t, "Suite: stable\n")
	ring, err := metadata.KeyRing([]string{keyPath})
	require.NoError(t, err)

	plaintext, err := metadata.VerifyRelease(raw, ring)
	require.NoError(t, err)
	assert.Contains(t, string(plaintext), "Suite: stable")
}

func TestVerifyReleaseUntrustedKeyIsSignatureError(t *testing.T) {
	raw, _ := signedRelease(t, "Suite: stable\n")
	_, otherKeyPath := signedRelease(t, "Suite: other\n")

	ring, err := metadata.KeyRing([]string{otherKeyPath})
	require.NoError(t, err)

	_, err = metadata.VerifyRelease(raw, ring)
	require.Error(t, err)
}

func TestVerifyReleaseNoTrustedKeysIsError(t *testing.T) {
	raw, _ := signedRelease(t, "Suite: stable\n")
	_, err := metadata.VerifyRelease(raw, nil)
	require.Error(t, err)
}

func TestVerifyReleaseNotClearSignedIsError(t *testing.T) {
	_, keyPath := signedRelease(t, "Suite: stable\n")
	ring, err := metadata.KeyRing([]string{keyPath})
	require.NoError(t, err)

	_, err = metadata.VerifyRelease([]byte("plain text, not signed"), ring)
	require.Error(t, err)
}

func TestKeyRingMissingFileIsError(t *testing.T) {
	_, err := metadata.KeyRing([]string{"/nonexistent/key.asc"})
	require.Error(t, err)
}
