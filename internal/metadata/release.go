package metadata

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"

	"github.com/operator-framework/deppy/internal/errs"
)

// KeyRing loads the trusted public keys listed in a repo config's
// trusted_key_paths, each an ASCII-armored public key file.
func KeyRing(paths []string) (openpgp.EntityList, error) {
	var ring openpgp.EntityList
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: open trusted key %s: %v", errs.ErrSignature, path, err)
		}
		entities, err := openpgp.ReadArmoredKeyRing(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: parse trusted key %s: %v", errs.ErrSignature, path, err)
		}
		ring = append(ring, entities...)
	}
	return ring, nil
}

// VerifyRelease checks an InRelease file's clear-signature against ring,
// returning the verified plaintext body (the Release stanza spec.md §4.B
// parses next) on success. No key in ring validating the signature is
// errs.ErrSignature, never a partial/"best effort" pass.
func VerifyRelease(raw []byte, ring openpgp.EntityList) ([]byte, error) {
	block, _ := clearsign.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%w: InRelease is not a clear-signed message", errs.ErrSignature)
	}
	if len(ring) == 0 {
		return nil, fmt.Errorf("%w: no trusted keys configured", errs.ErrSignature)
	}

	_, err := openpgp.CheckDetachedSignature(ring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSignature, err)
	}
	return block.Plaintext, nil
}
