// Package secrets seals organization secrets for the GitHub Actions secret
// API.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/box"
)

const keySize = 32

// Sealer encrypts a plaintext with the organization's public key using an
// anonymous sealed box. The output can only be opened by the holder of the
// matching private key.
type Sealer struct {
	// Rand defaults to crypto/rand.
	Rand io.Reader
}

// Seal returns the sealed box for plaintext, base64 encoded. publicKey is the
// base64 encoded key returned by the VCS host.
func (s *Sealer) Seal(plaintext string, publicKey string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", errors.Wrap(err, "decoding public key")
	}
	if len(decoded) != keySize {
		return "", errors.Errorf("public key must be %d bytes, got %d", keySize, len(decoded))
	}

	var recipient [keySize]byte
	copy(recipient[:], decoded)

	sealed, err := box.SealAnonymous(nil, []byte(plaintext), &recipient, s.random())
	if err != nil {
		return "", errors.Wrap(err, "sealing secret")
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) random() io.Reader {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.Reader
}
