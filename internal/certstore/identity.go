package certstore

import (
	"crypto/rand"
	"math/big"
)

// exportPasswordLength is the length of the generated single-use export passphrase.
const exportPasswordLength = 16

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Identity is the ephemeral TLS client identity produced for one distribution query.
//
// The PKCS#12 bundle and its passphrase are owned exclusively by the invocation
// that created them: they are consumed by the transport client and must be
// scrubbed immediately afterwards, on every exit path. Neither field may be
// written to persistent storage or logged.
type Identity struct {

	// PFX is the password-protected PKCS#12 bundle (certificate + private key)
	PFX []byte

	// Password is the single-use passphrase protecting the bundle
	Password string

	// TaxID is the 14-digit tax identifier (CNPJ) extracted from the
	// certificate subject, or empty when none could be found
	TaxID string
}

// Scrub overwrites the PKCS#12 bundle with zeros and drops the passphrase.
// It is safe to call more than once.
func (id *Identity) Scrub() {
	if id == nil {
		return
	}
	for i := range id.PFX {
		id.PFX[i] = 0
	}
	id.PFX = nil
	id.Password = ""
}

// generatePassword returns a cryptographically random alphanumeric passphrase
// for the exported bundle.
func generatePassword() (string, error) {
	buf := make([]byte, exportPasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
