// Package certstore locates installed client certificates and produces
// ephemeral, password-protected PKCS#12 identity bundles for mutual TLS.
//
// The platform certificate store is abstracted behind the Store capability
// interface so the query pipeline stays platform-agnostic. This package ships
// a portable PEM-directory backend; an OS-native backend (e.g. the Windows
// "MY" store) can be plugged in by implementing the same interface.
//
// The store is strictly read-only: nothing in this package modifies or
// deletes certificates.
package certstore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// Entry is one certificate held by a store, with access to the subject fields
// needed for tax-id extraction and to the PKCS#12 export capability.
type Entry interface {

	// Fingerprint returns the canonical SHA-1 fingerprint, upper-case hex
	// bytes joined by colons.
	Fingerprint() string

	// DisplayName returns the simple display name (the subject common name).
	DisplayName() string

	// Subject returns the full distinguished name.
	Subject() string

	// ExportPKCS12 builds a password-protected PKCS#12 bundle containing the
	// certificate and its private key.
	ExportPKCS12(password string) ([]byte, error)
}

// Store is the capability interface over a platform certificate store.
type Store interface {

	// FindByFingerprint returns the entry matching the fingerprint.
	// The lookup is case-insensitive and tolerates missing colon separators.
	FindByFingerprint(fingerprint string) (Entry, error)
}

// AcquireIdentity looks up the certificate by fingerprint and produces a fresh
// ephemeral identity: an exportable PKCS#12 bundle protected by a random
// single-use passphrase, plus the tax identifier extracted from the subject.
//
// The caller owns the returned identity and must Scrub it after the transport
// exchange, on every exit path.
func AcquireIdentity(store Store, fingerprint string) (*Identity, error) {
	entry, err := store.FindByFingerprint(fingerprint)
	if err != nil {
		return nil, err
	}

	password, err := generatePassword()
	if err != nil {
		return nil, WrapExportError(err, "failed to generate export passphrase")
	}

	pfx, err := entry.ExportPKCS12(password)
	if err != nil {
		return nil, err
	}

	return &Identity{
		PFX:      pfx,
		Password: password,
		TaxID:    taxIDFromSubject(entry.DisplayName(), entry.Subject()),
	}, nil
}

// FileStore is a certificate store backed by a directory of PEM files, one
// certificate (plus, normally, its private key) per file.
type FileStore struct {
	dir string
}

// NewFileStore creates a store over the given directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// FindByFingerprint scans the store directory for a certificate whose SHA-1
// fingerprint matches. Comparison is case-insensitive and ignores colons.
func (s *FileStore) FindByFingerprint(fingerprint string) (Entry, error) {
	want := normalizeFingerprint(fingerprint)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, WrapStoreUnavailableError(err, fmt.Sprintf("failed to open certificate store %s", s.dir))
	}

	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".pem") {
			continue
		}
		fe, err := s.loadFile(filepath.Join(s.dir, de.Name()))
		if err != nil {
			// unreadable or malformed files do not fail the lookup
			continue
		}
		if normalizeFingerprint(fe.Fingerprint()) == want {
			return fe, nil
		}
	}

	return nil, NewNotFoundError(fmt.Sprintf("no certificate matches fingerprint %s", fingerprint))
}

func (s *FileStore) loadFile(path string) (*fileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entry := &fileEntry{path: path}
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			if entry.cert != nil {
				continue // first certificate in the file is the leaf
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, err
			}
			entry.cert = cert
		case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
			key, err := parsePrivateKey(block)
			if err != nil {
				return nil, err
			}
			entry.key = key
		}
	}

	if entry.cert == nil {
		return nil, fmt.Errorf("%s: no certificate block", path)
	}
	return entry, nil
}

func parsePrivateKey(block *pem.Block) (crypto.PrivateKey, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return x509.ParsePKCS8PrivateKey(block.Bytes)
	}
}

// normalizeFingerprint strips colons and whitespace and upper-cases the hex form.
func normalizeFingerprint(fp string) string {
	fp = strings.ReplaceAll(fp, ":", "")
	fp = strings.ReplaceAll(fp, " ", "")
	return strings.ToUpper(fp)
}

// fileEntry is a certificate loaded from one PEM file.
type fileEntry struct {
	path string
	cert *x509.Certificate
	key  crypto.PrivateKey
}

func (e *fileEntry) Fingerprint() string {
	sum := sha1.Sum(e.cert.Raw)
	hexSum := strings.ToUpper(hex.EncodeToString(sum[:]))
	parts := make([]string, 0, len(sum))
	for i := 0; i < len(hexSum); i += 2 {
		parts = append(parts, hexSum[i:i+2])
	}
	return strings.Join(parts, ":")
}

func (e *fileEntry) DisplayName() string { return e.cert.Subject.CommonName }

func (e *fileEntry) Subject() string { return e.cert.Subject.String() }

// ExportPKCS12 bundles the certificate and private key under the given
// passphrase. A file holding only a certificate has no exportable key and is
// reported distinctly: such a certificate can never authenticate a query.
func (e *fileEntry) ExportPKCS12(password string) ([]byte, error) {
	if e.key == nil {
		return nil, NewKeyNotExportableError(
			fmt.Sprintf("certificate %s has no exportable private key", filepath.Base(e.path)))
	}

	// sanity check that the key pairs with the certificate public key
	if !keyMatchesCertificate(e.key, e.cert) {
		return nil, WrapExportError(
			fmt.Errorf("private key does not match certificate public key"),
			fmt.Sprintf("failed to export %s", filepath.Base(e.path)))
	}

	pfx, err := pkcs12.Modern.Encode(e.key, e.cert, nil, password)
	if err != nil {
		return nil, WrapExportError(err, "failed to build PKCS#12 bundle")
	}
	return pfx, nil
}

func keyMatchesCertificate(key crypto.PrivateKey, cert *x509.Certificate) bool {
	type publicKeyer interface {
		Public() crypto.PublicKey
	}
	pk, ok := key.(publicKeyer)
	if !ok {
		return false
	}
	switch pub := pk.Public().(type) {
	case *rsa.PublicKey:
		certPub, ok := cert.PublicKey.(*rsa.PublicKey)
		return ok && pub.Equal(certPub)
	case *ecdsa.PublicKey:
		certPub, ok := cert.PublicKey.(*ecdsa.PublicKey)
		return ok && pub.Equal(certPub)
	default:
		return false
	}
}
