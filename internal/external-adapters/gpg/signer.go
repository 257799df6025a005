// Package gpg provides detached OpenPGP signatures over signature records.
package gpg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armorHeader = "-----BEGIN PGP SIGNATURE---"

// Signer signs and verifies record files using ProtonMail's go-crypto,
// a maintained fork of golang.org/x/crypto/openpgp
type Signer struct {
	keyring openpgp.EntityList
}

// NewSigner creates a signer with an empty keyring
func NewSigner() *Signer {
	return &Signer{keyring: make(openpgp.EntityList, 0)}
}

// ImportKeyFromFile imports an armored or binary key (public or private)
func (s *Signer) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath comes from cfbuild.yaml
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	return s.ImportKey(data)
}

// ImportKey imports key material from memory
func (s *Signer) ImportKey(data []byte) error {
	keys, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keys, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(keys) == 0 {
		return fmt.Errorf("no keys found")
	}

	s.keyring = append(s.keyring, keys...)
	return nil
}

// Sign returns an armored detached signature over data
func (s *Signer) Sign(data []byte) ([]byte, error) {
	entity, err := s.signingEntity()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, entity, bytes.NewReader(data), nil); err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return buf.Bytes(), nil
}

// CheckSigningKey reports whether an unprotected private key is available
func (s *Signer) CheckSigningKey() error {
	_, err := s.signingEntity()
	return err
}

// VerifyFile checks a detached signature, armored or binary, over path
func (s *Signer) VerifyFile(path, sigPath string) error {
	if len(s.keyring) == 0 {
		return fmt.Errorf("no OpenPGP keys imported")
	}

	//nolint:gosec // G304: sigPath sits beside the record
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}

	//nolint:gosec // G304: path is a record in the project
	dataFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	if _, err := s.check(dataFile, sigData); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// KeyringSize returns the number of imported keys
func (s *Signer) KeyringSize() int {
	return len(s.keyring)
}

func (s *Signer) check(data io.Reader, sig []byte) (*openpgp.Entity, error) {
	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte(armorHeader)) {
		return openpgp.CheckArmoredDetachedSignature(s.keyring, data, bytes.NewReader(sig), nil)
	}
	return openpgp.CheckDetachedSignature(s.keyring, data, bytes.NewReader(sig), nil)
}

func (s *Signer) signingEntity() (*openpgp.Entity, error) {
	encrypted := false
	for _, e := range s.keyring {
		if e.PrivateKey == nil {
			continue
		}
		if e.PrivateKey.Encrypted {
			encrypted = true
			continue
		}
		return e, nil
	}
	if encrypted {
		return nil, errors.New("private key is passphrase protected; export an unprotected signing key")
	}
	return nil, errors.New("no private key imported")
}
