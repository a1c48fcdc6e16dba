// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package keystore loads and validates the per-domain master keys at
// process startup and hands out immutable AEAD cipher handles.
//
// One 32-byte master key is configured per confidentiality domain
// (environment-only, see the config package). The working key for a domain
// is derived from its master key with HKDF-SHA256 using a per-domain info
// string, so the stored master material is never used as a raw AES key and
// the two domains stay cryptographically separated even if an operator
// misconfigures both domains with the same value.
//
// A KeyStore is immutable after Load and safe for unsynchronized use from
// any number of goroutines. There is no rotation API: rotation is an
// out-of-band operational procedure.
package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/atomworks/nucrm/internal/codec"
	"github.com/atomworks/nucrm/internal/config"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/models"
)

// masterKeyLen is the required decoded length of every configured master key.
const masterKeyLen = 32

// hkdfInfoPrefix domain-separates the derived field-encryption keys from
// any future use of the same master material.
const hkdfInfoPrefix = "nucrm/field-encryption/v1/"

// KeyStore holds one validated AEAD cipher per confidentiality domain.
// Construct with [Load]; the zero value is unusable.
type KeyStore struct {
	ciphers map[models.Domain]cipher.AEAD
}

// Load decodes, derives, and self-tests the master key of every domain in
// [models.Domains]. Any missing, malformed, or self-test-failing key makes
// the whole load fail — there is no partially valid key store.
func Load(cfg config.Keys, log *logger.Logger) (*KeyStore, error) {
	ks := &KeyStore{
		ciphers: make(map[models.Domain]cipher.AEAD, len(models.Domains)),
	}

	for _, domain := range models.Domains {
		material := keyMaterial(cfg, domain)
		aead, err := buildCipher(domain, material)
		if err != nil {
			log.Err(err).
				Str("func", "keystore.Load").
				Str("domain", domain.String()).
				Msg("master key rejected")
			return nil, fmt.Errorf("domain %s: %w", domain, err)
		}

		if err := selfTest(aead); err != nil {
			log.Err(err).
				Str("func", "keystore.Load").
				Str("domain", domain.String()).
				Msg("master key failed self-test")
			return nil, fmt.Errorf("domain %s: %w", domain, err)
		}

		ks.ciphers[domain] = aead
	}

	log.Info().
		Str("func", "keystore.Load").
		Int("domains", len(ks.ciphers)).
		Msg("key store loaded and self-tested")

	return ks, nil
}

// Cipher returns the immutable AEAD handle for domain. The handle is safe
// for concurrent use. ErrUnknownDomain is returned for a domain that was
// not part of the load set.
func (ks *KeyStore) Cipher(domain models.Domain) (cipher.AEAD, error) {
	aead, ok := ks.ciphers[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return aead, nil
}

func keyMaterial(cfg config.Keys, domain models.Domain) string {
	switch domain {
	case models.DomainConfidential:
		return cfg.Confidential
	case models.DomainRestricted:
		return cfg.Restricted
	default:
		return ""
	}
}

// buildCipher decodes the base64 master key, derives the domain working
// key via HKDF-SHA256, and wraps it in AES-256-GCM.
func buildCipher(domain models.Domain, material string) (cipher.AEAD, error) {
	if material == "" {
		return nil, ErrKeyMissing
	}

	master, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64", ErrKeyMalformed)
	}
	if len(master) != masterKeyLen {
		return nil, fmt.Errorf("%w: decoded to %d bytes, want %d", ErrKeyMalformed, len(master), masterKeyLen)
	}

	derived := make([]byte, masterKeyLen)
	kdf := hkdf.New(sha256.New, master, nil, []byte(hkdfInfoPrefix+domain.String()))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("%w: key derivation failed", ErrKeyMalformed)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMalformed, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMalformed, err)
	}

	return aead, nil
}

// selfTest runs the exact codec path the engine will use in production:
// a round trip that must restore the probe value bit for bit, and a
// tamper check that must fail closed.
func selfTest(aead cipher.AEAD) error {
	probe := models.Text("keystore self-test probe")

	blob, err := codec.Encrypt(probe, aead)
	if err != nil {
		return fmt.Errorf("%w: encrypt: %v", ErrKeySelfTest, err)
	}

	got, err := codec.Decrypt(blob, aead)
	if err != nil {
		return fmt.Errorf("%w: decrypt: %v", ErrKeySelfTest, err)
	}
	if got != probe {
		return fmt.Errorf("%w: round trip mismatch", ErrKeySelfTest)
	}

	tampered := bytes.Clone(blob)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := codec.Decrypt(tampered, aead); err == nil {
		return fmt.Errorf("%w: tampered payload decrypted", ErrKeySelfTest)
	}

	return nil
}
