// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// MinPasswordLength is the shortest password Hash will accept.
const MinPasswordLength = 8

// PasswordHasher derives and verifies salted password digests.
type PasswordHasher interface {
	// Hash produces an argon2id digest of the password together with the
	// fresh random salt used to derive it. Both are base64-encoded
	// (RawStdEncoding). Two calls on the same password return different
	// (hash, salt) pairs.
	Hash(password string) (hash, salt string, err error)

	// Verify checks the password against a stored digest and its salt.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// when the stored values cannot be decoded.
	Verify(password, hash, salt string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash derives an argon2id digest from the password with a fresh random salt.
func (h *Argon2idHasher) Hash(password string) (string, string, error) {
	if len(password) < MinPasswordLength {
		return "", "", oops.Code("AUTH_WEAK_PASSWORD").
			With("min_length", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	digest := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return base64.RawStdEncoding.EncodeToString(digest),
		base64.RawStdEncoding.EncodeToString(salt),
		nil
}

// Verify recomputes the digest with the stored salt and compares in constant time.
func (h *Argon2idHasher) Verify(password, hash, salt string) (bool, error) {
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").
			With("field", "salt").
			Wrap(err)
	}

	rawHash, err := base64.RawStdEncoding.DecodeString(hash)
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").
			With("field", "hash").
			Wrap(err)
	}

	// Guard the uint32 conversion below.
	keyLen := len(rawHash)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid digest length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), rawSalt, argon2Time, argon2Memory, argon2Threads, uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, rawHash) == 1, nil
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
