// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/samber/oops"
)

// Passcode configuration.
const (
	// CodeLength is the number of digits in a passcode.
	CodeLength = 6

	// ChallengeTTL is how long an issued passcode stays valid.
	ChallengeTTL = 300 * time.Second

	// MaxAttempts is the number of verification attempts per challenge.
	MaxAttempts = 5
)

// codeSpace is the number of possible codes (10^CodeLength).
var codeSpace = big.NewInt(1_000_000)

// Challenge is a live one-time passcode bound to an email address.
// At most one challenge exists per email; issuing a new one supersedes
// the previous one entirely.
type Challenge struct {
	Email             string    `json:"email"`
	Code              string    `json:"code"`
	IssuedAt          time.Time `json:"issuedAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
	AttemptsRemaining int       `json:"attemptsRemaining"`
	Consumed          bool      `json:"consumed"`
}

// IsExpiredAt returns true if the challenge would be expired at the given time.
func (c *Challenge) IsExpiredAt(t time.Time) bool {
	return t.After(c.ExpiresAt)
}

// GenerateCode produces a uniformly random numeric code of CodeLength digits.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", oops.Code("OTP_GENERATE_FAILED").
			With("operation", "crypto/rand.Int").
			Wrap(err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// ChallengeStore persists the live challenge per email.
type ChallengeStore interface {
	// Put stores a challenge, overwriting any prior one for the email.
	Put(ctx context.Context, ch *Challenge) error

	// Get retrieves the live challenge for an email.
	// Returns an error wrapping ErrNotFound when none exists.
	Get(ctx context.Context, email string) (*Challenge, error)

	// Delete removes the challenge for an email. Unknown emails are a no-op.
	Delete(ctx context.Context, email string) error
}

// CodeSender delivers an issued passcode to its destination. Transport
// (email, SMS) is an external collaborator behind this seam.
type CodeSender interface {
	Send(ctx context.Context, email, code string) error
}
