// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"
)

// OTPService issues and verifies one-time passcodes for the admin login
// path. Only allowlisted email addresses may request a code.
type OTPService struct {
	challenges ChallengeStore
	sender     CodeSender
	allow      map[string]struct{}
	demoMode   bool
	clock      func() time.Time
}

// OTPOption customizes an OTPService.
type OTPOption func(*OTPService)

// WithClock overrides the time source. Used by tests to drive expiry.
func WithClock(clock func() time.Time) OTPOption {
	return func(s *OTPService) { s.clock = clock }
}

// NewOTPService creates a new OTPService. In demo mode Send returns the
// issued code directly to the caller instead of relying on delivery.
func NewOTPService(challenges ChallengeStore, sender CodeSender, allowlist []string, demoMode bool, opts ...OTPOption) (*OTPService, error) {
	if challenges == nil {
		return nil, oops.Errorf("challenge store is required")
	}
	if sender == nil {
		return nil, oops.Errorf("code sender is required")
	}

	allow := make(map[string]struct{}, len(allowlist))
	for _, email := range allowlist {
		allow[normalizeEmail(email)] = struct{}{}
	}

	s := &OTPService{
		challenges: challenges,
		sender:     sender,
		allow:      allow,
		demoMode:   demoMode,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAuthorizedEmail checks membership in the admin allowlist.
func (s *OTPService) IsAuthorizedEmail(email string) bool {
	_, ok := s.allow[normalizeEmail(email)]
	return ok
}

// Send issues a fresh challenge for the email, superseding any previous
// one (new code, new expiry, attempts reset). There is no resend
// cooldown here; any cooldown is a presentation concern.
//
// The returned string is the issued code in demo mode and empty
// otherwise: once a real delivery collaborator carries the code, the
// caller must not see it.
func (s *OTPService) Send(ctx context.Context, email string) (string, error) {
	if !s.IsAuthorizedEmail(email) {
		return "", oops.Code("OTP_UNAUTHORIZED_EMAIL").
			Errorf("email is not authorized for passcode login")
	}

	code, err := GenerateCode()
	if err != nil {
		return "", oops.Code("OTP_SEND_FAILED").
			With("operation", "generate code").
			Wrap(err)
	}

	now := s.clock().UTC()
	ch := &Challenge{
		Email:             normalizeEmail(email),
		Code:              code,
		IssuedAt:          now,
		ExpiresAt:         now.Add(ChallengeTTL),
		AttemptsRemaining: MaxAttempts,
	}

	if err := s.challenges.Put(ctx, ch); err != nil {
		return "", oops.Code("OTP_SEND_FAILED").
			With("operation", "store challenge").
			Wrap(err)
	}

	if err := s.sender.Send(ctx, ch.Email, code); err != nil {
		return "", oops.Code("OTP_DELIVERY_FAILED").
			With("operation", "deliver code").
			Wrap(err)
	}

	if s.demoMode {
		return code, nil
	}
	return "", nil
}

// Verify checks a candidate code against the live challenge for the
// email. On match the challenge is consumed; a second verify with the
// same code fails with OTP_NOT_FOUND. Expiry is recognized lazily here,
// not swept proactively.
func (s *OTPService) Verify(ctx context.Context, email, candidate string) error {
	ch, err := s.challenges.Get(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("OTP_NOT_FOUND").
				Errorf("no active passcode for this email")
		}
		return oops.Code("OTP_VERIFY_FAILED").
			With("operation", "get challenge").
			Wrap(err)
	}

	if ch.Consumed {
		return oops.Code("OTP_NOT_FOUND").
			Errorf("no active passcode for this email")
	}

	if ch.IsExpiredAt(s.clock()) {
		return oops.Code("OTP_EXPIRED").Errorf("passcode has expired")
	}

	if ch.AttemptsRemaining <= 0 {
		return oops.Code("OTP_ATTEMPTS_EXHAUSTED").
			Errorf("too many incorrect attempts, request a new passcode")
	}

	if subtle.ConstantTimeCompare([]byte(candidate), []byte(ch.Code)) != 1 {
		ch.AttemptsRemaining--
		if putErr := s.challenges.Put(ctx, ch); putErr != nil {
			return oops.Code("OTP_VERIFY_FAILED").
				With("operation", "record failed attempt").
				Wrap(putErr)
		}
		return oops.Code("OTP_MISMATCH").Errorf("incorrect passcode")
	}

	// Consume: one successful verify per challenge.
	if err := s.challenges.Delete(ctx, ch.Email); err != nil {
		return oops.Code("OTP_VERIFY_FAILED").
			With("operation", "consume challenge").
			Wrap(err)
	}
	return nil
}
