// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package delivery carries issued passcodes to their recipients.
package delivery

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogSender records delivery intent without an external mail or SMS
// provider. It logs that a code was issued but never the code itself.
// Stands in for a real provider in development and demo deployments.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses the default.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the delivery. The code value stays out of the log record.
func (s *LogSender) Send(ctx context.Context, email, code string) error {
	if email == "" {
		return oops.Code("OTP_DELIVERY_FAILED").Errorf("recipient email cannot be empty")
	}
	s.logger.InfoContext(ctx, "passcode issued",
		"email", email,
		"code_length", len(code),
	)
	return nil
}
