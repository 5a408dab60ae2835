// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package delivery_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/delivery"
)

func TestLogSender_Send(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sender := delivery.NewLogSender(logger)

	require.NoError(t, sender.Send(context.Background(), "admin@tutordesk.example", "123456"))

	output := buf.String()
	assert.Contains(t, output, "admin@tutordesk.example")
	assert.NotContains(t, output, "123456", "the code must never reach the logs")
}

func TestLogSender_EmptyEmail(t *testing.T) {
	sender := delivery.NewLogSender(nil)
	err := sender.Send(context.Background(), "", "123456")
	require.Error(t, err)
}
