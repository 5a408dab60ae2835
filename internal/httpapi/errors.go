// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/pkg/errutil"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// statusForCode maps an error code to an HTTP status. Codes not listed
// are treated as internal failures.
func statusForCode(code string) int {
	switch code {
	case "AUTH_INVALID_CREDENTIALS",
		"SESSION_NOT_FOUND",
		"OTP_MISMATCH",
		"OTP_EXPIRED",
		"OTP_NOT_FOUND",
		"OTP_ATTEMPTS_EXHAUSTED":
		return http.StatusUnauthorized
	case "AUTH_FORBIDDEN", "OTP_UNAUTHORIZED_EMAIL":
		return http.StatusForbidden
	case "AUTH_NOT_FOUND":
		return http.StatusNotFound
	case "AUTH_DUPLICATE_USERNAME", "AUTH_DUPLICATE_USER_ID":
		return http.StatusConflict
	case "AUTH_WEAK_PASSWORD",
		"AUTH_INVALID_USERNAME",
		"AUTH_INVALID_ROLE",
		"AUTH_INVALID_USER_ID",
		"BAD_REQUEST":
		return http.StatusBadRequest
	case "STORAGE_FAILED":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Internal failures get a generic
// message; the detail goes to the log, not the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := "INTERNAL"
	message := err.Error()
	if oopsErr, ok := oops.AsOops(err); ok {
		if c, isString := oopsErr.Code().(string); isString && c != "" {
			code = c
		}
	}

	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		errutil.LogError(logger, "request failed", err)
		message = "service temporarily unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(errorResponse{Code: code, Error: message})
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(v)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return oops.Code("BAD_REQUEST").Wrapf(err, "malformed request body")
	}
	return nil
}
