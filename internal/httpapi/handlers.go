// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package httpapi

import (
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Role   auth.Role `json:"role"`
	UserID string    `json:"userId"`
}

func (s *Server) recordLogin(method, outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(method, outcome).Inc()
	}
}

func (s *Server) recordOTPSend(outcome string) {
	if s.metrics != nil {
		s.metrics.OTPSendsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordOTPVerify(outcome string) {
	if s.metrics != nil {
		s.metrics.OTPVerifiesTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	identity, err := s.authSvc.VerifyCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		s.recordLogin("password", "failure")
		writeError(w, s.logger, err)
		return
	}

	id, err := s.ensureClientID(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	session, err := s.sessions.Create(r.Context(), id, identity.Role, identity.UserID, nil)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.recordLogin("password", "success")
	writeJSON(w, http.StatusOK, sessionResponse{Role: session.Role, UserID: session.UserID})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := clientID(r); id != "" {
		if err := s.sessions.Clear(r.Context(), id); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := clientID(r)
	if id == "" {
		writeError(w, s.logger, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound))
		return
	}

	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Role: session.Role, UserID: session.UserID})
}

type otpSendRequest struct {
	Email string `json:"email"`
}

type otpSendResponse struct {
	// Code is set only in demo mode.
	Code string `json:"code,omitempty"`
}

func (s *Server) handleOTPSend(w http.ResponseWriter, r *http.Request) {
	var req otpSendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	code, err := s.otpSvc.Send(r.Context(), req.Email)
	if err != nil {
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "OTP_UNAUTHORIZED_EMAIL" {
			s.recordOTPSend("unauthorized")
		} else {
			s.recordOTPSend("failure")
		}
		writeError(w, s.logger, err)
		return
	}

	s.recordOTPSend("sent")
	writeJSON(w, http.StatusAccepted, otpSendResponse{Code: code})
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.otpSvc.Verify(r.Context(), req.Email, req.Code); err != nil {
		s.recordOTPVerify(verifyOutcome(err))
		s.recordLogin("otp", "failure")
		writeError(w, s.logger, err)
		return
	}

	userID, ok := s.adminByEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok {
		// Allowlisted for codes but mapped to no account; treat as
		// unauthorized rather than minting an unanchored session.
		s.recordLogin("otp", "failure")
		writeError(w, s.logger, oops.Code("OTP_UNAUTHORIZED_EMAIL").
			Errorf("email is not authorized for passcode login"))
		return
	}

	id, err := s.ensureClientID(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	session, err := s.sessions.Create(r.Context(), id, auth.RoleAdmin, userID, nil)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.recordOTPVerify("success")
	s.recordLogin("otp", "success")
	writeJSON(w, http.StatusOK, sessionResponse{Role: session.Role, UserID: session.UserID})
}

func verifyOutcome(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "failure"
	}
	switch oopsErr.Code() {
	case "OTP_MISMATCH":
		return "mismatch"
	case "OTP_EXPIRED":
		return "expired"
	case "OTP_ATTEMPTS_EXHAUSTED":
		return "exhausted"
	case "OTP_NOT_FOUND":
		return "not_found"
	default:
		return "failure"
	}
}

type createCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	UserID   string `json:"userId"`
}

type createCredentialsResponse struct {
	Username string    `json:"username"`
	Role     auth.Role `json:"role"`
	UserID   string    `json:"userId"`
}

func (s *Server) handleCreateCredentials(w http.ResponseWriter, r *http.Request) {
	var req createCredentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	rec, err := s.authSvc.Provision(r.Context(), req.Username, req.Password, role, req.UserID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, createCredentialsResponse{
		Username: rec.Username,
		Role:     rec.Role,
		UserID:   rec.UserID,
	})
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	username := r.PathValue("username")
	if err := s.authSvc.UpdatePassword(r.Context(), username, req.Password); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCredentials(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if err := s.authSvc.DeleteCredentials(r.Context(), userID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type findUsernameResponse struct {
	Username string `json:"username"`
}

func (s *Server) handleFindUsername(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	username, err := s.authSvc.FindUsernameByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, findUsernameResponse{Username: username})
}
