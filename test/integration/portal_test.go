// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/auth/kv"
	"github.com/tutordesk/tutordesk/internal/httpapi"
	"github.com/tutordesk/tutordesk/internal/kvstore"
)

// capturingSender records the last passcode handed to delivery.
type capturingSender struct {
	lastCode string
}

func (s *capturingSender) Send(_ context.Context, _, code string) error {
	s.lastCode = code
	return nil
}

var _ = Describe("Portal login flows", func() {
	var (
		ts     *httptest.Server
		client *http.Client
		sender *capturingSender
	)

	postJSON := func(path string, body any) *http.Response {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		resp, err := client.Post(ts.URL+path, "application/json", bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		mem := kvstore.NewMemoryStore()

		creds, err := kv.NewCredentialStore(mem)
		Expect(err).NotTo(HaveOccurred())
		challenges, err := kv.NewChallengeStore(mem)
		Expect(err).NotTo(HaveOccurred())
		sessionStore, err := kv.NewSessionStore(mem)
		Expect(err).NotTo(HaveOccurred())

		authSvc, err := auth.NewService(creds, auth.NewArgon2idHasher())
		Expect(err).NotTo(HaveOccurred())

		sender = &capturingSender{}
		otpSvc, err := auth.NewOTPService(challenges, sender,
			[]string{"head@tutordesk.example"}, false)
		Expect(err).NotTo(HaveOccurred())

		sessions, err := auth.NewSessionManager(sessionStore)
		Expect(err).NotTo(HaveOccurred())

		_, err = authSvc.Provision(context.Background(), "student1", "correcthorse", auth.RoleStudent, "usr-1")
		Expect(err).NotTo(HaveOccurred())

		srv, err := httpapi.NewServer(httpapi.Options{
			AuthService:    authSvc,
			OTPService:     otpSvc,
			SessionManager: sessions,
			AdminUserIDs:   map[string]string{"head@tutordesk.example": "ADM-1"},
		})
		Expect(err).NotTo(HaveOccurred())

		ts = httptest.NewServer(srv.Handler())
		DeferCleanup(ts.Close)

		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
	})

	It("completes a password login and session lookup", func() {
		resp := postJSON("/v1/login", map[string]string{
			"username": "student1",
			"password": "correcthorse",
		})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		sessResp, err := client.Get(ts.URL + "/v1/session")
		Expect(err).NotTo(HaveOccurred())
		defer sessResp.Body.Close()
		Expect(sessResp.StatusCode).To(Equal(http.StatusOK))

		var session struct {
			Role   string `json:"role"`
			UserID string `json:"userId"`
		}
		Expect(json.NewDecoder(sessResp.Body).Decode(&session)).To(Succeed())
		Expect(session.Role).To(Equal("student"))
		Expect(session.UserID).To(Equal("usr-1"))
	})

	It("completes a passcode login for an allowlisted administrator", func() {
		resp := postJSON("/v1/otp/send", map[string]string{
			"email": "head@tutordesk.example",
		})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
		Expect(sender.lastCode).To(HaveLen(auth.CodeLength))

		verifyResp := postJSON("/v1/otp/verify", map[string]string{
			"email": "head@tutordesk.example",
			"code":  sender.lastCode,
		})
		defer verifyResp.Body.Close()
		Expect(verifyResp.StatusCode).To(Equal(http.StatusOK))

		sessResp, err := client.Get(ts.URL + "/v1/session")
		Expect(err).NotTo(HaveOccurred())
		defer sessResp.Body.Close()
		Expect(sessResp.StatusCode).To(Equal(http.StatusOK))
	})

	It("ends the session on logout", func() {
		resp := postJSON("/v1/login", map[string]string{
			"username": "student1",
			"password": "correcthorse",
		})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/logout", nil)
		Expect(err).NotTo(HaveOccurred())
		logoutResp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer logoutResp.Body.Close()
		Expect(logoutResp.StatusCode).To(Equal(http.StatusNoContent))

		sessResp, err := client.Get(ts.URL + "/v1/session")
		Expect(err).NotTo(HaveOccurred())
		defer sessResp.Body.Close()
		Expect(sessResp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("rejects passcode requests for unknown emails", func() {
		resp := postJSON("/v1/otp/send", map[string]string{
			"email": fmt.Sprintf("stranger-%d@example.com", GinkgoRandomSeed()),
		})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})
})
