// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package seed loads credential seed files and provisions the accounts
// they describe.
package seed

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/tutordesk/tutordesk/internal/auth"
)

// Credential is one account in a seed file.
type Credential struct {
	Username string `yaml:"username" json:"username" jsonschema:"required,minLength=3,maxLength=30"`
	Password string `yaml:"password" json:"password" jsonschema:"required,minLength=8"`
	Role     string `yaml:"role" json:"role" jsonschema:"required,enum=student,enum=teacher,enum=admin"`
	UserID   string `yaml:"userId" json:"userId" jsonschema:"required,minLength=1"`
}

// File is a credential seed file.
type File struct {
	Credentials []Credential `yaml:"credentials" json:"credentials" jsonschema:"required"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}

	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code("SEED_INVALID").With("path", path).Wrap(err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").With("path", path).Wrap(err)
	}
	return &f, nil
}

// Result summarizes an Apply run.
type Result struct {
	Created int
	Skipped int
}

// Apply provisions every credential in the file. Accounts that already
// exist (same username or same user ID) are skipped, so re-running a
// seed file is safe.
func Apply(ctx context.Context, f *File, svc *auth.Service, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for _, cred := range f.Credentials {
		role, err := auth.ParseRole(cred.Role)
		if err != nil {
			return res, oops.With("username", cred.Username).Wrap(err)
		}

		_, err = svc.Provision(ctx, cred.Username, cred.Password, role, cred.UserID)
		if err != nil {
			if isDuplicate(err) {
				logger.InfoContext(ctx, "seed account already exists, skipping",
					"username", cred.Username)
				res.Skipped++
				continue
			}
			return res, oops.With("username", cred.Username).Wrap(err)
		}

		logger.InfoContext(ctx, "seed account created",
			"username", cred.Username,
			"role", cred.Role)
		res.Created++
	}
	return res, nil
}

func isDuplicate(err error) bool {
	var oopsErr oops.OopsError
	if !errors.As(err, &oopsErr) {
		return false
	}
	code := oopsErr.Code()
	return code == "AUTH_DUPLICATE_USERNAME" || code == "AUTH_DUPLICATE_USER_ID"
}
