// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package auth implements the credential and session authentication core
// of the TutorDesk portal.
//
// It provides:
//   - salted argon2id password hashing and constant-time verification
//   - username-keyed credential records with a userID reverse index
//   - password login that cannot be used to enumerate usernames
//   - a one-time-passcode challenge flow for allowlisted admin emails
//   - session issuance and teardown scoped to a client context
//
// Persistence is behind small store interfaces; adapters live in the
// kv and postgres subpackages.
package auth
