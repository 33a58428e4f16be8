// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies identity failures.
type AuthErrorKind string

const (
	// AuthInvalidCredentials is a wrong email/password pair.
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	// AuthAlreadyRegistered is a sign-up for an existing email.
	AuthAlreadyRegistered AuthErrorKind = "already_registered"
	// AuthUnavailable is a network or service failure.
	AuthUnavailable AuthErrorKind = "unavailable"
	// AuthRejected is any other request the identity service refused.
	AuthRejected AuthErrorKind = "rejected"
)

// AuthError is returned by Identity operations. Message is the service's own
// wording and is safe to show to the visitor.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Status  int
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth %s: %s", e.Kind, e.Message)
	}
	return "auth " + string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthKind reports whether err is an *AuthError of the given kind.
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// QueryError is returned by Content.Select.
type QueryError struct {
	Table   string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("query %s: status %d: %s", e.Table, e.Status, msg)
	}
	return fmt.Sprintf("query %s: %s", e.Table, msg)
}

func (e *QueryError) Unwrap() error { return e.Err }
