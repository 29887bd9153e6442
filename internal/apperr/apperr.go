// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package apperr defines the error taxonomy shared by the view recorder,
// the ownership resolver, the stats aggregator and the HTTP gateway.
//
// Every error that crosses a package boundary is one of five categories:
//
//   - ValidationError: malformed or out-of-range input, rejected before
//     any data access
//   - AuthenticationError: no valid identity where one is required
//   - AuthorizationError: identity present but not entitled
//   - NotFoundError: a referenced video id does not resolve
//   - StoreError: durability/backend failure, optionally transient
//
// The HTTP layer maps each category to a status code exactly once, so
// inner packages never need to know about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input.
// It is always produced before any data access and is never retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthenticationError reports a missing or invalid identity.
// Clients should re-authenticate; this is distinct from authorization
// so "log in" and "not permitted" remain distinguishable.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// NewAuthentication creates an AuthenticationError.
func NewAuthentication(format string, args ...interface{}) *AuthenticationError {
	return &AuthenticationError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports an identity that is present but not
// entitled. The message never discloses more about the video than is
// already public.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// NewAuthorization creates an AuthorizationError.
func NewAuthorization(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced resource does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFound creates a NotFoundError.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// StoreError reports a durability or backend failure.
// Transient instances are eligible for client-side retry; the service
// itself never retries writes to avoid double-counted events.
type StoreError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStore wraps err as a permanent StoreError for the given operation.
func NewStore(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// NewTransientStore wraps err as a retryable StoreError.
func NewTransientStore(op string, err error) *StoreError {
	return &StoreError{Op: op, Transient: true, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsTransient reports whether err is a StoreError marked transient.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Transient
}
