// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a structured failure response from the platform.
// Callers can use errors.As to extract the structured information:
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) {
//	    if apiErr.StatusCode == http.StatusTooManyRequests { ... }
//	}
type Error struct {
	// Code is the platform result code from the response envelope.
	// Zero means the envelope carried no code (plain HTTP failure).
	Code int `json:"code"`
	// Message is the human-readable error description from the server.
	Message string `json:"msg"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("fishpi: code %d (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Sentinel conditions for platform failures. Match with errors.Is.
var (
	// ErrNotAuthenticated marks a request rejected for a missing or
	// invalid API key.
	ErrNotAuthenticated = errors.New("fishpi: not authenticated")
	// ErrRedPacketExhausted marks an open attempt on a packet whose
	// shares are all taken.
	ErrRedPacketExhausted = errors.New("fishpi: red packet exhausted")
	// ErrRedPacketAlreadyOpened marks a second open attempt on a packet
	// the account already opened.
	ErrRedPacketAlreadyOpened = errors.New("fishpi: red packet already opened")
)

// The platform reports red-packet outcomes only in localized message
// text. These fragments are the wire contract; translating them to the
// sentinel conditions above happens in Error.Is and nowhere else.
const (
	msgRedPacketExhausted     = "已被领完"
	msgRedPacketAlreadyOpened = "已领取"
)

// Is maps platform failures onto the package's sentinel conditions so
// that errors.Is(err, api.ErrRedPacketExhausted) and friends work on any
// error wrapping a *Error.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized || e.Code == http.StatusUnauthorized
	case ErrRedPacketExhausted:
		return strings.Contains(e.Message, msgRedPacketExhausted)
	case ErrRedPacketAlreadyOpened:
		return strings.Contains(e.Message, msgRedPacketAlreadyOpened)
	}
	return false
}

// IsError checks whether err is a *Error with the given platform code.
func IsError(err error, code int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
