// Package errors provides custom error types for the measurecast system.
// These errors enable programmatic error checking across the bridge, so callers
// can tell a malformed datagram from a rejected message or a fatal bind failure.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are the standard library helpers, re-exported so callers need a
// single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the measurecast system
var (
	// ErrDecode indicates a datagram did not conform to OSC framing rules
	ErrDecode = errors.New("decode failed")

	// ErrRejected indicates a well-formed message failed shape validation
	ErrRejected = errors.New("message rejected")

	// ErrBind indicates a listening socket could not be opened
	ErrBind = errors.New("bind failed")

	// ErrTransport indicates delivery to a single subscriber failed
	ErrTransport = errors.New("transport failed")

	// ErrInvalidConfig indicates configuration values are unusable
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClosed indicates an operation on a closed component
	ErrClosed = errors.New("closed")
)

// Rejection reasons reported by the timing validator.
const (
	ReasonUnrecognizedAddress = "unrecognized address"
	ReasonMissingArguments    = "missing arguments"
	ReasonWrongArity          = "wrong arity"
	ReasonNonInteger          = "non-integer argument"
)

// DecodeError represents a datagram that could not be parsed
type DecodeError struct {
	Size    int // payload length in bytes
	Message string
	Err     error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error (%d bytes): %s: %v", e.Size, e.Message, e.Err)
	}
	return fmt.Sprintf("decode error (%d bytes): %s", e.Size, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(size int, message string, err error) *DecodeError {
	return &DecodeError{Size: size, Message: message, Err: err}
}

// ValidationError represents a decoded message rejected by the shape contract
type ValidationError struct {
	Address string
	Reason  string
	Detail  string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("message %s rejected: %s (%s)", e.Address, e.Reason, e.Detail)
	}
	return fmt.Sprintf("message %s rejected: %s", e.Address, e.Reason)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrRejected
}

// NewValidationError creates a new ValidationError
func NewValidationError(address, reason, detail string) *ValidationError {
	return &ValidationError{Address: address, Reason: reason, Detail: detail}
}

// BindError represents a failure to open a listening socket
type BindError struct {
	Network string // "udp", "tcp"
	Addr    string
	Err     error
}

// Error implements the error interface
func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s %s: %v", e.Network, e.Addr, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *BindError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *BindError) Is(target error) bool {
	return target == ErrBind
}

// NewBindError creates a new BindError
func NewBindError(network, addr string, err error) *BindError {
	return &BindError{Network: network, Addr: addr, Err: err}
}

// TransportError represents a delivery failure to one subscriber
type TransportError struct {
	Transport  string // "websocket", "sse", "nats"
	Subscriber string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Subscriber != "" {
		return fmt.Sprintf("%s delivery to %s failed: %v", e.Transport, e.Subscriber, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Transport, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError creates a new TransportError
func NewTransportError(transport, subscriber string, err error) *TransportError {
	return &TransportError{Transport: transport, Subscriber: subscriber, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsDecode checks if an error is a decode error
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsRejected checks if an error is a validation rejection
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsBind checks if an error is a bind failure
func IsBind(err error) bool {
	return errors.Is(err, ErrBind)
}

// IsTransport checks if an error is a subscriber transport failure
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// RejectionReason returns the validator's reason for err, or "" when err is not a rejection.
func RejectionReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}
