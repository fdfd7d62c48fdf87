package domain

import (
	"errors"
	"fmt"
)

var (
	ErrWalletUnavailable  = errors.New("wallet unavailable")
	ErrConnectionRejected = errors.New("connection rejected")
	ErrRemoteRejected     = errors.New("remote rejected")
	ErrInvalidInput       = errors.New("invalid input")

	ErrNotConnected       = errors.New("wallet not connected")
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrSecretNotFound     = errors.New("secret not found")
)

// RemoteError carries a contract or network failure verbatim. It matches
// ErrRemoteRejected under errors.Is.
type RemoteError struct {
	Method string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s rejected: %v", ErrRemoteRejected, e.Method, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteRejected
}

func NewRemoteError(method string, err error) error {
	if err == nil {
		return nil
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		return err
	}

	return &RemoteError{Method: method, Err: err}
}
