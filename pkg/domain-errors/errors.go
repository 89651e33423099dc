// Package domainerrors provides coded errors for the commitment/proof core.
// Services return these so transport layers can translate failures into
// uniform responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// CodeBadRequest covers structurally malformed input (missing fields,
	// non-JSON bodies). Distinct from CodeValidation, which covers inputs
	// that parse but violate domain rules.
	CodeBadRequest Code = "bad_request"
	CodeValidation Code = "validation"
	CodeNotFound   Code = "not_found"
	// CodeCommitmentMismatch rejects proof requests carrying a commitment
	// captured before an attribute rotation.
	CodeCommitmentMismatch Code = "commitment_mismatch"
	CodePolicyUnsatisfied  Code = "policy_unsatisfied"
	// CodeCryptoFailure is the single uniform code for any authenticated
	// decryption failure. Callers must not learn which check failed.
	CodeCryptoFailure Code = "crypto_failure"
	CodeInternal      Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err or any wrapped error carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps codes onto statuses. CommitmentMismatch and
// PolicyUnsatisfied both map to 400 so the response does not leak which
// precondition rejected the proof; the audit log keeps the detail.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeCommitmentMismatch, CodePolicyUnsatisfied:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeCryptoFailure, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
