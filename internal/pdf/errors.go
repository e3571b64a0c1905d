package pdf

import (
	"fmt"
	"strings"
)

// Kind classifies why a PDF could not be processed. The two cases need
// different user-facing messages: a password-protected document is not
// broken, it just cannot be opened without credentials.
type Kind string

const (
	// KindPasswordRequired marks encrypted documents that need a password.
	KindPasswordRequired Kind = "password_required"
	// KindInvalid marks structurally broken or text-free documents.
	KindInvalid Kind = "invalid"
)

// Error is a classified PDF processing failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pdf: %s", e.Kind)
	}
	return fmt.Sprintf("pdf: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps a pdfcpu error with a Kind. pdfcpu reports encryption
// through its error text, so the check is a string match.
func classify(err error) *Error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "encrypted") {
		return &Error{Kind: KindPasswordRequired, Err: err}
	}
	return &Error{Kind: KindInvalid, Err: err}
}
