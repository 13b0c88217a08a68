// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import "crypto/x509"

// Status classifies the outcome of a verification run. A non-OK status is a
// normal, cacheable result delivered to callers like any other outcome; it is
// not a scheduler-level error.
type Status int

const (
	// StatusOK indicates the chain verified successfully for the hostname.
	StatusOK Status = iota

	// StatusInvalid indicates the chain failed to verify for a reason not
	// covered by a more specific status.
	StatusInvalid

	// StatusExpired indicates a certificate in the chain is outside its
	// validity period.
	StatusExpired

	// StatusAuthorityUnknown indicates the chain does not terminate at a
	// configured trust anchor.
	StatusAuthorityUnknown

	// StatusHostnameMismatch indicates the leaf certificate is not valid for
	// the requested hostname.
	StatusHostnameMismatch

	// StatusRevoked indicates revocation information marked a certificate in
	// the chain as revoked.
	StatusRevoked

	// StatusInternalError indicates the verification could not be performed,
	// e.g. the worker pool refused the dispatch under resource exhaustion.
	StatusInternalError
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalid:
		return "invalid"
	case StatusExpired:
		return "expired"
	case StatusAuthorityUnknown:
		return "authority-unknown"
	case StatusHostnameMismatch:
		return "hostname-mismatch"
	case StatusRevoked:
		return "revoked"
	case StatusInternalError:
		return "internal-error"
	default:
		return "unknown"
	}
}

// Result is the payload produced by a verification run.
type Result struct {
	// VerifiedChain is the validated chain from leaf to trust anchor.
	// It is nil when verification did not produce a trusted chain.
	VerifiedChain []*x509.Certificate

	// OCSPChecked reports whether a stapled OCSP response was evaluated.
	OCSPChecked bool
}

// Outcome is the {status, result} pair produced by verification. Outcomes are
// fanned out to waiters by value; callers distinguish failures by inspecting
// Status rather than a distinct error path.
type Outcome struct {
	Status Status

	// Detail holds the engine's error text for non-OK statuses.
	Detail string

	Result Result
}

// OK reports whether the outcome represents a successful verification.
func (o Outcome) OK() bool { return o.Status == StatusOK }
