// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"context"
	"crypto/x509"
	"time"

	"golang.org/x/crypto/ocsp"
)

// VerifyProc is the pluggable verification engine. Verify may block for an
// arbitrarily long time; it runs on a worker pool goroutine, never on the
// scheduler's owner goroutine.
//
// Implementations must treat the material as read-only and must return an
// outcome for every input: a failed verification is a normal outcome with a
// non-OK status, not an error.
type VerifyProc interface {
	Verify(ctx context.Context, material *KeyMaterial) Outcome
}

// VerifyProcFunc adapts a function to the [VerifyProc] interface.
type VerifyProcFunc func(ctx context.Context, material *KeyMaterial) Outcome

// Verify calls f.
func (f VerifyProcFunc) Verify(ctx context.Context, material *KeyMaterial) Outcome {
	return f(ctx, material)
}

// BuiltinProc verifies chains with the standard library path builder and
// evaluates stapled OCSP responses. It is the default engine; deployments
// with platform verifiers plug in their own [VerifyProc].
type BuiltinProc struct {
	// Roots are the trust anchors to verify against. Nil selects the
	// system roots.
	Roots *x509.CertPool

	// Now is the time source for validity checks; nil selects [time.Now].
	// Exposed for deterministic tests.
	Now func() time.Time
}

// NewBuiltinProc creates a builtin engine verifying against roots.
// A nil pool selects the system trust store.
func NewBuiltinProc(roots *x509.CertPool) *BuiltinProc {
	return &BuiltinProc{Roots: roots}
}

// Verify builds and validates a chain for the material's hostname, then
// checks the stapled OCSP response when revocation checking is requested.
func (p *BuiltinProc) Verify(ctx context.Context, material *KeyMaterial) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusInternalError, Detail: err.Error()}
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	leaf := material.Certs[0]
	intermediates := x509.NewCertPool()
	for _, cert := range material.Certs[1:] {
		intermediates.AddCert(cert)
	}

	roots := p.Roots
	if len(material.AdditionalAnchors) > 0 {
		if roots != nil {
			roots = roots.Clone()
		} else {
			roots = x509.NewCertPool()
		}
		for _, anchor := range material.AdditionalAnchors {
			roots.AddCert(anchor)
		}
	}

	chains, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       material.Hostname,
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	if err != nil {
		return Outcome{Status: classifyVerifyError(err), Detail: err.Error()}
	}

	result := Result{VerifiedChain: chains[0]}
	if material.Flags&FlagEnableRevocationChecking != 0 && len(material.OCSPResponse) > 0 {
		status, detail := p.checkStapledOCSP(material.OCSPResponse, chains[0], now)
		result.OCSPChecked = status != statusOCSPUnusable
		if status == statusOCSPRevoked {
			return Outcome{Status: StatusRevoked, Detail: detail, Result: result}
		}
	}

	return Outcome{Status: StatusOK, Result: result}
}

type ocspCheck int

const (
	statusOCSPGood ocspCheck = iota
	statusOCSPRevoked
	statusOCSPUnusable
)

// checkStapledOCSP evaluates a stapled response against the verified leaf.
// An unparsable, mismatched, or expired staple downgrades to "unchecked"
// rather than failing the verification; only a definitive revoked answer
// turns the outcome.
func (p *BuiltinProc) checkStapledOCSP(staple []byte, chain []*x509.Certificate, now time.Time) (ocspCheck, string) {
	leaf := chain[0]
	var issuer *x509.Certificate
	if len(chain) > 1 {
		issuer = chain[1]
	}

	resp, err := ocsp.ParseResponseForCert(staple, leaf, issuer)
	if err != nil {
		return statusOCSPUnusable, ""
	}
	if !resp.NextUpdate.IsZero() && now.After(resp.NextUpdate) {
		return statusOCSPUnusable, ""
	}
	if resp.Status == ocsp.Revoked {
		return statusOCSPRevoked, "stapled OCSP response reports certificate revoked"
	}
	return statusOCSPGood, ""
}

// classifyVerifyError maps standard library verification errors onto the
// outcome status taxonomy.
func classifyVerifyError(err error) Status {
	switch e := err.(type) {
	case x509.CertificateInvalidError:
		if e.Reason == x509.Expired {
			return StatusExpired
		}
		return StatusInvalid
	case x509.UnknownAuthorityError:
		return StatusAuthorityUnknown
	case x509.HostnameError:
		return StatusHostnameMismatch
	default:
		return StatusInvalid
	}
}
