// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/helper/gc"
	"golang.org/x/net/idna"
)

var (
	// ErrEmptyHostname indicates that a request key was built without a hostname.
	ErrEmptyHostname = errors.New("x509verify: empty hostname")

	// ErrInvalidHostname indicates that the hostname could not be canonicalized.
	ErrInvalidHostname = errors.New("x509verify: invalid hostname")

	// ErrNoCertificates indicates that a request key was built without a certificate chain.
	ErrNoCertificates = errors.New("x509verify: no certificates")
)

// VerifyFlags alter how a verification request is performed. Two requests
// that differ only in flags are distinct cache and coalescing keys.
type VerifyFlags uint32

const (
	// FlagEnableRevocationChecking requests best-effort revocation checking
	// of the presented chain (e.g. stapled OCSP).
	FlagEnableRevocationChecking VerifyFlags = 1 << iota

	// FlagDisableNetworkFetches restricts verification to locally available
	// information only.
	FlagDisableNetworkFetches
)

// KeyMaterial carries the raw inputs of a verification request. It is
// retained by the [RequestKey] so the scheduler can hand the exact inputs to
// the verification engine.
type KeyMaterial struct {
	// Certs is the presented certificate chain, leaf first.
	Certs []*x509.Certificate

	// Hostname is the host the leaf certificate must be valid for.
	Hostname string

	// Flags alter verification behavior.
	Flags VerifyFlags

	// OCSPResponse is an optional stapled OCSP response for the leaf.
	OCSPResponse []byte

	// SCTs are optional signed certificate timestamps presented with the handshake.
	SCTs [][]byte

	// AdditionalAnchors are extra trust anchors to consider beyond the
	// engine's configured trust store.
	AdditionalAnchors []*x509.Certificate
}

// RequestKey canonicalizes the inputs of a verification request into an
// immutable, totally-ordered value. Two equal keys always denote identical
// verification inputs; the canonical digest covers every field of the
// underlying [KeyMaterial].
type RequestKey struct {
	host     string
	flags    VerifyFlags
	digest   [sha256.Size]byte
	material *KeyMaterial
}

// NewRequestKey canonicalizes material into a [RequestKey].
//
// The hostname is lowercased, stripped of a trailing dot, and mapped to its
// ASCII (punycode) form; IP literals are kept in their canonical textual
// form. An empty or non-mappable hostname and an empty certificate chain are
// rejected.
func NewRequestKey(material *KeyMaterial) (RequestKey, error) {
	if material == nil || len(material.Certs) == 0 {
		return RequestKey{}, ErrNoCertificates
	}
	if material.Hostname == "" {
		return RequestKey{}, ErrEmptyHostname
	}

	host := strings.TrimSuffix(strings.ToLower(material.Hostname), ".")
	if host == "" {
		return RequestKey{}, ErrEmptyHostname
	}
	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	} else {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return RequestKey{}, fmt.Errorf("%w: %q", ErrInvalidHostname, material.Hostname)
		}
		host = ascii
	}

	canonical := &KeyMaterial{
		Certs:             material.Certs,
		Hostname:          host,
		Flags:             material.Flags,
		OCSPResponse:      material.OCSPResponse,
		SCTs:              material.SCTs,
		AdditionalAnchors: material.AdditionalAnchors,
	}

	return RequestKey{
		host:     host,
		flags:    material.Flags,
		digest:   digestMaterial(canonical),
		material: canonical,
	}, nil
}

// Section tags for the canonical digest encoding. Each section is tagged and
// carries its element count so fields from one section can never be read as
// part of another.
const (
	digestSectionCerts byte = iota + 1
	digestSectionHostname
	digestSectionFlags
	digestSectionOCSP
	digestSectionSCTs
	digestSectionAnchors
)

// digestMaterial computes the canonical digest over every verification input.
// The encoding is injective: every section is tagged and count-prefixed, and
// every field is length-prefixed, so distinct inputs can never share an
// encoding.
func digestMaterial(m *KeyMaterial) [sha256.Size]byte {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	writeSection := func(tag byte, count int) {
		buf.WriteByte(tag)
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(count))
		buf.Write(n[:])
	}
	writeField := func(field []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(field)))
		buf.Write(length[:])
		buf.Write(field)
	}

	writeSection(digestSectionCerts, len(m.Certs))
	for _, cert := range m.Certs {
		sum := sha256.Sum256(cert.Raw)
		writeField(sum[:])
	}

	writeSection(digestSectionHostname, 1)
	writeField([]byte(m.Hostname))

	writeSection(digestSectionFlags, 1)
	var flags [4]byte
	binary.BigEndian.PutUint32(flags[:], uint32(m.Flags))
	writeField(flags[:])

	writeSection(digestSectionOCSP, 1)
	writeField(m.OCSPResponse)

	writeSection(digestSectionSCTs, len(m.SCTs))
	for _, sct := range m.SCTs {
		writeField(sct)
	}

	writeSection(digestSectionAnchors, len(m.AdditionalAnchors))
	for _, anchor := range m.AdditionalAnchors {
		sum := sha256.Sum256(anchor.Raw)
		writeField(sum[:])
	}

	return sha256.Sum256(buf.Bytes())
}

// Valid reports whether the key was produced by [NewRequestKey].
// The zero RequestKey is not valid.
func (k RequestKey) Valid() bool { return k.material != nil && k.host != "" }

// Hostname returns the canonical hostname of the request.
func (k RequestKey) Hostname() string { return k.host }

// Flags returns the verification flags of the request.
func (k RequestKey) Flags() VerifyFlags { return k.flags }

// Material returns the canonicalized verification inputs.
func (k RequestKey) Material() *KeyMaterial { return k.material }

// Digest returns the canonical digest identifying the request.
func (k RequestKey) Digest() [sha256.Size]byte { return k.digest }

// Equal reports whether two keys denote identical verification inputs.
func (k RequestKey) Equal(other RequestKey) bool { return k.digest == other.digest }

// Compare totally orders keys by canonical digest. It returns -1, 0, or 1
// following the convention of [bytes.Compare].
func (k RequestKey) Compare(other RequestKey) int {
	return bytes.Compare(k.digest[:], other.digest[:])
}

// String returns a short human-readable form for logging and diagnostics.
func (k RequestKey) String() string {
	if !k.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%s/%s", k.host, hex.EncodeToString(k.digest[:6]))
}
