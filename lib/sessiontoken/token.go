// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessiontoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/kanban/lib/codec"
)

// Audience is the audience of every token the kanban service accepts.
const Audience = "kanban"

// Token is the CBOR-encoded payload of a session token.
type Token struct {
	// Subject is the user's GitHub login.
	Subject string `cbor:"1,keyasint"`

	// UserID is the store's ID for the user.
	UserID string `cbor:"2,keyasint"`

	Audience string `cbor:"3,keyasint"`

	// ID is a unique token identifier.
	ID string `cbor:"4,keyasint"`

	// IssuedAt and ExpiresAt are Unix timestamps in seconds.
	IssuedAt  int64 `cbor:"5,keyasint"`
	ExpiresAt int64 `cbor:"6,keyasint"`
}

var (
	ErrTokenTooShort    = errors.New("sessiontoken: shorter than a signature")
	ErrInvalidSignature = errors.New("sessiontoken: bad signature")
	ErrTokenExpired     = errors.New("sessiontoken: expired")
	ErrAudienceMismatch = errors.New("sessiontoken: wrong audience")
	ErrMalformed        = errors.New("sessiontoken: malformed")
)

// New returns a token for a user valid from now for ttl.
func New(userName, userID string, now time.Time, ttl time.Duration) *Token {
	return &Token{
		Subject:   userName,
		UserID:    userID,
		Audience:  Audience,
		ID:        uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

// Mint signs token. The result is the CBOR payload with the
// signature appended.
func Mint(privateKey ed25519.PrivateKey, token *Token) ([]byte, error) {
	payload, err := codec.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("sessiontoken: encoding: %w", err)
	}
	return append(payload, ed25519.Sign(privateKey, payload)...), nil
}

// VerifyAt checks the signature of tokenBytes and that the token is
// unexpired at now.
func VerifyAt(publicKey ed25519.PublicKey, tokenBytes []byte, now time.Time) (*Token, error) {
	cut := len(tokenBytes) - ed25519.SignatureSize
	if cut <= 0 {
		return nil, ErrTokenTooShort
	}
	if !ed25519.Verify(publicKey, tokenBytes[:cut], tokenBytes[cut:]) {
		return nil, ErrInvalidSignature
	}
	token := new(Token)
	if err := codec.Unmarshal(tokenBytes[:cut], token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !now.Before(time.Unix(token.ExpiresAt, 0)) {
		return nil, ErrTokenExpired
	}
	return token, nil
}

// VerifyForAudienceAt is VerifyAt plus an audience check.
func VerifyForAudienceAt(publicKey ed25519.PublicKey, tokenBytes []byte, audience string, now time.Time) (*Token, error) {
	token, err := VerifyAt(publicKey, tokenBytes, now)
	if err != nil {
		return nil, err
	}
	if token.Audience != audience {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrAudienceMismatch, token.Audience, audience)
	}
	return token, nil
}

// Encode renders token bytes for transport in headers, cookies, and
// URLs.
func Encode(tokenBytes []byte) string {
	return base64.RawURLEncoding.EncodeToString(tokenBytes)
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	tokenBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return tokenBytes, nil
}

// Verifier checks encoded tokens against one public key and audience.
type Verifier struct {
	publicKey ed25519.PublicKey
	now       func() time.Time
}

// NewVerifier returns a Verifier that reads the current time from now.
func NewVerifier(publicKey ed25519.PublicKey, now func() time.Time) *Verifier {
	if len(publicKey) != ed25519.PublicKeySize {
		panic("sessiontoken: invalid public key")
	}
	return &Verifier{publicKey: publicKey, now: now}
}

// Verify decodes and verifies an encoded token for the kanban
// audience.
func (v *Verifier) Verify(encoded string) (*Token, error) {
	tokenBytes, err := Decode(encoded)
	if err != nil {
		return nil, err
	}
	return VerifyForAudienceAt(v.publicKey, tokenBytes, Audience, v.now())
}
