// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts GitHub access tokens at rest with age.
//
// kanban-admin seals a repository token to the service's age recipient
// when it links a project to a repository, and the project document
// keeps the ciphertext as base64. The service unseals it only while
// building a GitHub client. Identities and plaintext live in
// [secret.Buffer] values.
//
// The identity file tracker-identity (0600) and its recipient
// tracker-identity.pub sit in the state directory.
package sealed

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"

	"github.com/bureau-foundation/kanban/lib/secret"
)

// Encrypt seals plaintext to every recipient and returns standard
// base64.
func Encrypt(plaintext []byte, recipientKeys []string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", errors.New("sealed: no recipients")
	}
	recipients, err := parseRecipients(recipientKeys)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	encoder := base64.NewEncoder(base64.StdEncoding, &out)
	sealer, err := age.Encrypt(encoder, recipients...)
	if err != nil {
		return "", fmt.Errorf("sealed: encrypt: %w", err)
	}
	if _, err := sealer.Write(plaintext); err != nil {
		return "", fmt.Errorf("sealed: encrypt: %w", err)
	}
	// The age trailer must be flushed before the base64 padding.
	if err := errors.Join(sealer.Close(), encoder.Close()); err != nil {
		return "", fmt.Errorf("sealed: encrypt: %w", err)
	}
	return out.String(), nil
}

// Decrypt unseals base64 ciphertext. privateKey is borrowed; the
// returned buffer belongs to the caller. Empty plaintext is an error.
func Decrypt(ciphertext string, privateKey *secret.Buffer) (*secret.Buffer, error) {
	identity, err := parseIdentity(privateKey)
	if err != nil {
		return nil, err
	}
	decoded := base64.NewDecoder(base64.StdEncoding, strings.NewReader(ciphertext))
	opened, err := age.Decrypt(decoded, identity)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(opened)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: decrypt: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, errors.New("sealed: sealed value is empty")
	}
	locked, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: locking plaintext: %w", err)
	}
	return locked, nil
}
