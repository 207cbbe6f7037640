// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/bureau-foundation/kanban/lib/secret"
)

const (
	identityFile  = "tracker-identity"
	recipientFile = "tracker-identity.pub"
)

// Keypair is an age x25519 identity and its recipient.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... identity. Never log it.
	PrivateKey *secret.Buffer

	// PublicKey is the age1... recipient.
	PublicKey string
}

// Close releases the identity. Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey == nil {
		return nil
	}
	return k.PrivateKey.Close()
}

// GenerateKeypair creates a fresh identity.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("sealed: generating identity: %w", err)
	}
	// age hands the identity out as a string only; that copy stays on
	// the heap until collected.
	locked, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("sealed: locking identity: %w", err)
	}
	return &Keypair{PrivateKey: locked, PublicKey: identity.Recipient().String()}, nil
}

// SaveKeypair stores keypair under stateDir. An existing identity is
// never replaced: every token sealed to it would become unreadable.
func SaveKeypair(stateDir string, keypair *Keypair) error {
	if err := createExclusive(filepath.Join(stateDir, identityFile), keypair.PrivateKey.Bytes()); err != nil {
		return fmt.Errorf("sealed: saving identity: %w", err)
	}
	recipient := []byte(keypair.PublicKey + "\n")
	if err := os.WriteFile(filepath.Join(stateDir, recipientFile), recipient, 0o644); err != nil {
		return fmt.Errorf("sealed: saving recipient: %w", err)
	}
	return nil
}

func createExclusive(path string, content []byte) (err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, file.Close()) }()
	_, err = file.Write(content)
	return err
}

// KeypairExists reports whether stateDir holds an identity.
func KeypairExists(stateDir string) (bool, error) {
	switch _, err := os.Stat(filepath.Join(stateDir, identityFile)); {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("sealed: probing identity: %w", err)
	}
}

// LoadIdentity reads the identity from stateDir and checks that age
// accepts it. The caller owns the returned buffer.
func LoadIdentity(stateDir string) (*secret.Buffer, error) {
	locked, err := secret.ReadFile(filepath.Join(stateDir, identityFile))
	if err != nil {
		return nil, fmt.Errorf("sealed: loading identity: %w", err)
	}
	if _, err := parseIdentity(locked); err != nil {
		locked.Close()
		return nil, err
	}
	return locked, nil
}

// LoadRecipient reads the recipient from stateDir.
func LoadRecipient(stateDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, recipientFile))
	if err != nil {
		return "", fmt.Errorf("sealed: loading recipient: %w", err)
	}
	recipient := strings.TrimSpace(string(data))
	if err := ParsePublicKey(recipient); err != nil {
		return "", err
	}
	return recipient, nil
}

// ParsePublicKey validates an age recipient string.
func ParsePublicKey(publicKey string) error {
	_, err := parseRecipients([]string{publicKey})
	return err
}

func parseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, len(keys))
	for i, key := range keys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("sealed: bad recipient %q: %w", key, err)
		}
		recipients[i] = recipient
	}
	return recipients, nil
}

func parseIdentity(locked *secret.Buffer) (age.Identity, error) {
	identity, err := age.ParseX25519Identity(locked.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: bad identity: %w", err)
	}
	return identity, nil
}
