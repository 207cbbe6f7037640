// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessiontoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// The private file holds the 32-byte seed; the public half is kept
// beside it so the service never reads the seed.
const (
	seedFile      = "session-signing-key"
	publicKeyFile = "session-signing-key.pub"
)

// GenerateKeypair creates a signing keypair.
func GenerateKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("sessiontoken: generating keypair: %w", err)
	}
	return public, private, nil
}

// LoadKeypair reads the keypair from stateDir and checks that the two
// files belong together.
func LoadKeypair(stateDir string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	seed, err := readKeyFile(stateDir, seedFile, ed25519.SeedSize)
	if err != nil {
		return nil, nil, err
	}
	public, err := LoadPublicKey(stateDir)
	if err != nil {
		return nil, nil, err
	}
	private := ed25519.NewKeyFromSeed(seed)
	if !public.Equal(private.Public()) {
		return nil, nil, fmt.Errorf("sessiontoken: %s does not match %s", publicKeyFile, seedFile)
	}
	return public, private, nil
}

// LoadPublicKey reads only the verification key.
func LoadPublicKey(stateDir string) (ed25519.PublicKey, error) {
	public, err := readKeyFile(stateDir, publicKeyFile, ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	return ed25519.PublicKey(public), nil
}

// LoadOrGenerateKeypair loads the keypair, creating one on first run.
// generated reports which happened. A half-present keypair is an
// error, not a first run.
func LoadOrGenerateKeypair(stateDir string) (public ed25519.PublicKey, private ed25519.PrivateKey, generated bool, err error) {
	_, statErr := os.Stat(filepath.Join(stateDir, seedFile))
	if !errors.Is(statErr, fs.ErrNotExist) {
		public, private, err = LoadKeypair(stateDir)
		return public, private, false, err
	}

	public, private, err = GenerateKeypair()
	if err != nil {
		return nil, nil, false, err
	}
	if err := os.WriteFile(filepath.Join(stateDir, seedFile), private.Seed(), 0o600); err != nil {
		return nil, nil, false, fmt.Errorf("sessiontoken: saving seed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, publicKeyFile), public, 0o644); err != nil {
		return nil, nil, false, fmt.Errorf("sessiontoken: saving public key: %w", err)
	}
	return public, private, true, nil
}

func readKeyFile(stateDir, name string, size int) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, name))
	if err != nil {
		return nil, fmt.Errorf("sessiontoken: %w", err)
	}
	if len(data) != size {
		return nil, fmt.Errorf("sessiontoken: %s holds %d bytes, want %d", name, len(data), size)
	}
	return data, nil
}
