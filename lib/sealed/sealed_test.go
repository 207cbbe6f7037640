// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"encoding/base64"
	"strings"
	"testing"
)

func generate(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func TestGenerateKeypair(t *testing.T) {
	keypair := generate(t)
	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Error("private key lacks AGE-SECRET-KEY-1 prefix")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want age1 prefix", keypair.PublicKey)
	}
	if other := generate(t); other.PublicKey == keypair.PublicKey {
		t.Error("two generated keypairs share a public key")
	}
}

func TestEncryptDecryptToken(t *testing.T) {
	keypair := generate(t)

	ciphertext, err := Encrypt([]byte("ghp_repositorytoken"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.Contains(ciphertext, "ghp_") {
		t.Fatal("ciphertext contains the plaintext")
	}

	plaintext, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer plaintext.Close()
	if plaintext.String() != "ghp_repositorytoken" {
		t.Errorf("plaintext = %q, want ghp_repositorytoken", plaintext.String())
	}
}

func TestDecryptFailures(t *testing.T) {
	keypair := generate(t)
	other := generate(t)

	ciphertext, err := Encrypt([]byte("token"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	empty, err := Encrypt(nil, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt(empty): %v", err)
	}

	tests := []struct {
		name       string
		ciphertext string
		keypair    *Keypair
	}{
		{"wrong key", ciphertext, other},
		{"invalid base64", "not base64 !!", keypair},
		{"not age", base64.StdEncoding.EncodeToString([]byte("plain text")), keypair},
		{"empty plaintext", empty, keypair},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decrypt(test.ciphertext, test.keypair.PrivateKey); err == nil {
				t.Error("Decrypt succeeded")
			}
		})
	}
}

func TestEncryptRejectsBadRecipients(t *testing.T) {
	if _, err := Encrypt([]byte("x"), nil); err == nil {
		t.Error("Encrypt with no recipients succeeded")
	}
	if _, err := Encrypt([]byte("x"), []string{"age1invalid"}); err == nil {
		t.Error("Encrypt with an invalid recipient succeeded")
	}
}

func TestSaveAndLoadKeypair(t *testing.T) {
	stateDir := t.TempDir()
	keypair := generate(t)

	exists, err := KeypairExists(stateDir)
	if err != nil || exists {
		t.Fatalf("KeypairExists before save = %v, %v", exists, err)
	}
	if err := SaveKeypair(stateDir, keypair); err != nil {
		t.Fatalf("SaveKeypair: %v", err)
	}
	if err := SaveKeypair(stateDir, keypair); err == nil {
		t.Error("second SaveKeypair overwrote the identity")
	}

	recipient, err := LoadRecipient(stateDir)
	if err != nil {
		t.Fatalf("LoadRecipient: %v", err)
	}
	if recipient != keypair.PublicKey {
		t.Errorf("recipient = %q, want %q", recipient, keypair.PublicKey)
	}

	identity, err := LoadIdentity(stateDir)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	defer identity.Close()

	ciphertext, err := Encrypt([]byte("token"), []string{recipient})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	plaintext, err := Decrypt(ciphertext, identity)
	if err != nil {
		t.Fatalf("Decrypt with loaded identity: %v", err)
	}
	plaintext.Close()
}
