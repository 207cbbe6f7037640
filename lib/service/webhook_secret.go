// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// WebhookSecretSize is the length of a derived webhook secret.
const WebhookSecretSize = 32

// webhookSecretInfo is the HKDF info prefix. The project ID is
// appended so each linked repository gets an independent secret.
const webhookSecretInfo = "kanban.webhook.v1:"

// DeriveWebhookSecret derives the HMAC secret a single project's
// repository webhook is configured with. The operator keeps one
// master secret; each project's secret is HKDF-SHA256(master,
// info=prefix+projectID), so a leaked per-project secret reveals
// nothing about other projects.
func DeriveWebhookSecret(master []byte, projectID string) ([]byte, error) {
	if len(master) == 0 {
		return nil, errors.New("webhook secret: master secret is empty")
	}
	if projectID == "" {
		return nil, errors.New("webhook secret: project ID is empty")
	}
	reader := hkdf.New(sha256.New, master, nil, []byte(webhookSecretInfo+projectID))
	derived := make([]byte, WebhookSecretSize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("webhook secret: HKDF derivation failed: %w", err)
	}
	return derived, nil
}

// ProjectWebhookSecret returns a project's derived secret in hex. The
// hex string is what the repository webhook is configured with, so it
// is also the HMAC key deliveries are verified against.
func ProjectWebhookSecret(master []byte, projectID string) (string, error) {
	derived, err := DeriveWebhookSecret(master, projectID)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(derived), nil
}
