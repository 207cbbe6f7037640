// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	key := []byte("0f1e2d3c")
	body := []byte(`{"action":"labeled","issue":{"number":7}}`)
	valid := Sign(key, body)

	tests := []struct {
		name   string
		key    []byte
		body   []byte
		header string
		want   error
	}{
		{"valid", key, body, valid, nil},
		{"missing", key, body, "", ErrSignatureMissing},
		{"no prefix", key, body, strings.TrimPrefix(valid, "sha256="), ErrSignatureMalformed},
		{"sha1", key, body, "sha1=" + strings.TrimPrefix(valid, "sha256="), ErrSignatureMalformed},
		{"not hex", key, body, "sha256=zz", ErrSignatureMalformed},
		{"truncated", key, body, valid[:len(valid)-2], ErrSignatureMalformed},
		{"other key", []byte("another"), body, valid, ErrSignatureMismatch},
		{"tampered body", key, []byte(`{"action":"unlabeled"}`), valid, ErrSignatureMismatch},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := VerifySignature(test.key, test.body, test.header); !errors.Is(err, test.want) {
				t.Errorf("got %v, want %v", err, test.want)
			}
		})
	}
}
