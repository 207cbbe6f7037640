// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import "testing"

func TestNewFromBytesMovesSource(t *testing.T) {
	source := []byte("AGE-SECRET-KEY-1EXAMPLE")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "AGE-SECRET-KEY-1EXAMPLE" {
		t.Errorf("String = %q", got)
	}
	if string(buffer.Bytes()) != "AGE-SECRET-KEY-1EXAMPLE" {
		t.Errorf("Bytes = %q", buffer.Bytes())
	}
	for i, b := range source {
		if b != 0 {
			t.Fatalf("source byte %d survived", i)
		}
	}
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) succeeded")
	}
}

func TestCloseZeroesAndIsIdempotent(t *testing.T) {
	buffer, err := NewFromBytes([]byte("ghp_token"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := buffer.TryString(); ok {
		t.Error("TryString succeeded after Close")
	}
}

func TestUseAfterClosePanics(t *testing.T) {
	buffer, err := NewFromBytes([]byte("ghp_token"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	buffer.Close()

	for name, use := range map[string]func(){
		"Bytes":  func() { buffer.Bytes() },
		"String": func() { _ = buffer.String() },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s after Close did not panic", name)
				}
			}()
			use()
		})
	}
}
