// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
	"testing/iotest"
)

func TestReadRequestBodyLimit(t *testing.T) {
	tests := []struct {
		body   string
		want   string
		tooBig bool
	}{
		{body: "", want: ""},
		{body: `{"action":"opened"}`, want: `{"action":"opened"}`},
		{body: strings.Repeat("x", 64), want: strings.Repeat("x", 64)},
		{body: strings.Repeat("x", 65), tooBig: true},
	}
	for _, test := range tests {
		data, err := ReadRequestBody(strings.NewReader(test.body), 64)
		if test.tooBig {
			if !errors.Is(err, ErrBodyTooLarge) {
				t.Errorf("%d bytes: err = %v, want ErrBodyTooLarge", len(test.body), err)
			}
			continue
		}
		if err != nil || string(data) != test.want {
			t.Errorf("%d bytes: got %q, %v", len(test.body), data, err)
		}
	}

	if _, err := ReadRequestBody(iotest.ErrReader(io.ErrUnexpectedEOF), 64); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("failing reader: err = %v", err)
	}
}

func TestReadResponseCaps(t *testing.T) {
	data, err := ReadResponse(strings.NewReader(`[{"number":7}]`))
	if err != nil || string(data) != `[{"number":7}]` {
		t.Fatalf("ReadResponse = %q, %v", data, err)
	}

	data, over, err := readCapped(strings.NewReader("abcdef"), 4)
	if err != nil || !over || string(data) != "abcd" {
		t.Errorf("readCapped = %q, %v, %v; want abcd, true, nil", data, over, err)
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.EOF, true},
		{fmt.Errorf("reading frame: %w", io.EOF), true},
		{net.ErrClosed, true},
		{&net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{&net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, false},
		{errors.New("bad frame opcode"), false},
	}
	for _, test := range tests {
		if got := IsExpectedCloseError(test.err); got != test.want {
			t.Errorf("IsExpectedCloseError(%v) = %v, want %v", test.err, got, test.want)
		}
	}
}
