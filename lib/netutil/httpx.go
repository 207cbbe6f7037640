// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP body reads and classifies connection
// teardown errors for the tracker client and the service transports.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize caps tracker API response reads. A page of 100
// issues with long bodies is a few megabytes.
const MaxResponseSize int64 = 32 << 20

// ErrBodyTooLarge reports an inbound body over its limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadResponse reads a response body, stopping silently at
// MaxResponseSize.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, _, err := readCapped(body, MaxResponseSize)
	return data, err
}

// ReadRequestBody reads an inbound body of at most limit bytes. A
// longer body is an error rather than a truncation: a cut webhook
// payload would fail its signature check for the wrong reason.
func ReadRequestBody(body io.Reader, limit int64) ([]byte, error) {
	data, over, err := readCapped(body, limit)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if over {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// readCapped reads up to limit bytes and reports whether more
// followed.
func readCapped(body io.Reader, limit int64) (data []byte, over bool, err error) {
	data, err = io.ReadAll(io.LimitReader(body, limit+1))
	if int64(len(data)) > limit {
		return data[:limit], true, err
	}
	return data, false, err
}
