// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds one secret in a locked, non-dumpable mapping. It must
// not be copied.
type Buffer struct {
	mu     sync.Mutex
	region []byte // nil after Close
}

// NewFromBytes moves source into a new Buffer: the bytes are copied
// into locked memory and source is zeroed.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errors.New("secret: empty secret")
	}
	region, err := lockedRegion(len(source))
	if err != nil {
		return nil, err
	}
	copy(region, source)
	Zero(source)
	return &Buffer{region: region}, nil
}

// lockedRegion maps size bytes outside the Go heap, pinned in RAM and
// left out of core dumps.
func lockedRegion(size int) ([]byte, error) {
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}
	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(region)
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: madvise: %w", err)
	}
	return region, nil
}

// Bytes returns the locked bytes. The slice dies with the Buffer.
// Panics after Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		panic("secret: buffer used after Close")
	}
	return b.region
}

// String returns a heap copy for string-only APIs such as age
// identities. Panics after Close.
func (b *Buffer) String() string {
	value, ok := b.TryString()
	if !ok {
		panic("secret: buffer used after Close")
	}
	return value
}

// TryString is String for readers that can race with Close.
func (b *Buffer) TryString() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		return "", false
	}
	return string(b.region), true
}

// Close zeroes and releases the mapping. Later calls do nothing.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		return nil
	}
	region := b.region
	b.region = nil
	Zero(region)
	return errors.Join(unix.Munlock(region), unix.Munmap(region))
}

// Zero clears data in place.
func Zero(data []byte) {
	clear(data)
}
