// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the kanban service's CBOR encoding
// configuration and the compressed envelope used for stored project
// documents.
//
// JSON is used on the wire (realtime channel frames, webhook bodies,
// acknowledgements). CBOR is used internally: project documents in the
// store and session token payloads. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2), so the same logical document
// always produces identical bytes and the store can compare revision
// digests to skip unchanged writes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Documents are wrapped in a one-byte tagged envelope before they are
// written:
//
//	sealed, err := codec.Compress(data, codec.CompressionZstd)
//	data, err = codec.Decompress(sealed)
//
// Compress falls back to CompressionNone when the payload does not
// shrink, so Decompress never needs to know which algorithm the writer
// was configured with.
//
// # Struct Tag Rules
//
// Types that are only ever stored carry `cbor` tags. Types that also
// travel as JSON (kanban.Issue, kanban.Member) carry `json` tags only:
// fxamacker/cbor v2 falls back to `json` tags when `cbor` tags are
// absent. Never use both on the same field, with one exception: a
// field that is stored but must never reach a client is tagged
// `cbor:"name" json:"-"` (kanban.Tracker.SealedToken).
package codec
