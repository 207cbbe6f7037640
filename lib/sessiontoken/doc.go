// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessiontoken mints and verifies the signed tokens that
// authenticate realtime channel connections.
//
// A token is a CBOR-encoded [Token] followed by a 64-byte Ed25519
// signature. The service holds the public key; kanban-admin holds the
// private key and mints tokens for users. On the wire the bytes travel
// as unpadded base64url (see [Encode] and [Decode]) in a bearer header,
// a cookie, or a query parameter.
//
// Verification checks the signature, the expiry, and the audience.
// Tokens carry no grants: every authenticated user may act on every
// project they can name.
package sessiontoken
