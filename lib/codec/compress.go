// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the first byte of an envelope. Values are persisted
// and must never be renumbered.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
	CompressionLZ4  Compression = 2
)

var compressionNames = map[Compression]string{
	CompressionNone: "none",
	CompressionZstd: "zstd",
	CompressionLZ4:  "lz4",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps a store.compression setting to a Compression.
// The empty string selects zstd.
func ParseCompression(name string) (Compression, error) {
	if name == "" {
		return CompressionZstd, nil
	}
	for compression, known := range compressionNames {
		if known == name {
			return compression, nil
		}
	}
	return 0, fmt.Errorf("codec: unknown compression %q (want none, zstd, or lz4)", name)
}

const (
	// maxDocumentSize bounds the declared size of an envelope. Larger
	// headers are treated as corruption.
	maxDocumentSize = 64 << 20

	// envelopeHeader is the tag byte and a big-endian uint32 length.
	envelopeHeader = 5
)

// algorithm packs and unpacks one envelope payload. pack returns nil
// when the output would not be smaller than the input.
type algorithm struct {
	pack   func(data []byte) []byte
	unpack func(payload []byte, size int) ([]byte, error)
}

var algorithms = map[Compression]algorithm{
	CompressionZstd: {pack: packZstd, unpack: unpackZstd},
	CompressionLZ4:  {pack: packLZ4, unpack: unpackLZ4},
}

// Compress wraps data in an envelope. Data that the chosen algorithm
// cannot shrink is stored under CompressionNone, so readers never need
// the writer's setting.
func Compress(data []byte, compression Compression) ([]byte, error) {
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("codec: document of %d bytes exceeds %d", len(data), maxDocumentSize)
	}
	payload := data
	if compression != CompressionNone {
		algo, ok := algorithms[compression]
		if !ok {
			return nil, fmt.Errorf("codec: unsupported compression tag: %d", compression)
		}
		if packed := algo.pack(data); packed != nil {
			payload = packed
		} else {
			compression = CompressionNone
		}
	}

	envelope := make([]byte, envelopeHeader, envelopeHeader+len(payload))
	envelope[0] = byte(compression)
	binary.BigEndian.PutUint32(envelope[1:], uint32(len(data)))
	return append(envelope, payload...), nil
}

// Decompress opens an envelope written by Compress.
func Decompress(envelope []byte) ([]byte, error) {
	if len(envelope) < envelopeHeader {
		return nil, fmt.Errorf("codec: envelope too short (%d bytes)", len(envelope))
	}
	compression := Compression(envelope[0])
	size := int(binary.BigEndian.Uint32(envelope[1:envelopeHeader]))
	payload := envelope[envelopeHeader:]
	if size > maxDocumentSize {
		return nil, fmt.Errorf("codec: envelope declares %d bytes, exceeds %d", size, maxDocumentSize)
	}

	if compression == CompressionNone {
		if len(payload) != size {
			return nil, fmt.Errorf("codec: stored envelope holds %d bytes, header says %d", len(payload), size)
		}
		return append([]byte(nil), payload...), nil
	}
	algo, ok := algorithms[compression]
	if !ok {
		return nil, fmt.Errorf("codec: unsupported compression tag: %d", compression)
	}
	data, err := algo.unpack(payload, size)
	if err != nil {
		return nil, fmt.Errorf("codec: %s: %w", compression, err)
	}
	if len(data) != size {
		return nil, fmt.Errorf("codec: %s produced %d bytes, header says %d", compression, len(data), size)
	}
	return data, nil
}

// MarshalCompressed encodes v as CBOR inside an envelope.
func MarshalCompressed(v any, compression Compression) ([]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	return Compress(data, compression)
}

// UnmarshalCompressed decodes an envelope written by MarshalCompressed.
func UnmarshalCompressed(envelope []byte, v any) error {
	data, err := Decompress(envelope)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: unmarshal: %w", err)
	}
	return nil
}

// The zstd encoder and decoder are shared; EncodeAll and DecodeAll are
// safe for concurrent use.
var (
	zstdWriter = must(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)))
	zstdReader = must(zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDocumentSize)))
)

func must[T any](value T, err error) T {
	if err != nil {
		panic("codec: " + err.Error())
	}
	return value
}

func packZstd(data []byte) []byte {
	packed := zstdWriter.EncodeAll(data, nil)
	if len(packed) >= len(data) {
		return nil
	}
	return packed
}

func unpackZstd(payload []byte, size int) ([]byte, error) {
	return zstdReader.DecodeAll(payload, make([]byte, 0, size))
}

func packLZ4(data []byte) []byte {
	packed := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, packed, nil)
	// Zero written bytes means the block is incompressible.
	if err != nil || written == 0 || written >= len(data) {
		return nil
	}
	return packed[:written]
}

func unpackLZ4(payload []byte, size int) ([]byte, error) {
	data := make([]byte, size)
	read, err := lz4.UncompressBlock(payload, data)
	if err != nil {
		return nil, err
	}
	return data[:read], nil
}
