// Package compression wraps zstd for the persisted metadata table.
package compression

import (
	"github.com/klauspost/compress/zstd"
)

// Payloads smaller than this are stored as-is.
const minCompressSize = 128

var (
	encoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	decoder, _ = zstd.NewReader(nil)
)

// Compress returns data compressed with zstd, or the input unchanged when
// compression would not shrink it.
func Compress(data []byte) []byte {
	if len(data) < minCompressSize {
		return data
	}

	compressed := encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return data
	}
	return compressed
}

// Decompress reverses Compress. Data that is not a zstd frame is passed
// through unchanged so uncompressed payloads stay readable.
func Decompress(data []byte) []byte {
	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return data
	}
	return decompressed
}
