package gse2

import (
	"bufio"
	"io"

	"github.com/ssargent/gse2/pkg/codec"
)

// DefaultScanLimit bounds the number of lines and records the reader visits
// in one container. It guards against corrupt or endless inputs; reaching it
// marks the resulting stream as truncated.
const DefaultScanLimit = 1000000

// RecordCodec decodes and encodes single records of a container
type RecordCodec interface {
	// DecodeHeader reads one record header and leaves r at the payload
	DecodeHeader(r *bufio.Reader) (codec.Header, error)

	// Decode reads one complete record
	Decode(r *bufio.Reader, verifyChecksum bool) (codec.Header, []int32, error)

	// Encode appends one complete record to w
	Encode(w io.Writer, h codec.Header, samples []int32, opts codec.EncodeOptions) error
}

// ReadOptions configures a container read. The zero value does not verify
// checksums; DefaultReadOptions does, as does the config default.
type ReadOptions struct {
	HeadersOnly    bool        // Decode headers and skip payload samples
	VerifyChecksum bool        // Fail on CHK2 mismatch
	ScanLimit      int         // Iteration cap (0 = DefaultScanLimit)
	Codec          RecordCodec // Record codec (nil = codec.NewRecordCodec())
}

// DefaultReadOptions returns full reads with checksum verification
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		VerifyChecksum: true,
		ScanLimit:      DefaultScanLimit,
	}
}

func (o ReadOptions) codec() RecordCodec {
	if o.Codec == nil {
		return codec.NewRecordCodec()
	}
	return o.Codec
}

func (o ReadOptions) scanLimit() int {
	if o.ScanLimit <= 0 {
		return DefaultScanLimit
	}
	return o.ScanLimit
}

// WriteOptions configures a container write
type WriteOptions struct {
	Encode codec.EncodeOptions // Passed through to the codec
	Codec  RecordCodec         // Record codec (nil = codec.NewRecordCodec())
}

func (o WriteOptions) codec() RecordCodec {
	if o.Codec == nil {
		return codec.NewRecordCodec()
	}
	return o.Codec
}

// ContainerError represents a failure converting between records and traces
type ContainerError struct {
	Message string
}

func (e *ContainerError) Error() string {
	return e.Message
}

// Errors
var (
	ErrTimestamp   = &ContainerError{"start time cannot be represented"}
	ErrSampleRange = &ContainerError{"sample does not fit 32 bits"}

	// Codec errors surfaced by Read and Write. A required field missing from
	// a header is ErrFieldMapping whether the codec or the mapping finds it.
	ErrFieldMapping = codec.ErrMissingField
	ErrFraming      = codec.ErrFraming
	ErrChecksum     = codec.ErrChecksum
)
