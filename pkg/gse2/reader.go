package gse2

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/logger"
	"github.com/ssargent/gse2/pkg/trace"
)

const readBufferSize = 64 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// ReadFile reads every record of the container at path. Gzip compressed
// containers are decompressed transparently.
func ReadFile(path string, opts ReadOptions) (*trace.Stream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, readBufferSize)
	head, _ := br.Peek(len(gzipMagic))
	if !bytes.Equal(head, gzipMagic) {
		return readBuffered(br, opts)
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("open gzip container: %w", err)
	}
	defer zr.Close()

	return Read(zr, opts)
}

// Read scans r for WID2 records and returns them as a stream in file order.
// Lines that do not start a record are skipped. Any record that fails to
// decode aborts the whole read.
func Read(r io.Reader, opts ReadOptions) (*trace.Stream, error) {
	return readBuffered(bufio.NewReaderSize(r, readBufferSize), opts)
}

func readBuffered(br *bufio.Reader, opts ReadOptions) (*trace.Stream, error) {
	log := logger.Get("gse2")
	cdc := opts.codec()
	limit := opts.scanLimit()
	magic := []byte(codec.Magic)
	stream := trace.NewStream()

	for i := 0; ; i++ {
		head, err := br.Peek(len(magic))
		if len(head) == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		if i >= limit {
			stream.Truncated = true
			log.Warn().
				Int("limit", limit).
				Int("records", stream.Len()).
				Msg("scan limit reached, stream truncated")
			break
		}

		if !bytes.Equal(head, magic) {
			if err := skipLine(br); err != nil {
				return nil, err
			}
			continue
		}

		var (
			hdr     codec.Header
			samples []int32
		)
		if opts.HeadersOnly {
			hdr, err = cdc.DecodeHeader(br)
		} else {
			hdr, samples, err = cdc.Decode(br, opts.VerifyChecksum)
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", stream.Len(), err)
		}

		tr, err := traceFromHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", stream.Len(), err)
		}
		if !opts.HeadersOnly {
			tr.Samples = widenSamples(samples)
		}

		log.Debug().
			Int("record", stream.Len()).
			Str("station", tr.Station).
			Str("channel", tr.Channel).
			Int("samples", tr.SampleCount).
			Msg("decoded record")

		stream.Append(tr)
	}

	return stream, nil
}

// skipLine discards input up to and including the next newline
func skipLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func widenSamples(samples []int32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(s)
	}
	return out
}
