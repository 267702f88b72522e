package gse2

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/ssargent/gse2/pkg/logger"
	"github.com/ssargent/gse2/pkg/trace"
)

// WriteFile writes the stream to path, replacing any existing file. A path
// ending in .gz is gzip compressed. On failure the file keeps every record
// written before the failing trace.
func WriteFile(s *trace.Stream, path string, opts WriteOptions) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return Write(s, file, opts)
	}

	zw := gzip.NewWriter(file)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Write(s, zw, opts)
}

// Write encodes each trace of the stream as one record, in order. Records
// are flushed to w as they are encoded; there is no rollback when a later
// trace fails.
func Write(s *trace.Stream, w io.Writer, opts WriteOptions) error {
	log := logger.Get("gse2")
	cdc := opts.codec()
	bw := bufio.NewWriter(w)

	for i, tr := range s.Traces {
		if err := tr.Validate(); err != nil {
			return fmt.Errorf("trace %d: %w", i, err)
		}

		hdr := headerFromTrace(tr)
		if err := putStartTime(hdr, tr.StartTime); err != nil {
			return fmt.Errorf("trace %d: %w", i, err)
		}

		samples, err := narrowSamples(tr.Samples)
		if err != nil {
			return fmt.Errorf("trace %d: %w", i, err)
		}

		if err := cdc.Encode(bw, hdr, samples, opts.Encode); err != nil {
			return fmt.Errorf("trace %d: %w", i, err)
		}
		if err := bw.Flush(); err != nil {
			return err
		}

		log.Debug().
			Int("record", i).
			Str("station", tr.Station).
			Str("channel", tr.Channel).
			Int("samples", len(samples)).
			Msg("encoded record")
	}

	return nil
}

// narrowSamples returns a new contiguous int32 copy of samples; the input is
// never modified
func narrowSamples(samples []int) ([]int32, error) {
	out := make([]int32, len(samples))
	for i, s := range samples {
		if s < math.MinInt32 || s > math.MaxInt32 {
			return nil, fmt.Errorf("%w: sample %d is %d", ErrSampleRange, i, s)
		}
		out[i] = int32(s)
	}
	return out, nil
}
