//go:build fuzz
// +build fuzz

package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"testing"
)

// samplesFromBytes turns fuzz input into int32 samples, four bytes each
func samplesFromBytes(data []byte) []int32 {
	samples := make([]int32, 0, len(data)/4)
	for len(data) >= 4 {
		samples = append(samples, int32(binary.LittleEndian.Uint32(data)))
		data = data[4:]
	}
	return samples
}

// FuzzRecordCodec_RoundTrip tests encode/decode round-trip with random samples
func FuzzRecordCodec_RoundTrip(f *testing.F) {
	codec := NewRecordCodec()

	f.Add([]byte{}, false)
	f.Add([]byte{1, 0, 0, 0, 2, 0, 0, 0}, false)
	f.Add([]byte{0xff, 0xff, 0xff, 0x7f, 0x00, 0x00, 0x00, 0x80}, true)

	f.Fuzz(func(t *testing.T, data []byte, useINT bool) {
		if len(data) > 400000 {
			t.Skip("Input too large for fuzz test")
		}
		samples := samplesFromBytes(data)

		opts := EncodeOptions{}
		if useINT {
			opts.DataType = DataTypeINT
		}

		var buf bytes.Buffer
		if err := codec.Encode(&buf, testHeader(), samples, opts); err != nil {
			t.Fatalf("Encode failed for %d samples: %v", len(samples), err)
		}

		_, got, err := codec.Decode(bufio.NewReader(&buf), true)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}

		if len(got) != len(samples) {
			t.Fatalf("Sample count mismatch: got %d, want %d", len(got), len(samples))
		}
		for i := range samples {
			if got[i] != samples[i] {
				t.Fatalf("Sample %d mismatch: got %d, want %d", i, got[i], samples[i])
			}
		}
	})
}

// FuzzRecordCodec_MalformedData tests handling of malformed input
func FuzzRecordCodec_MalformedData(f *testing.F) {
	codec := NewRecordCodec()

	f.Add([]byte{})
	f.Add([]byte("WID2"))
	f.Add([]byte("WID2 2005/08/31 02:33:49.450 RJOB  SHZ      CM6        3\nDAT2\n-++\nCHK2 6\n"))
	f.Add([]byte("WID2 2005/08/31 02:33:49.450 RJOB  SHZ      INT        2\nDAT2\n1\nCHK2 1\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		// The important thing is that it doesn't panic
		_, _, err := codec.Decode(bufio.NewReader(bytes.NewReader(data)), true)
		if err == nil {
			t.Logf("Decoded %d bytes of fuzz input", len(data))
		}
	})
}
