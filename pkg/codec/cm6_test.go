package codec

import (
	"bufio"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestAppendCM6_KnownValues(t *testing.T) {
	testCases := []struct {
		value int64
		want  string
	}{
		{0, "+"},
		{1, "-"},
		{15, "D"},
		{-1, "F"},
		{16, "UE"},
		{-16, "kE"},
	}

	for _, tc := range testCases {
		if got := string(appendCM6(nil, tc.value)); got != tc.want {
			t.Errorf("appendCM6(%d) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestCM6_ValueRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 15, -15, 16, -16, 31, 32, 511, 512, -513, 1 << 20, -(1 << 30), 4 * math.MaxInt32, -4 * math.MaxInt32}

	for _, v := range values {
		d := newCM6Decoder(1)
		if err := d.feed(string(appendCM6(nil, v))); err != nil {
			t.Fatalf("feed(%d) failed: %v", v, err)
		}
		if !d.done() || d.values[0] != v {
			t.Errorf("Round trip of %d gave %v", v, d.values)
		}
	}
}

func TestDiff2_Reversible(t *testing.T) {
	samples := []int32{3, -7, 11, math.MaxInt32, math.MinInt32, 0, 5}
	got, err := undiff2(diff2(samples))
	if err != nil {
		t.Fatalf("undiff2 failed: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}

	if d := diff2([]int32{1, 2, 3}); d[0] != 1 || d[1] != 0 || d[2] != 0 {
		t.Errorf("Unexpected second differences %v", d)
	}
}

func TestReadCM6_AcrossLines(t *testing.T) {
	samples := []int32{100000, -200000, 300000, 12, 0, -5}
	lines := EncodeCM6(samples, 3)
	if len(lines) < 2 {
		t.Fatalf("Expected payload to wrap, got %v", lines)
	}

	payload := strings.Join(lines, "\n") + "\n"
	got, err := readCM6(bufio.NewReader(strings.NewReader(payload)), len(samples))
	if err != nil {
		t.Fatalf("readCM6 failed: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestReadCM6_Short(t *testing.T) {
	_, err := readCM6(bufio.NewReader(strings.NewReader("-+\n")), 3)
	if !errors.Is(err, ErrFraming) {
		t.Errorf("Expected ErrFraming, got %v", err)
	}
}

func TestEncodeINT_Wraps(t *testing.T) {
	lines := EncodeINT([]int32{11111, 22222, 33333}, 12)
	want := []string{"11111 22222", "33333"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %v, got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}
