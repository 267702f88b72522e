// Package trace defines the canonical timeseries model shared by the GSE2
// reader, writer, catalog and API.
package trace

import (
	"fmt"
	"time"
)

// Canonical field names. These are the format-agnostic names of the Trace
// schema; codecs map their own native names onto them.
const (
	FieldStation      = "station"
	FieldChannel      = "channel"
	FieldSamplingRate = "sampling_rate"
	FieldSampleCount  = "sample_count"
	FieldCalibration  = "calibration"
)

// Trace is one contiguous timeseries record
type Trace struct {
	Station      string         `json:"station"`
	Channel      string         `json:"channel"`
	SamplingRate float64        `json:"sampling_rate"` // Samples per second
	SampleCount  int            `json:"sample_count"`
	Calibration  float64        `json:"calibration"`
	StartTime    time.Time      `json:"start_time"`
	Extensions   map[string]any `json:"extensions,omitempty"` // Format-specific fields keyed by native name
	Samples      []int          `json:"samples,omitempty"`    // nil when only headers were read
}

// New creates an empty trace with an initialized extension map
func New() *Trace {
	return &Trace{Extensions: make(map[string]any)}
}

// HeaderOnly reports whether the trace carries metadata without samples
func (t *Trace) HeaderOnly() bool {
	return t.Samples == nil
}

// EndTime returns the time of the last sample. A trace with fewer than two
// samples or no sampling rate ends where it starts.
func (t *Trace) EndTime() time.Time {
	if t.SampleCount < 2 || t.SamplingRate <= 0 {
		return t.StartTime
	}
	span := float64(t.SampleCount-1) / t.SamplingRate
	return t.StartTime.Add(time.Duration(span * float64(time.Second)).Round(time.Microsecond))
}

// Validate checks the sample count invariant
func (t *Trace) Validate() error {
	if t.SampleCount < 0 {
		return fmt.Errorf("negative sample count %d", t.SampleCount)
	}
	if t.Samples != nil && len(t.Samples) != t.SampleCount {
		return fmt.Errorf("sample count %d does not match %d samples", t.SampleCount, len(t.Samples))
	}
	return nil
}

// Clone returns a deep copy of the trace
func (t *Trace) Clone() *Trace {
	c := *t
	if t.Extensions != nil {
		c.Extensions = make(map[string]any, len(t.Extensions))
		for k, v := range t.Extensions {
			c.Extensions[k] = v
		}
	}
	if t.Samples != nil {
		c.Samples = make([]int, len(t.Samples))
		copy(c.Samples, t.Samples)
	}
	return &c
}

// String returns a one-line summary: STA.CHA | start - end | rate, samples
func (t *Trace) String() string {
	return fmt.Sprintf("%s.%s | %s - %s | %.1f Hz, %d samples",
		t.Station, t.Channel,
		t.StartTime.UTC().Format("2006-01-02T15:04:05.000000Z"),
		t.EndTime().UTC().Format("2006-01-02T15:04:05.000000Z"),
		t.SamplingRate, t.SampleCount)
}
