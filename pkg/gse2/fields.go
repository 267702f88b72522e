package gse2

import (
	"fmt"
	"math"
	"time"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/trace"
)

// FieldMapping associates a canonical trace field with its native codec field
type FieldMapping struct {
	Canonical string
	Native    string

	// decode copies the native value into the trace; a missing or mistyped
	// native value is an error
	decode func(t *trace.Trace, h codec.Header) error

	// encode copies the trace value into the header; zero values are omitted
	encode func(t *trace.Trace, h codec.Header)
}

// FieldMap is the bidirectional canonical <-> native table. It is populated
// in init because its decoders refer back to it via missingField.
var FieldMap []FieldMapping

func init() {
	FieldMap = []FieldMapping{
		{
			Canonical: trace.FieldStation,
			Native:    codec.FieldStation,
			decode: func(t *trace.Trace, h codec.Header) (err error) {
				t.Station, err = requireString(h, codec.FieldStation)
				return err
			},
			encode: func(t *trace.Trace, h codec.Header) {
				if t.Station != "" {
					h[codec.FieldStation] = t.Station
				}
			},
		},
		{
			Canonical: trace.FieldSamplingRate,
			Native:    codec.FieldSamplingRate,
			decode: func(t *trace.Trace, h codec.Header) (err error) {
				t.SamplingRate, err = requireFloat(h, codec.FieldSamplingRate)
				return err
			},
			encode: func(t *trace.Trace, h codec.Header) {
				if t.SamplingRate != 0 {
					h[codec.FieldSamplingRate] = t.SamplingRate
				}
			},
		},
		{
			Canonical: trace.FieldSampleCount,
			Native:    codec.FieldSampleCount,
			decode: func(t *trace.Trace, h codec.Header) (err error) {
				t.SampleCount, err = requireInt(h, codec.FieldSampleCount)
				return err
			},
			encode: func(t *trace.Trace, h codec.Header) {
				h[codec.FieldSampleCount] = t.SampleCount
			},
		},
		{
			Canonical: trace.FieldChannel,
			Native:    codec.FieldChannel,
			decode: func(t *trace.Trace, h codec.Header) (err error) {
				t.Channel, err = requireString(h, codec.FieldChannel)
				return err
			},
			encode: func(t *trace.Trace, h codec.Header) {
				if t.Channel != "" {
					h[codec.FieldChannel] = t.Channel
				}
			},
		},
		{
			Canonical: trace.FieldCalibration,
			Native:    codec.FieldCalib,
			decode: func(t *trace.Trace, h codec.Header) (err error) {
				t.Calibration, err = requireFloat(h, codec.FieldCalib)
				return err
			},
			encode: func(t *trace.Trace, h codec.Header) {
				h[codec.FieldCalib] = t.Calibration
			},
		},
	}
}

// ExtensionFields are native fields with no canonical equivalent. They pass
// through verbatim in Trace.Extensions.
var ExtensionFields = []string{
	codec.FieldInstType,
	codec.FieldDataType,
	codec.FieldVAng,
	codec.FieldHAng,
	codec.FieldAuxID,
	codec.FieldCalPeriod,
}

// canonicalName returns the canonical field for a native field name
func canonicalName(native string) (string, bool) {
	for _, m := range FieldMap {
		if m.Native == native {
			return m.Canonical, true
		}
	}
	return "", false
}

// traceFromHeader builds a trace from a decoded native header
func traceFromHeader(h codec.Header) (*trace.Trace, error) {
	t := trace.New()
	for _, m := range FieldMap {
		if err := m.decode(t, h); err != nil {
			return nil, err
		}
	}

	for _, name := range ExtensionFields {
		if v, ok := h[name]; ok {
			t.Extensions[name] = v
		}
	}

	start, err := startTime(h)
	if err != nil {
		return nil, err
	}
	t.StartTime = start

	return t, nil
}

// headerFromTrace builds a native header from a trace. The start time is
// not included; see putStartTime.
func headerFromTrace(t *trace.Trace) codec.Header {
	h := codec.Header{}
	for _, m := range FieldMap {
		m.encode(t, h)
	}

	for _, name := range ExtensionFields {
		if v, ok := t.Extensions[name]; ok && v != nil {
			h[name] = normalizeExtension(v)
		}
	}

	return h
}

// normalizeExtension converts numeric extension values to the types the
// codec understands. JSON decoding and callers may hand in other widths.
func normalizeExtension(v any) any {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return v
}

// startTime composes the record start from its calendar fields plus the
// fractional seconds addend
func startTime(h codec.Header) (time.Time, error) {
	var parts [5]int
	for i, name := range []string{codec.FieldYear, codec.FieldMonth, codec.FieldDay, codec.FieldHour, codec.FieldMinute} {
		v, err := requireInt(h, name)
		if err != nil {
			return time.Time{}, err
		}
		parts[i] = v
	}
	sec, err := requireFloat(h, codec.FieldSecond)
	if err != nil {
		return time.Time{}, err
	}

	base := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC)
	offset := time.Duration(math.Round(sec*1e6)) * time.Microsecond
	return base.Add(offset), nil
}

// putStartTime decomposes t into the native calendar fields. Seconds carry
// the microsecond remainder as a fraction.
func putStartTime(h codec.Header, t time.Time) error {
	t = t.UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return fmt.Errorf("%w: year %d", ErrTimestamp, t.Year())
	}

	h[codec.FieldYear] = t.Year()
	h[codec.FieldMonth] = int(t.Month())
	h[codec.FieldDay] = t.Day()
	h[codec.FieldHour] = t.Hour()
	h[codec.FieldMinute] = t.Minute()
	h[codec.FieldSecond] = float64(t.Second()) + float64(t.Nanosecond()/1000)/1e6
	return nil
}

func requireString(h codec.Header, name string) (string, error) {
	v, ok := h.String(name)
	if !ok {
		return "", missingField(name)
	}
	return v, nil
}

func requireInt(h codec.Header, name string) (int, error) {
	v, ok := h.Int(name)
	if !ok {
		return 0, missingField(name)
	}
	return v, nil
}

func requireFloat(h codec.Header, name string) (float64, error) {
	v, ok := h.Float(name)
	if !ok {
		return 0, missingField(name)
	}
	return v, nil
}

// missingField reports a required native field, naming its canonical field
// when it has one
func missingField(name string) error {
	if canonical, ok := canonicalName(name); ok {
		return fmt.Errorf("%w: %s (%s)", ErrFieldMapping, name, canonical)
	}
	return fmt.Errorf("%w: %s", ErrFieldMapping, name)
}
