package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Native field names produced and consumed by the codec
const (
	FieldStation      = "station"
	FieldChannel      = "channel"
	FieldAuxID        = "auxid"
	FieldDataType     = "datatype"
	FieldSampleCount  = "n_samps"
	FieldSamplingRate = "samp_rate"
	FieldCalib        = "calib"
	FieldCalPeriod    = "calper"
	FieldInstType     = "instype"
	FieldHAng         = "hang"
	FieldVAng         = "vang"
	FieldYear         = "d_year"
	FieldMonth        = "d_mon"
	FieldDay          = "d_day"
	FieldHour         = "t_hour"
	FieldMinute       = "t_min"
	FieldSecond       = "t_sec"
)

// Magic is the prefix of every WID2 header line
const Magic = "WID2"

// Header holds the native fields of one record keyed by codec field name.
// Absent keys mean the column was blank (decode) or should be left blank
// (encode).
type Header map[string]any

// String returns a string field
func (h Header) String(key string) (string, bool) {
	v, ok := h[key].(string)
	return v, ok
}

// Int returns an integer field
func (h Header) Int(key string) (int, bool) {
	v, ok := h[key].(int)
	return v, ok
}

// Float returns a floating point field. Integer values are widened.
func (h Header) Float(key string) (float64, bool) {
	switch v := h[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// column describes one fixed-width field of the WID2 line (0-based, half open)
type column struct {
	name  string
	start int
	end   int
	kind  columnKind
	verb  string
}

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
)

// wid2Columns are the fixed columns after the date and time block
var wid2Columns = []column{
	{FieldStation, 29, 34, kindString, "%-5s"},
	{FieldChannel, 35, 38, kindString, "%-3s"},
	{FieldAuxID, 39, 43, kindString, "%-4s"},
	{FieldDataType, 44, 47, kindString, "%-3s"},
	{FieldSampleCount, 48, 56, kindInt, "%8d"},
	{FieldSamplingRate, 57, 68, kindFloat, "%11.6f"},
	{FieldCalib, 69, 79, kindFloat, "%10.2e"},
	{FieldCalPeriod, 80, 87, kindFloat, "%7.3f"},
	{FieldInstType, 88, 94, kindString, "%-6s"},
	{FieldHAng, 95, 100, kindFloat, "%5.1f"},
	{FieldVAng, 101, 105, kindFloat, "%4.1f"},
}

const (
	wid2Width  = 105
	dateStart  = 5
	dateEnd    = 15
	timeStart  = 16
	timeEnd    = 28
	dateLayout = "%04d/%02d/%02d"
	timeLayout = "%02d:%02d:%06.3f"
)

// ParseWID2 decodes a WID2 header line into native fields
func ParseWID2(line string) (Header, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, Magic) {
		return nil, fmt.Errorf("%w: line does not start with %s", ErrFraming, Magic)
	}
	if len(line) < wid2Width {
		line += strings.Repeat(" ", wid2Width-len(line))
	}

	h := Header{}
	if err := parseDate(h, line[dateStart:dateEnd]); err != nil {
		return nil, err
	}
	if err := parseTime(h, line[timeStart:timeEnd]); err != nil {
		return nil, err
	}

	for _, c := range wid2Columns {
		raw := strings.TrimSpace(line[c.start:c.end])
		switch c.kind {
		case kindString:
			h[c.name] = raw
		case kindInt:
			if raw == "" {
				continue
			}
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s column %q", ErrFraming, c.name, raw)
			}
			h[c.name] = v
		case kindFloat:
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s column %q", ErrFraming, c.name, raw)
			}
			h[c.name] = v
		}
	}

	return h, nil
}

func parseDate(h Header, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return fmt.Errorf("%w: date %q", ErrFraming, raw)
	}
	for i, name := range []string{FieldYear, FieldMonth, FieldDay} {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return fmt.Errorf("%w: date %q", ErrFraming, raw)
		}
		h[name] = v
	}
	return nil
}

func parseTime(h Header, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return fmt.Errorf("%w: time %q", ErrFraming, raw)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return fmt.Errorf("%w: time %q", ErrFraming, raw)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return fmt.Errorf("%w: time %q", ErrFraming, raw)
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return fmt.Errorf("%w: time %q", ErrFraming, raw)
	}
	h[FieldHour] = hour
	h[FieldMinute] = minute
	h[FieldSecond] = sec
	return nil
}

// FormatWID2 encodes native fields into a WID2 header line without the
// trailing newline. Absent fields are left blank.
func FormatWID2(h Header) (string, error) {
	var b strings.Builder
	b.Grow(wid2Width)
	b.WriteString(Magic)
	b.WriteByte(' ')

	date, err := formatDate(h)
	if err != nil {
		return "", err
	}
	b.WriteString(date)
	b.WriteByte(' ')

	clock, err := formatTime(h)
	if err != nil {
		return "", err
	}
	b.WriteString(clock)

	for _, c := range wid2Columns {
		b.WriteByte(' ')
		field, err := formatColumn(h, c)
		if err != nil {
			return "", err
		}
		b.WriteString(field)
	}

	return strings.TrimRight(b.String(), " "), nil
}

func formatColumn(h Header, c column) (string, error) {
	width := c.end - c.start
	var s string
	switch c.kind {
	case kindString:
		v, ok := h.String(c.name)
		if !ok {
			return strings.Repeat(" ", width), nil
		}
		s = fmt.Sprintf(c.verb, v)
	case kindInt:
		v, ok := h.Int(c.name)
		if !ok {
			return strings.Repeat(" ", width), nil
		}
		s = fmt.Sprintf(c.verb, v)
	case kindFloat:
		v, ok := h.Float(c.name)
		if !ok {
			return strings.Repeat(" ", width), nil
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: %s is not finite", ErrFieldWidth, c.name)
		}
		s = fmt.Sprintf(c.verb, v)
	}
	if len(s) > width {
		return "", fmt.Errorf("%w: %s %q exceeds %d columns", ErrFieldWidth, c.name, s, width)
	}
	return s, nil
}

func formatDate(h Header) (string, error) {
	y, okY := h.Int(FieldYear)
	m, okM := h.Int(FieldMonth)
	d, okD := h.Int(FieldDay)
	if !okY && !okM && !okD {
		return strings.Repeat(" ", dateEnd-dateStart), nil
	}
	if !okY || !okM || !okD {
		return "", fmt.Errorf("%w: incomplete date", ErrFieldWidth)
	}
	s := fmt.Sprintf(dateLayout, y, m, d)
	if len(s) != dateEnd-dateStart {
		return "", fmt.Errorf("%w: date %q", ErrFieldWidth, s)
	}
	return s, nil
}

func formatTime(h Header) (string, error) {
	hh, okH := h.Int(FieldHour)
	mm, okM := h.Int(FieldMinute)
	ss, okS := h.Float(FieldSecond)
	if !okH && !okM && !okS {
		return strings.Repeat(" ", timeEnd-timeStart), nil
	}
	if !okH || !okM || !okS {
		return "", fmt.Errorf("%w: incomplete time", ErrFieldWidth)
	}
	s := fmt.Sprintf(timeLayout, hh, mm, ss)
	if len(s) != timeEnd-timeStart {
		return "", fmt.Errorf("%w: time %q", ErrFieldWidth, s)
	}
	return s, nil
}
