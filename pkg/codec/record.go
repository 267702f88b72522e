package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Supported payload encodings
const (
	DataTypeCM6 = "CM6"
	DataTypeINT = "INT"
)

// DefaultLineWidth is the payload line width used when none is configured
const DefaultLineWidth = 80

const (
	dataMarker     = "DAT2"
	checksumMarker = "CHK2"
)

// CodecError represents a record encoding or decoding failure
type CodecError struct {
	Message string
}

func (e *CodecError) Error() string {
	return e.Message
}

// Errors
var (
	ErrFraming             = &CodecError{"malformed GSE2 record"}
	ErrChecksum            = &CodecError{"GSE2 checksum mismatch"}
	ErrUnsupportedDataType = &CodecError{"unsupported GSE2 data type"}
	ErrFieldWidth          = &CodecError{"value does not fit GSE2 column"}
	ErrSampleCount         = &CodecError{"sample count does not match samples"}
	ErrMissingField        = &CodecError{"required header field missing"}
)

// EncodeOptions controls how records are written
type EncodeOptions struct {
	DataType  string // CM6 or INT; empty falls back to the header, then CM6
	LineWidth int    // Payload line width, 0 means DefaultLineWidth
}

// Record is one decoded WID2 record
type Record struct {
	Header   Header
	Samples  []int32
	Checksum int64 // Checksum stored in the CHK2 line
}

// Validate checks the stored checksum against the samples
func (r *Record) Validate() error {
	if sum := Checksum(r.Samples); sum != r.Checksum {
		return fmt.Errorf("%w: %d != %d", ErrChecksum, r.Checksum, sum)
	}
	return nil
}

// RecordCodec reads and writes single GSE2 records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// DecodeHeader reads one WID2 line and leaves r at the start of the payload
func (c *RecordCodec) DecodeHeader(r *bufio.Reader) (Header, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	return ParseWID2(line)
}

// Decode reads one complete record. The CHK2 line is always required; its
// value is compared with the samples only when verifyChecksum is set.
func (c *RecordCodec) Decode(r *bufio.Reader, verifyChecksum bool) (Header, []int32, error) {
	rec, err := c.ReadRecord(r)
	if err != nil {
		return nil, nil, err
	}
	if verifyChecksum {
		if err := rec.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return rec.Header, rec.Samples, nil
}

// ReadRecord reads header, payload and checksum without verifying it
func (c *RecordCodec) ReadRecord(r *bufio.Reader) (*Record, error) {
	h, err := c.DecodeHeader(r)
	if err != nil {
		return nil, err
	}

	n, ok := h.Int(FieldSampleCount)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldSampleCount)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative sample count %d", ErrFraming, n)
	}
	dataType, _ := h.String(FieldDataType)

	line, err := nextLine(r)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, dataMarker) {
		return nil, fmt.Errorf("%w: expected %s, got %q", ErrFraming, dataMarker, truncate(line))
	}

	var samples []int32
	switch normalizeDataType(dataType) {
	case DataTypeCM6:
		samples, err = readCM6(r, n)
	case DataTypeINT:
		samples, err = readINT(r, n)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDataType, dataType)
	}
	if err != nil {
		return nil, err
	}

	line, err = nextLine(r)
	if err != nil {
		return nil, err
	}
	sum, err := parseChecksum(line)
	if err != nil {
		return nil, err
	}

	return &Record{Header: h, Samples: samples, Checksum: sum}, nil
}

// Encode serializes one record and appends it to w with a single write
func (c *RecordCodec) Encode(w io.Writer, h Header, samples []int32, opts EncodeOptions) error {
	data, err := c.Marshal(h, samples, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal serializes one record
// Format: WID2 line, DAT2 line, payload lines, CHK2 line
func (c *RecordCodec) Marshal(h Header, samples []int32, opts EncodeOptions) ([]byte, error) {
	if n, ok := h.Int(FieldSampleCount); ok && n != len(samples) {
		return nil, fmt.Errorf("%w: header says %d, got %d", ErrSampleCount, n, len(samples))
	}

	dataType := opts.DataType
	if dataType == "" {
		dataType, _ = h.String(FieldDataType)
	}
	if dataType == "" {
		dataType = DataTypeCM6
	}
	dataType = normalizeDataType(dataType)

	var payload []string
	switch dataType {
	case DataTypeCM6:
		payload = EncodeCM6(samples, opts.LineWidth)
	case DataTypeINT:
		payload = EncodeINT(samples, opts.LineWidth)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDataType, dataType)
	}

	out := make(Header, len(h)+2)
	for k, v := range h {
		out[k] = v
	}
	out[FieldSampleCount] = len(samples)
	out[FieldDataType] = dataType

	wid2, err := FormatWID2(out)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(wid2)
	buf.WriteByte('\n')
	buf.WriteString(dataMarker)
	buf.WriteByte('\n')
	for _, line := range payload {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "%s %8d\n", checksumMarker, Checksum(samples))

	return buf.Bytes(), nil
}

func readCM6(r *bufio.Reader, n int) ([]int32, error) {
	d := newCM6Decoder(n)
	for !d.done() {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if err := d.feed(line); err != nil {
			return nil, err
		}
	}
	return undiff2(d.values)
}

func readINT(r *bufio.Reader, n int) ([]int32, error) {
	samples := make([]int32, 0, n)
	for len(samples) < n {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		for _, tok := range strings.Fields(line) {
			if len(samples) == n {
				break
			}
			v, err := strconv.ParseInt(tok, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: INT sample %q", ErrFraming, tok)
			}
			samples = append(samples, int32(v))
		}
	}
	return samples, nil
}

func parseChecksum(line string) (int64, error) {
	if !strings.HasPrefix(line, checksumMarker) {
		return 0, fmt.Errorf("%w: expected %s, got %q", ErrFraming, checksumMarker, truncate(line))
	}
	fields := strings.Fields(line[len(checksumMarker):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty %s line", ErrFraming, checksumMarker)
	}
	sum, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: checksum %q", ErrFraming, fields[0])
	}
	return sum, nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned as is; running out of input is a framing error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", fmt.Errorf("%w: unexpected end of input", ErrFraming)
			}
		} else {
			return "", err
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// nextLine returns the next non-blank line
func nextLine(r *bufio.Reader) (string, error) {
	for {
		line, err := readLine(r)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
}

func normalizeDataType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func truncate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
