package codec

import (
	"fmt"
	"math"
	"strings"
)

// cm6Alphabet maps 6-bit values to the printable characters used by CM6
const cm6Alphabet = "+-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	cm6Continue = 0x20
	cm6Sign     = 0x10
	cm6Head     = 0x0f
	cm6Tail     = 0x1f
)

var cm6Lookup = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(cm6Alphabet); i++ {
		t[cm6Alphabet[i]] = int8(i)
	}
	return t
}()

// diff2 returns the second differences of samples. The first two outputs
// keep the leading terms so the transform is exactly reversible.
func diff2(samples []int32) []int64 {
	out := make([]int64, len(samples))
	var p1, p2 int64
	for i, s := range samples {
		v := int64(s)
		out[i] = v - 2*p1 + p2
		p2 = p1
		p1 = v
	}
	return out
}

// undiff2 reverses diff2
func undiff2(diffs []int64) ([]int32, error) {
	out := make([]int32, len(diffs))
	var p1, p2 int64
	for i, d := range diffs {
		v := d + 2*p1 - p2
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: sample %d overflows int32", ErrFraming, i)
		}
		out[i] = int32(v)
		p2 = p1
		p1 = v
	}
	return out, nil
}

// appendCM6 appends the CM6 characters for one value
func appendCM6(dst []byte, v int64) []byte {
	neg := v < 0
	if neg {
		v = -v
	}

	var tmp [16]byte
	n := 0
	if v <= cm6Head {
		head := byte(v)
		if neg {
			head |= cm6Sign
		}
		return append(dst, cm6Alphabet[head])
	}

	// least significant group first, reversed below
	tmp[n] = cm6Alphabet[v&cm6Tail]
	n++
	v >>= 5
	for v > cm6Head {
		tmp[n] = cm6Alphabet[(v&cm6Tail)|cm6Continue]
		n++
		v >>= 5
	}
	head := byte(v) | cm6Continue
	if neg {
		head |= cm6Sign
	}
	tmp[n] = cm6Alphabet[head]
	n++

	for i := n - 1; i >= 0; i-- {
		dst = append(dst, tmp[i])
	}
	return dst
}

// EncodeCM6 compresses samples into CM6 lines of at most width characters
func EncodeCM6(samples []int32, width int) []string {
	if width <= 0 {
		width = DefaultLineWidth
	}
	var buf []byte
	for _, d := range diff2(samples) {
		buf = appendCM6(buf, d)
	}

	lines := make([]string, 0, len(buf)/width+1)
	for len(buf) > 0 {
		n := width
		if n > len(buf) {
			n = len(buf)
		}
		lines = append(lines, string(buf[:n]))
		buf = buf[n:]
	}
	return lines
}

// cm6Decoder accumulates values from CM6 characters across line breaks
type cm6Decoder struct {
	values  []int64
	want    int
	current int64
	neg     bool
	inValue bool
}

func newCM6Decoder(n int) *cm6Decoder {
	return &cm6Decoder{values: make([]int64, 0, n), want: n}
}

func (d *cm6Decoder) done() bool {
	return len(d.values) >= d.want
}

// feed consumes one line of CM6 text. Characters after the last wanted value
// are ignored.
func (d *cm6Decoder) feed(line string) error {
	for i := 0; i < len(line) && !d.done(); i++ {
		c := line[i]
		if c == ' ' || c == '\r' || c == '\n' || c == '\t' {
			continue
		}
		idx := cm6Lookup[c]
		if idx < 0 {
			return fmt.Errorf("%w: invalid CM6 character %q", ErrFraming, c)
		}
		bits := int64(idx)
		if !d.inValue {
			d.current = bits & cm6Head
			d.neg = bits&cm6Sign != 0
			d.inValue = true
		} else {
			if d.current > math.MaxInt64>>5 {
				return fmt.Errorf("%w: CM6 value overflow", ErrFraming)
			}
			d.current = d.current<<5 | bits&cm6Tail
		}
		if bits&cm6Continue == 0 {
			v := d.current
			if d.neg {
				v = -v
			}
			d.values = append(d.values, v)
			d.inValue = false
		}
	}
	return nil
}

// EncodeINT formats samples as whitespace separated integers in lines of at
// most width characters
func EncodeINT(samples []int32, width int) []string {
	if width <= 0 {
		width = DefaultLineWidth
	}
	var lines []string
	var b strings.Builder
	for _, s := range samples {
		tok := fmt.Sprintf("%d", s)
		if b.Len() > 0 && b.Len()+1+len(tok) > width {
			lines = append(lines, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}
