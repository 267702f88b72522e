package trace

// Stream is an ordered collection of traces. Order is the order in which
// records were encountered in the source container.
type Stream struct {
	Traces []*Trace `json:"traces"`

	// Truncated is set when a reader stopped scanning at its iteration limit
	// rather than at the end of the input.
	Truncated bool `json:"truncated,omitempty"`
}

// NewStream creates a stream holding the given traces
func NewStream(traces ...*Trace) *Stream {
	s := &Stream{Traces: make([]*Trace, 0, len(traces))}
	s.Traces = append(s.Traces, traces...)
	return s
}

// Append adds a trace at the end of the stream
func (s *Stream) Append(t *Trace) {
	s.Traces = append(s.Traces, t)
}

// Len returns the number of traces
func (s *Stream) Len() int {
	return len(s.Traces)
}
