package api

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/gse2/pkg/catalog"
	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/gse2"
	"github.com/ssargent/gse2/pkg/logger"
	"github.com/ssargent/gse2/pkg/trace"
)

// Server holds the API server state
type Server struct {
	catalog  HeaderCatalog
	config   ServerConfig
	metrics  *Metrics
	registry *prometheus.Registry
}

// NewServer creates a new API server with its own metrics registry. A nil
// catalog disables the catalog endpoints.
func NewServer(cat HeaderCatalog, config ServerConfig) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		catalog:  cat,
		config:   config,
		metrics:  NewMetrics(reg),
		registry: reg,
	}
}

// Registry returns the registry the server's metrics are registered with
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleProbe reports whether the request body starts with the WID2 magic
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	body, err := s.requestBody(w, r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	sendSuccess(w, ProbeResponse{GSE2: gse2.ProbeReader(body)})
}

// handleTraces decodes the container in the request body
//
// Query parameters:
//
//	headonly=true   skip payload samples
//	verify=false    accept records whose CHK2 does not match
func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	opts := s.config.Read
	var err error
	if opts.HeadersOnly, err = queryBool(r, "headonly", false); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if opts.VerifyChecksum, err = queryBool(r, "verify", opts.VerifyChecksum); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	stream, ok := s.readStream(w, r, "traces", opts)
	if !ok {
		return
	}

	traces := stream.Traces
	if traces == nil {
		traces = []*trace.Trace{}
	}
	sendSuccess(w, TracesResponse{Traces: traces, Truncated: stream.Truncated})
}

// handleConvert re-encodes the container in the request body, optionally
// switching the payload data type with ?datatype=CM6|INT
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	wopts := s.config.Write
	if dt := r.URL.Query().Get("datatype"); dt != "" {
		dt = strings.ToUpper(dt)
		if dt != codec.DataTypeCM6 && dt != codec.DataTypeINT {
			sendError(w, fmt.Sprintf("Unsupported datatype %q", dt), http.StatusBadRequest)
			return
		}
		wopts.Encode.DataType = dt
	}

	ropts := s.config.Read
	ropts.HeadersOnly = false
	stream, ok := s.readStream(w, r, "convert", ropts)
	if !ok {
		return
	}

	// buffered so that a failed write never produces a partial response
	var out bytes.Buffer
	if err := gse2.Write(stream, &out, wopts); err != nil {
		s.metrics.RecordFailure("write", err)
		sendError(w, fmt.Sprintf("Failed to encode container: %v", err), statusForError(err))
		return
	}
	s.metrics.RecordEncoded(stream.Len())

	w.Header().Set("Content-Type", "text/plain; charset=us-ascii")
	w.Header().Set("X-GSE2-Records", strconv.Itoa(stream.Len()))
	w.Header().Set("X-GSE2-Truncated", strconv.FormatBool(stream.Truncated))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

// handleCatalogAdd catalogues the headers of the container in the request
// body under ?source=
func (s *Server) handleCatalogAdd(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		sendError(w, "source is required", http.StatusBadRequest)
		return
	}

	opts := s.config.Read
	opts.HeadersOnly = true
	stream, ok := s.readStream(w, r, "catalog", opts)
	if !ok {
		return
	}

	ids, err := s.catalog.AddStream(source, stream)
	if err != nil {
		s.metrics.RecordCatalogOperation("add", false)
		sendError(w, fmt.Sprintf("Failed to catalog headers: %v", err), catalogStatus(err))
		return
	}
	s.metrics.RecordCatalogOperation("add", true)

	resp := CatalogAddResponse{Source: source, IDs: make([]string, len(ids)), Truncated: stream.Truncated}
	for i, id := range ids {
		resp.IDs[i] = id.String()
	}
	sendSuccess(w, resp)
}

// handleCatalogList lists catalogued headers, optionally filtered by ?source=
func (s *Server) handleCatalogList(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}

	var (
		entries []*catalog.Entry
		err     error
	)
	if source := r.URL.Query().Get("source"); source != "" {
		entries, err = s.catalog.ListSource(source)
	} else {
		entries, err = s.catalog.List()
	}
	if err != nil {
		s.metrics.RecordCatalogOperation("list", false)
		sendError(w, fmt.Sprintf("Failed to list catalog: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordCatalogOperation("list", true)

	if entries == nil {
		entries = []*catalog.Entry{}
	}
	sendSuccess(w, CatalogListResponse{Entries: entries})
}

func (s *Server) handleCatalogGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entry, err := s.catalog.Get(id)
	if err != nil {
		s.metrics.RecordCatalogOperation("get", false)
		sendError(w, err.Error(), catalogStatus(err))
		return
	}
	s.metrics.RecordCatalogOperation("get", true)
	sendSuccess(w, entry)
}

func (s *Server) handleCatalogDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.catalog.Delete(id); err != nil {
		s.metrics.RecordCatalogOperation("delete", false)
		sendError(w, err.Error(), catalogStatus(err))
		return
	}
	s.metrics.RecordCatalogOperation("delete", true)
	sendSuccess(w, map[string]string{"message": "Entry deleted successfully"})
}

// readStream decodes the request body and reports failures to the client.
// It returns false when a response has already been sent.
func (s *Server) readStream(w http.ResponseWriter, r *http.Request, operation string, opts gse2.ReadOptions) (*trace.Stream, bool) {
	body, err := s.requestBody(w, r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer body.Close()

	stream, err := gse2.Read(body, opts)
	if err != nil {
		s.metrics.RecordFailure("read", err)
		log := logger.Get("api")
		log.Warn().
			Err(err).
			Str("operation", operation).
			Str("kind", failureKind(err)).
			Msg("container read failed")
		sendError(w, fmt.Sprintf("Failed to decode container: %v", err), statusForError(err))
		return nil, false
	}

	s.metrics.RecordDecoded(stream.Len(), stream.Truncated)
	return stream, true
}

// requestBody caps the body size and undoes gzip content encoding
func (s *Server) requestBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	body := http.MaxBytesReader(w, r.Body, s.config.maxBodyBytes())
	if !strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		return body, nil
	}

	zr, err := gzip.NewReader(bufio.NewReader(body))
	if err != nil {
		_ = body.Close()
		return nil, fmt.Errorf("invalid gzip body: %w", err)
	}
	return &gzipBody{Reader: zr, body: body}, nil
}

type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipBody) Close() error {
	_ = g.Reader.Close()
	return g.body.Close()
}

func (s *Server) requireCatalog(w http.ResponseWriter) bool {
	if s.catalog == nil {
		sendError(w, "Catalog is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q", name, raw)
	}
	return v, nil
}

// statusForError maps container failures to HTTP status codes
func statusForError(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case failureKind(err) != failureOther:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func catalogStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNoSource), errors.Is(err, catalog.ErrBadSource):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
