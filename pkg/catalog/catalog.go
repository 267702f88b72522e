// Package catalog keeps decoded GSE2 record headers in a pebble store so
// that large archives can be searched without re-reading their payloads.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/gse2/pkg/gse2"
	"github.com/ssargent/gse2/pkg/logger"
	"github.com/ssargent/gse2/pkg/trace"
)

// Key layout:
//
//	hdr/<ksuid>            -> JSON Entry
//	src/<source>\x00<ksuid> -> empty
var (
	headerPrefix = []byte("hdr/")
	sourcePrefix = []byte("src/")
)

// CatalogError represents a catalog lookup failure
type CatalogError struct {
	Message string
}

func (e *CatalogError) Error() string {
	return e.Message
}

// Errors
var (
	ErrNotFound  = &CatalogError{"entry not found"}
	ErrNoSource  = &CatalogError{"source must not be empty"}
	ErrBadSource = &CatalogError{"source must not contain NUL"}
)

// Entry is the stored form of one record header
type Entry struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"` // File or upload the record came from
	Index        int            `json:"index"`  // Ordinal of the record within its source
	Station      string         `json:"station"`
	Channel      string         `json:"channel"`
	SamplingRate float64        `json:"sampling_rate"`
	SampleCount  int            `json:"sample_count"`
	Calibration  float64        `json:"calibration"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Extensions   map[string]any `json:"extensions,omitempty"`
	IndexedAt    time.Time      `json:"indexed_at"`
}

// Trace returns a header-only trace for the entry
func (e *Entry) Trace() *trace.Trace {
	t := trace.New()
	t.Station = e.Station
	t.Channel = e.Channel
	t.SamplingRate = e.SamplingRate
	t.SampleCount = e.SampleCount
	t.Calibration = e.Calibration
	t.StartTime = e.StartTime
	for k, v := range e.Extensions {
		t.Extensions[k] = v
	}
	return t
}

// Catalog is a pebble backed store of record headers
type Catalog struct {
	db *pebble.DB
}

// Open opens or creates a catalog in dir
func Open(dir string) (*Catalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", dir, err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying store
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add stores the header of tr under a new id. Samples are never stored.
func (c *Catalog) Add(source string, index int, tr *trace.Trace) (ksuid.KSUID, error) {
	b := c.db.NewBatch()
	defer b.Close()

	id, err := addToBatch(b, source, index, tr)
	if err != nil {
		return ksuid.Nil, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// IndexFile reads the headers of the container at path and adds every
// record in one batch. Nothing is stored when the read fails.
func (c *Catalog) IndexFile(path string, opts gse2.ReadOptions) ([]ksuid.KSUID, error) {
	opts.HeadersOnly = true
	stream, err := gse2.ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	return c.AddStream(path, stream)
}

// AddStream adds every trace of s in one batch
func (c *Catalog) AddStream(source string, s *trace.Stream) ([]ksuid.KSUID, error) {
	b := c.db.NewBatch()
	defer b.Close()

	ids := make([]ksuid.KSUID, 0, s.Len())
	for i, tr := range s.Traces {
		id, err := addToBatch(b, source, i, tr)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return nil, err
	}

	log := logger.Get("catalog")
	log.Info().
		Str("source", source).
		Int("records", len(ids)).
		Bool("truncated", s.Truncated).
		Msg("indexed container")

	return ids, nil
}

// Get returns the entry stored under id
func (c *Catalog) Get(id ksuid.KSUID) (*Entry, error) {
	data, closer, err := c.db.Get(headerKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return &e, nil
}

// Delete removes the entry stored under id
func (c *Catalog) Delete(id ksuid.KSUID) error {
	e, err := c.Get(id)
	if err != nil {
		return err
	}

	b := c.db.NewBatch()
	defer b.Close()
	if err := b.Delete(headerKey(id), nil); err != nil {
		return err
	}
	if err := b.Delete(sourceKey(e.Source, id), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// List returns every entry in id order. KSUIDs sort by creation second, so
// entries indexed in different seconds come back oldest first.
func (c *Catalog) List() ([]*Entry, error) {
	it, err := c.db.NewIter(&pebble.IterOptions{LowerBound: headerPrefix, UpperBound: upperBound(headerPrefix)})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer func() { _ = it.Close() }()

	var entries []*Entry
	for ok := it.First(); ok; ok = it.Next() {
		var e Entry
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			return nil, fmt.Errorf("decode entry %x: %w", it.Key(), err)
		}
		entries = append(entries, &e)
	}
	return entries, it.Error()
}

// ListSource returns the entries added from source ordered by record index
func (c *Catalog) ListSource(source string) ([]*Entry, error) {
	prefix := sourceKeyPrefix(source)
	it, err := c.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer func() { _ = it.Close() }()

	var entries []*Entry
	for ok := it.First(); ok; ok = it.Next() {
		id, err := ksuid.FromBytes(it.Key()[len(prefix):])
		if err != nil {
			return nil, fmt.Errorf("decode source key %x: %w", it.Key(), err)
		}
		e, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Index < entries[j].Index
	})
	return entries, nil
}

func addToBatch(b *pebble.Batch, source string, index int, tr *trace.Trace) (ksuid.KSUID, error) {
	if source == "" {
		return ksuid.Nil, ErrNoSource
	}
	for i := 0; i < len(source); i++ {
		if source[i] == 0 {
			return ksuid.Nil, ErrBadSource
		}
	}

	id := ksuid.New()
	e := Entry{
		ID:           id.String(),
		Source:       source,
		Index:        index,
		Station:      tr.Station,
		Channel:      tr.Channel,
		SamplingRate: tr.SamplingRate,
		SampleCount:  tr.SampleCount,
		Calibration:  tr.Calibration,
		StartTime:    tr.StartTime,
		EndTime:      tr.EndTime(),
		Extensions:   tr.Extensions,
		IndexedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("encode entry: %w", err)
	}

	if err := b.Set(headerKey(id), data, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := b.Set(sourceKey(source, id), nil, nil); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

func headerKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, headerPrefix...), id.Bytes()...)
}

func sourceKeyPrefix(source string) []byte {
	k := append(append([]byte{}, sourcePrefix...), source...)
	return append(k, 0)
}

func sourceKey(source string, id ksuid.KSUID) []byte {
	return append(sourceKeyPrefix(source), id.Bytes()...)
}

// upperBound returns the smallest key greater than every key with prefix.
// Prefixes here never end in 0xFF.
func upperBound(prefix []byte) []byte {
	hi := append([]byte{}, prefix...)
	hi[len(hi)-1]++
	return hi
}
