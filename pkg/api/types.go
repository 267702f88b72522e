package api

import (
	"github.com/ssargent/gse2/pkg/catalog"
	"github.com/ssargent/gse2/pkg/gse2"
	"github.com/ssargent/gse2/pkg/trace"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProbeResponse is returned by the probe endpoint
type ProbeResponse struct {
	GSE2 bool `json:"gse2"`
}

// TracesResponse is returned by the traces endpoint
type TracesResponse struct {
	Traces    []*trace.Trace `json:"traces"`
	Truncated bool           `json:"truncated"`
}

// CatalogAddResponse lists the ids of newly catalogued headers
type CatalogAddResponse struct {
	Source    string   `json:"source"`
	IDs       []string `json:"ids"`
	Truncated bool     `json:"truncated"`
}

// CatalogListResponse lists catalogued headers
type CatalogListResponse struct {
	Entries []*catalog.Entry `json:"entries"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind         string
	Port         int
	APIKey       string // Empty disables authentication
	MaxBodyBytes int64  // Upload size cap (0 = DefaultMaxBodyBytes)
	Read         gse2.ReadOptions
	Write        gse2.WriteOptions
}

// DefaultMaxBodyBytes caps container uploads
const DefaultMaxBodyBytes = 256 << 20

func (c ServerConfig) maxBodyBytes() int64 {
	if c.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return c.MaxBodyBytes
}
