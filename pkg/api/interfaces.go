// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/gse2/pkg/catalog"
	"github.com/ssargent/gse2/pkg/trace"
)

// HeaderCatalog defines the catalog operations the API needs
type HeaderCatalog interface {
	AddStream(source string, s *trace.Stream) ([]ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*catalog.Entry, error)
	Delete(id ksuid.KSUID) error
	List() ([]*catalog.Entry, error)
	ListSource(source string) ([]*catalog.Entry, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, cat HeaderCatalog, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
