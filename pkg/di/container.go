// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/gse2/pkg/api"     //nolint:depguard
	"github.com/ssargent/gse2/pkg/catalog" //nolint:depguard
)

// CatalogOpener opens the header catalog stored in dir
type CatalogOpener func(dir string) (*catalog.Catalog, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	catalogOpener CatalogOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		catalogOpener: catalog.Open,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenCatalog opens the header catalog in dir
func (c *Container) OpenCatalog(dir string) (*catalog.Catalog, error) {
	return c.catalogOpener(dir)
}

// SetCatalogOpener allows overriding how catalogs are opened (for testing)
func (c *Container) SetCatalogOpener(opener CatalogOpener) {
	c.catalogOpener = opener
}
