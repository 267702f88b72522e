package di

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/gse2/pkg/api"
	"github.com/ssargent/gse2/pkg/catalog"
)

type stubStarter struct {
	called bool
}

func (s *stubStarter) StartServer(ctx context.Context, cat api.HeaderCatalog, config api.ServerConfig) error {
	s.called = true
	return nil
}

type stubFactory struct {
	starter *stubStarter
}

func (f *stubFactory) CreateServerStarter() api.ServerStarter {
	return f.starter
}

func TestNewContainer_Defaults(t *testing.T) {
	c := NewContainer()

	assert.IsType(t, &api.DefaultServerFactory{}, c.GetServerFactory())

	cat, err := c.OpenCatalog(filepath.Join(t.TempDir(), "catalog"))
	require.NoError(t, err)
	assert.NoError(t, cat.Close())
}

func TestContainer_Overrides(t *testing.T) {
	c := NewContainer()

	starter := &stubStarter{}
	c.SetServerFactory(&stubFactory{starter: starter})
	require.NoError(t, c.GetServerFactory().CreateServerStarter().StartServer(context.Background(), nil, api.ServerConfig{}))
	assert.True(t, starter.called)

	errBoom := errors.New("boom")
	c.SetCatalogOpener(func(dir string) (*catalog.Catalog, error) {
		return nil, errBoom
	})
	_, err := c.OpenCatalog("ignored")
	assert.ErrorIs(t, err, errBoom)
}
