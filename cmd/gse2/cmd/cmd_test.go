package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/gse2/pkg/api"
	"github.com/ssargent/gse2/pkg/catalog"
	"github.com/ssargent/gse2/pkg/config"
	"github.com/ssargent/gse2/pkg/di"
	"github.com/ssargent/gse2/pkg/gse2"
	"github.com/ssargent/gse2/pkg/trace"
)

// resetFlags restores every flag to its default so runs do not leak state
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testEnv writes a config file whose catalog lives in a temp dir
func testEnv(t *testing.T) (dir, configPath string) {
	t.Helper()
	SetContainer(di.NewContainer())
	t.Cleanup(func() { SetContainer(nil) })

	dir = t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Catalog.Dir = filepath.Join(dir, "catalog")
	cfg.Logging.Level = "error"
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))
	return dir, configPath
}

func writeContainer(t *testing.T, path string, stations ...string) {
	t.Helper()
	s := trace.NewStream()
	for _, station := range stations {
		tr := trace.New()
		tr.Station = station
		tr.Channel = "BHZ"
		tr.SamplingRate = 40
		tr.Calibration = 0.5
		tr.StartTime = time.Date(2019, 7, 6, 3, 19, 53, 40000000, time.UTC)
		tr.Samples = []int{10, 20, 15, -4, 0}
		tr.SampleCount = 5
		s.Append(tr)
	}
	require.NoError(t, gse2.WriteFile(s, path, gse2.WriteOptions{}))
}

func TestProbeCommand(t *testing.T) {
	dir, configPath := testEnv(t)
	good := filepath.Join(dir, "good.gse")
	writeContainer(t, good, "AAA")
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0644))

	out, err := executeCommand(t, "probe", "--config", configPath, good, bad, filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Contains(t, out, good+": yes")
	assert.Contains(t, out, bad+": no")
	assert.Contains(t, out, "missing: no")

	_, err = executeCommand(t, "probe", "--config", configPath)
	assert.Error(t, err)
}

func TestHeadersCommand(t *testing.T) {
	dir, configPath := testEnv(t)
	path := filepath.Join(dir, "event.gse")
	writeContainer(t, path, "AAA", "BBB")

	t.Run("table", func(t *testing.T) {
		out, err := executeCommand(t, "headers", "--config", configPath, path)
		require.NoError(t, err)
		assert.Contains(t, out, "STATION")
		assert.Contains(t, out, "AAA")
		assert.Contains(t, out, "BBB")
		assert.Contains(t, out, "2019-07-06T03:19:53.040000Z")
	})

	t.Run("json with verify", func(t *testing.T) {
		out, err := executeCommand(t, "headers", "--config", configPath, "--verify", "--json", path)
		require.NoError(t, err)

		var s trace.Stream
		require.NoError(t, json.Unmarshal([]byte(out), &s))
		require.Len(t, s.Traces, 2)
		assert.Equal(t, "BBB", s.Traces[1].Station)
		assert.Nil(t, s.Traces[1].Samples)
		assert.Equal(t, 5, s.Traces[1].SampleCount)
	})

	t.Run("empty container", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.gse")
		require.NoError(t, os.WriteFile(empty, nil, 0644))

		out, err := executeCommand(t, "headers", "--config", configPath, empty)
		require.NoError(t, err)
		assert.Contains(t, out, "No records found")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(t, "headers", "--config", configPath, filepath.Join(dir, "nope.gse"))
		assert.Error(t, err)
	})
}

func TestConvertCommand(t *testing.T) {
	dir, configPath := testEnv(t)
	in := filepath.Join(dir, "in.gse")
	writeContainer(t, in, "AAA", "BBB", "CCC")

	out := filepath.Join(dir, "nested", "out.gse.gz")
	stdout, err := executeCommand(t, "convert", "--config", configPath, "--datatype", "int", in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "converted 3 records")

	s, err := gse2.ReadFile(out, gse2.DefaultReadOptions())
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "INT", s.Traces[0].Extensions["datatype"])
	assert.Equal(t, []int{10, 20, 15, -4, 0}, s.Traces[2].Samples)

	_, err = executeCommand(t, "convert", "--config", configPath, "--datatype", "FLOAT", in, out)
	assert.Error(t, err)
}

func TestConvertCommand_ChecksumFailure(t *testing.T) {
	dir, configPath := testEnv(t)
	in := filepath.Join(dir, "in.gse")
	writeContainer(t, in, "AAA")

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.True(t, strings.HasPrefix(lines[3], "CHK2"))
	lines[3] = "CHK2 12345678"
	require.NoError(t, os.WriteFile(in, []byte(strings.Join(lines, "\n")), 0644))

	out := filepath.Join(dir, "out.gse")
	_, err = executeCommand(t, "convert", "--config", configPath, in, out)
	assert.ErrorIs(t, err, gse2.ErrChecksum)

	_, err = executeCommand(t, "convert", "--config", configPath, "--no-verify", in, out)
	assert.NoError(t, err)
}

func TestIndexAndCatalogCommands(t *testing.T) {
	dir, configPath := testEnv(t)
	a := filepath.Join(dir, "a.gse")
	b := filepath.Join(dir, "b.gse")
	writeContainer(t, a, "AAA", "BBB")
	writeContainer(t, b, "CCC")

	out, err := executeCommand(t, "index", "--config", configPath, a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 3 records from 2 files")

	out, err = executeCommand(t, "catalog", "list", "--config", configPath, "--json", "--source", a)
	require.NoError(t, err)
	var entries []*catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "AAA", entries[0].Station)

	out, err = executeCommand(t, "catalog", "list", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "CCC")

	id := entries[1].ID
	out, err = executeCommand(t, "catalog", "show", "--config", configPath, id)
	require.NoError(t, err)
	assert.Contains(t, out, "BBB.BHZ | 2019-07-06T03:19:53.040000Z - 2019-07-06T03:19:53.140000Z | 40.0 Hz, 5 samples")
	assert.Contains(t, out, "datatype:")

	out, err = executeCommand(t, "catalog", "delete", "--config", configPath, id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id)

	_, err = executeCommand(t, "catalog", "show", "--config", configPath, id)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = executeCommand(t, "catalog", "show", "--config", configPath, "bogus")
	assert.Error(t, err)
}

func TestIndexCommand_CatalogDirFlag(t *testing.T) {
	dir, configPath := testEnv(t)
	a := filepath.Join(dir, "a.gse")
	writeContainer(t, a, "AAA")
	alt := filepath.Join(dir, "alt")

	_, err := executeCommand(t, "index", "--config", configPath, "--catalog-dir", alt, a)
	require.NoError(t, err)
	assert.DirExists(t, alt)

	out, err := executeCommand(t, "catalog", "list", "--config", configPath, "--catalog-dir", alt)
	require.NoError(t, err)
	assert.Contains(t, out, "AAA")
}

func TestIndexCommand_NoContainer(t *testing.T) {
	_, configPath := testEnv(t)
	SetContainer(nil)

	_, err := executeCommand(t, "index", "--config", configPath, "whatever.gse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency container not initialized")
}

type recordingStarter struct {
	config api.ServerConfig
	cat    api.HeaderCatalog
}

func (s *recordingStarter) StartServer(ctx context.Context, cat api.HeaderCatalog, config api.ServerConfig) error {
	s.config = config
	s.cat = cat
	return nil
}

type recordingFactory struct {
	starter *recordingStarter
}

func (f *recordingFactory) CreateServerStarter() api.ServerStarter {
	return f.starter
}

func TestServeCommand(t *testing.T) {
	_, configPath := testEnv(t)
	starter := &recordingStarter{}
	container.SetServerFactory(&recordingFactory{starter: starter})

	out, err := executeCommand(t, "serve", "--config", configPath, "--port", "9321", "--api-key", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "127.0.0.1:9321")

	assert.Equal(t, 9321, starter.config.Port)
	assert.Equal(t, "127.0.0.1", starter.config.Bind)
	assert.Equal(t, "k", starter.config.APIKey)
	assert.True(t, starter.config.Read.VerifyChecksum)
	assert.Equal(t, "CM6", starter.config.Write.Encode.DataType)
	assert.NotNil(t, starter.cat)

	_, err = executeCommand(t, "serve", "--config", configPath, "--port", "70000")
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sub", "config.yaml")

	out, err := executeCommand(t, "init", "--config", configPath, "--catalog-dir", "/data/catalog", "--api-key")
	require.NoError(t, err)
	assert.Contains(t, out, "Config written to "+configPath)
	assert.Contains(t, out, "API key: ")

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/data/catalog", cfg.Catalog.Dir)
	assert.Len(t, cfg.Server.APIKey, 64)

	out, err = executeCommand(t, "init", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = executeCommand(t, "init", "--config", configPath, "--force")
	require.NoError(t, err)
	assert.NotContains(t, out, "API key: ")

	cfg, err = config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "./catalog", cfg.Catalog.Dir)
	assert.Empty(t, cfg.Server.APIKey)
}

func TestRootCommand_BadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := executeCommand(t, "probe", "--config", filepath.Join(dir, "missing.yaml"), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")

	_, configPath := testEnv(t)
	_, err = executeCommand(t, "probe", "--config", configPath, "--log-level", "chatty", "x")
	assert.Error(t, err)
}
