package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
listen_host: 127.0.0.1
listen_port: 5300
enable_tcp: true
search: ["example.com"]
servers:
  - address: "1.1.1.1:53"
    zones: []
  - address: "9.9.9.9:53"
    zones: ["example.com"]
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hydraforward.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	f, cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", f.ListenHost)
	assert.Equal(t, 5300, f.ListenPort)
	assert.True(t, f.EnableTCP)

	require.Len(t, cfg.Servers, 2)
	assert.Empty(t, cfg.Servers[0].Zones)
	assert.Equal(t, Domain{"example", "com"}, cfg.Servers[1].Zones[0])
	assert.Equal(t, []string{"example.com"}, cfg.Search)
}

func TestLoadDefaults(t *testing.T) {
	_, cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Servers)
}

func TestLoadRejectsDuplicateAddress(t *testing.T) {
	path := writeTempConfig(t, `
servers:
  - address: "1.1.1.1:53"
  - address: "1.1.1.1:53"
`)
	_, _, err := Load(path)
	require.Error(t, err)
}

func TestDomainParsing(t *testing.T) {
	assert.Equal(t, Domain{"www", "example", "com"}, ParseDomain("www.example.com."))
	assert.Nil(t, ParseDomain(""))
	assert.True(t, ParseDomain("Example.COM").Equal(Domain{"example", "com"}))
}

func TestAddressCompare(t *testing.T) {
	a, err := ParseAddress("1.1.1.1:53")
	require.NoError(t, err)
	b, err := ParseAddress("1.1.1.1:54")
	require.NoError(t, err)
	assert.Negative(t, a.Compare(b))
	assert.Zero(t, a.Compare(a))
}
