package zonerouter

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydraforward/hydraforward/internal/config"
)

func srv(zones []string, addr string) config.Server {
	var domains []config.Domain
	for _, z := range zones {
		domains = append(domains, config.ParseDomain(z))
	}
	return config.Server{Zones: domains, Address: config.Address{IP: net.ParseIP("127.0.0.1"), Port: mustPort(addr)}}
}

func mustPort(addr string) int {
	switch addr {
	case "a":
		return 1
	case "b":
		return 2
	default:
		return 0
	}
}

func TestChooseZoneMatch(t *testing.T) {
	a := srv([]string{"example.com"}, "a")
	b := srv(nil, "b")
	cfg := config.Configuration{Servers: []config.Server{a, b}}

	got := Choose(cfg, []string{"foo", "example", "com"})
	assert.Equal(t, []config.Server{a}, got)
}

func TestChooseFallsBackToDefaults(t *testing.T) {
	a := srv([]string{"example.com"}, "a")
	b := srv(nil, "b")
	cfg := config.Configuration{Servers: []config.Server{a, b}}

	got := Choose(cfg, []string{"foo", "net"})
	assert.Equal(t, []config.Server{b}, got)
}

func TestChooseEmptyZonesNeverMatchDirectly(t *testing.T) {
	a := srv(nil, "a")
	cfg := config.Configuration{Servers: []config.Server{a}}

	got := Choose(cfg, []string{"foo", "com"})
	assert.Equal(t, []config.Server{a}, got) // via the defaults fallback, not a direct zone match
}

func TestChooseNoMatchNoDefaultsIsEmpty(t *testing.T) {
	a := srv([]string{"example.com"}, "a")
	cfg := config.Configuration{Servers: []config.Server{a}}

	got := Choose(cfg, []string{"foo", "net"})
	assert.Empty(t, got)
}

func TestChooseMonotonicity(t *testing.T) {
	a := srv([]string{"example.com"}, "a")
	cfg := config.Configuration{Servers: []config.Server{a}}

	got1 := Choose(cfg, []string{"example", "com"})
	got2 := Choose(cfg, []string{"foo", "bar", "example", "com"})
	assert.Equal(t, got1, got2)
}

func TestIsSuffix(t *testing.T) {
	assert.True(t, isSuffix(config.Domain{"com"}, []string{"foo", "com"}))
	assert.False(t, isSuffix(config.Domain{"net"}, []string{"foo", "com"}))
	assert.False(t, isSuffix(config.Domain{"a", "b", "c"}, []string{"b", "c"}))
}
