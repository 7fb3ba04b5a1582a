package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// fileServer is the YAML shape of one upstream server entry.
type fileServer struct {
	Address string   `yaml:"address"    mapstructure:"address"`
	Zones   []string `yaml:"zones"      mapstructure:"zones"`
}

// File is the YAML shape the loader reads before converting to the core's
// Configuration. Listener bind settings live alongside it because they
// come from the same file, but they are consumed by cmd/hydraforward, not
// by the core.
type File struct {
	ListenHost string       `yaml:"listen_host" mapstructure:"listen_host"`
	ListenPort int          `yaml:"listen_port" mapstructure:"listen_port"`
	EnableTCP  bool         `yaml:"enable_tcp"  mapstructure:"enable_tcp"`
	Servers    []fileServer `yaml:"servers"     mapstructure:"servers"`
	Search     []string     `yaml:"search"      mapstructure:"search"`
}

// Load reads path (if non-empty) as YAML, applies HYDRAFORWARD_-prefixed
// environment variable overrides, and returns both the raw File (for
// listener bind settings) and the Configuration it implies for the core.
func Load(path string) (*File, *Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HYDRAFORWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, nil, fmt.Errorf("config: failed to decode configuration: %w", err)
	}

	cfg, err := f.toConfiguration()
	if err != nil {
		return nil, nil, err
	}
	return &f, cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("listen_port", 53)
	v.SetDefault("enable_tcp", true)
	v.SetDefault("servers", []map[string]any{})
	v.SetDefault("search", []string{})
}

// toConfiguration converts the YAML shape into the core's Configuration,
// validating the "no two entries share the same address" invariant (§3).
func (f File) toConfiguration() (*Configuration, error) {
	seen := make(map[string]struct{}, len(f.Servers))
	servers := make([]Server, 0, len(f.Servers))
	for _, fs := range f.Servers {
		addr, err := ParseAddress(fs.Address)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addr.String()]; dup {
			return nil, fmt.Errorf("config: duplicate server address %s", addr)
		}
		seen[addr.String()] = struct{}{}

		zones := make([]Domain, 0, len(fs.Zones))
		for _, z := range fs.Zones {
			zones = append(zones, ParseDomain(z))
		}
		servers = append(servers, Server{Zones: zones, Address: addr})
	}

	return &Configuration{Servers: servers, Search: f.Search}, nil
}
