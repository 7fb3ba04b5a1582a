// Package config holds the data model the forwarding core is configured
// with (§3 of the forwarding design) and a Viper-based loader that turns
// a YAML file into it. The loader — and anything resembling
// /etc/resolv.conf ingestion — is an ambient concern external to the
// core; the core only ever consumes a Configuration value.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Domain is an ordered sequence of labels, root-last-omitted, e.g.
// "www.example.com" is Domain{"www", "example", "com"}.
type Domain []string

// ParseDomain splits a dotted name into a Domain, lowercasing and
// dropping a trailing root dot.
func ParseDomain(s string) Domain {
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// Equal reports whether d and o have the same labels in the same order.
func (d Domain) Equal(o Domain) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if d[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the domain back to dotted form.
func (d Domain) String() string {
	return strings.Join(d, ".")
}

// Address is an (ip, port) pair, totally ordered by lexicographic compare
// on (ip, port).
type Address struct {
	IP   net.IP
	Port int
}

// ParseAddress parses a "host:port" string into an Address.
func ParseAddress(s string) (Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, fmt.Errorf("config: invalid address %q: %w", s, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return Address{}, fmt.Errorf("config: invalid ip in address %q", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("config: invalid port in address %q: %w", s, err)
	}
	return Address{IP: ip, Port: port}, nil
}

// String renders the address in "host:port" form.
func (a Address) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// Compare orders a against b lexicographically on (ip, port); negative if
// a < b, 0 if equal, positive if a > b.
func (a Address) Compare(b Address) int {
	if c := strings.Compare(a.IP.String(), b.IP.String()); c != 0 {
		return c
	}
	return a.Port - b.Port
}

// Server is one upstream: the zones it is authoritative for routing
// purposes, and its address. An empty Zones marks it as a default.
type Server struct {
	Zones   []Domain
	Address Address
}

// Configuration is the immutable, installed-once forwarder configuration.
type Configuration struct {
	Servers []Server
	Search  []string
}
