// Package zonerouter implements the zone-based upstream selection policy
// (§4.2): pick every configured server whose zone is a suffix of the
// query's QNAME labels, falling back to the default (zoneless) servers
// when nothing matches.
package zonerouter

import "github.com/hydraforward/hydraforward/internal/config"

// Choose returns the set of servers a query for labels should be
// forwarded to. labels is the QNAME split into its ordered DNS labels
// (e.g. SplitLabels output from dnswire). An empty labels slice is
// treated the same as any other name for matching purposes; callers are
// responsible for the "zero or multiple questions => no forwarding" rule
// at a higher layer.
func Choose(cfg config.Configuration, labels []string) []config.Server {
	var matched []config.Server
	for _, s := range cfg.Servers {
		if matchesZone(s, labels) {
			matched = append(matched, s)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	var defaults []config.Server
	for _, s := range cfg.Servers {
		if len(s.Zones) == 0 {
			defaults = append(defaults, s)
		}
	}
	return defaults
}

// matchesZone reports whether any of s.Zones is a suffix of labels. A
// server with no zones never matches here (it is picked up only by the
// zoneless-defaults fallback).
func matchesZone(s config.Server, labels []string) bool {
	for _, zone := range s.Zones {
		if isSuffix(zone, labels) {
			return true
		}
	}
	return false
}

// isSuffix reports whether zone's labels equal the tail of labels,
// label-by-label.
func isSuffix(zone config.Domain, labels []string) bool {
	if len(zone) > len(labels) {
		return false
	}
	offset := len(labels) - len(zone)
	for i, z := range zone {
		if labels[offset+i] != z {
			return false
		}
	}
	return true
}
