package redis

import "strings"

const (
	// KeyPrefix namespaces every key written by the relay
	KeyPrefix = "chatrelay:"
	// DefaultDestinationsKey holds the JSON array of registered chat ids
	DefaultDestinationsKey = KeyPrefix + "destinations"
)

// DestinationsKey returns the key holding the destination set.
// An empty name or the bare prefix falls back to DefaultDestinationsKey;
// a name without the prefix gets it.
func DestinationsKey(name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "" || name == KeyPrefix:
		return DefaultDestinationsKey
	case strings.HasPrefix(name, KeyPrefix):
		return name
	default:
		return KeyPrefix + name
	}
}
