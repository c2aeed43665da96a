package config

import "os"

// EnvLookup reads one environment variable. It has the signature of os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// OSEnv reads the process environment.
var OSEnv EnvLookup = os.LookupEnv

// MapEnv returns an EnvLookup backed by m.
func MapEnv(m map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Credential source labels, reported in the system init event.
const (
	SourceExplicit = "explicit"
	SourceEnv      = "env"
)

// ResolveAPIKey returns the effective key and its source. An explicit key wins
// over the environment variable named envKey. An empty result means no
// credential is available.
func ResolveAPIKey(explicit string, env EnvLookup, envKey string) (key, source string) {
	if explicit != "" {
		return explicit, SourceExplicit
	}
	if env != nil {
		if v, ok := env(envKey); ok && v != "" {
			return v, SourceEnv
		}
	}
	return "", ""
}
