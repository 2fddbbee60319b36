package domain

import "strings"

// PlatformPrefix marks process variables that always flow to the deployed
// application.
const PlatformPrefix = "PLT_"

// ReservedVariables are forwarded as variables regardless of the caller's
// allow-list.
var ReservedVariables = []string{"PORT", "DATABASE_URL"}

// ReservedSecrets are forwarded as secrets regardless of the caller's
// allow-list.
var ReservedSecrets = []string{}

// EnvVarSet maps normalized variable names to values.
type EnvVarSet map[string]string

// NormalizeKey trims and upper-cases a variable name. Every lookup and
// comparison on an EnvVarSet goes through it.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// MergeEnv merges sources left to right: for identical normalized keys the
// rightmost source wins.
func MergeEnv(sources ...EnvVarSet) EnvVarSet {
	merged := make(EnvVarSet)
	for _, src := range sources {
		for k, v := range src {
			merged[NormalizeKey(k)] = v
		}
	}
	return merged
}

// CollectVariables selects the environ entries ("KEY=VALUE") that may flow to
// the deployed application: reserved platform variables, names in allowed,
// and names carrying PlatformPrefix. Everything else stays in CI.
func CollectVariables(environ, allowed []string) EnvVarSet {
	allow := nameSet(ReservedVariables, allowed)
	return collect(environ, func(key string) bool {
		if _, ok := allow[key]; ok {
			return true
		}
		return strings.HasPrefix(key, PlatformPrefix)
	})
}

// CollectSecrets selects the environ entries named in allowed or in
// ReservedSecrets.
func CollectSecrets(environ, allowed []string) EnvVarSet {
	allow := nameSet(ReservedSecrets, allowed)
	return collect(environ, func(key string) bool {
		_, ok := allow[key]
		return ok
	})
}

func collect(environ []string, include func(key string) bool) EnvVarSet {
	out := make(EnvVarSet)
	for _, kv := range environ {
		rawKey, value, _ := strings.Cut(kv, "=")
		key := NormalizeKey(rawKey)
		if key == "" {
			continue
		}
		if include(key) {
			out[key] = value
		}
	}
	return out
}

func nameSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, name := range list {
			if n := NormalizeKey(name); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	return set
}
