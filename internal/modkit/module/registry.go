package module

import (
	"slices"
	"sync"
)

// process wide port sets keyed by module name, filled by api.Mount
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port set of a mounted module, a later call for the same name replaces it
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs returns the port set registered under name when it has type T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	out, ok2 := v.(T)
	return out, ok && ok2
}

// Names lists registered modules in order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Reset empties the registry
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
