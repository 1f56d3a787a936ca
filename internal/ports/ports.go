// Package ports assigns one TCP port to each module.
//
// The assignment is a pure function of the module name set: names are
// sorted lexicographically and the i-th name receives BasePort+i. The same
// module set therefore always produces the same table, which lets the proxy
// and other modules address a module before it has started.
package ports

import (
	"fmt"
	"sort"
)

// DefaultBasePort is the first port handed out.
const DefaultBasePort = 2828

// maxPort is the highest valid TCP port.
const maxPort = 65535

// DuplicateModuleError is returned when the same module name appears twice.
type DuplicateModuleError struct {
	Name string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("duplicate module name %q", e.Name)
}

// Allocation maps module names to ports.
type Allocation map[string]int

// Names returns the module names in allocation order.
func (a Allocation) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Port returns the port assigned to name.
func (a Allocation) Port(name string) (int, bool) {
	port, ok := a[name]
	return port, ok
}

// Clone returns a copy that callers may modify freely.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Allocate assigns base+i to the i-th module name in lexicographic order.
func Allocate(names []string, base int) (Allocation, error) {
	if base <= 0 || base > maxPort {
		return nil, fmt.Errorf("invalid base port %d", base)
	}
	if base+len(names)-1 > maxPort {
		return nil, fmt.Errorf("%d modules do not fit above base port %d", len(names), base)
	}

	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	alloc := make(Allocation, len(sorted))
	for i, name := range sorted {
		if name == "" {
			return nil, fmt.Errorf("module at position %d has an empty name", i)
		}
		if i > 0 && sorted[i-1] == name {
			return nil, &DuplicateModuleError{Name: name}
		}
		alloc[name] = base + i
	}
	return alloc, nil
}
