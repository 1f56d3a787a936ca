package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrServiceExists is returned when registering a name that is taken.
	ErrServiceExists = errors.New("service already registered")
	// ErrServiceNotFound is returned for unknown service names.
	ErrServiceNotFound = errors.New("service not found")
)

// typeRank orders services for reporting: the shared adapters in the order
// they come up, then module processes.
var typeRank = map[ServiceType]int{
	TypeBroker:   0,
	TypeDatabase: 1,
	TypeProxy:    2,
	TypeModule:   3,
}

type registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

// NewRegistry creates an empty service registry.
func NewRegistry() ServiceRegistry {
	return &registry{
		services: make(map[string]Service),
	}
}

func (r *registry) Register(service Service) error {
	name, err := validName(service)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceExists, name)
	}
	r.services[name] = service
	return nil
}

// Replace registers service, dropping a previous entry of the same name and
// type. A name held by a service of another type is not taken over, so a
// module process can never shadow the broker, proxy or database.
func (r *registry) Replace(service Service) error {
	name, err := validName(service)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.services[name]; ok && existing.GetType() != service.GetType() {
		return fmt.Errorf("%w: %s is a %s", ErrServiceExists, name, existing.GetType())
	}
	r.services[name] = service
	return nil
}

func (r *registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; !exists {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	delete(r.services, name)
	return nil
}

// UnregisterByType drops every service of the given type and reports how
// many were removed.
func (r *registry) UnregisterByType(serviceType ServiceType) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for name, service := range r.services {
		if service.GetType() == serviceType {
			delete(r.services, name)
			removed++
		}
	}
	return removed
}

func (r *registry) Get(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	return service, exists
}

// GetAll returns every service, adapters first, then by name.
func (r *registry) GetAll() []Service {
	r.mu.RLock()
	all := make([]Service, 0, len(r.services))
	for _, service := range r.services {
		all = append(all, service)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		ri, rj := rank(all[i].GetType()), rank(all[j].GetType())
		if ri != rj {
			return ri < rj
		}
		return all[i].GetName() < all[j].GetName()
	})
	return all
}

func (r *registry) GetByType(serviceType ServiceType) []Service {
	var matched []Service
	for _, service := range r.GetAll() {
		if service.GetType() == serviceType {
			matched = append(matched, service)
		}
	}
	return matched
}

func validName(service Service) (string, error) {
	if service == nil {
		return "", fmt.Errorf("cannot register nil service")
	}
	name := service.GetName()
	if name == "" {
		return "", fmt.Errorf("service has empty name")
	}
	return name, nil
}

func rank(t ServiceType) int {
	if r, ok := typeRank[t]; ok {
		return r
	}
	return len(typeRank)
}
