package services

import (
	"sync"
	"time"
)

// now is the clock used for transition timestamps.
var now = time.Now

// BaseService keeps the state of a service and reports transitions to a
// callback. Concrete services embed it.
type BaseService struct {
	mu          sync.RWMutex
	name        string
	serviceType ServiceType
	state       ServiceState
	lastError   error
	changedAt   time.Time
	transitions int
	onChange    StateChangeCallback
}

// NewBaseService creates a stopped service.
func NewBaseService(name string, serviceType ServiceType) *BaseService {
	return &BaseService{
		name:        name,
		serviceType: serviceType,
		state:       StateStopped,
	}
}

func (b *BaseService) GetName() string {
	return b.name
}

func (b *BaseService) GetType() ServiceType {
	return b.serviceType
}

func (b *BaseService) GetState() ServiceState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *BaseService) GetLastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

// StateChangedAt returns when the service entered its current state. It is
// zero until the first transition.
func (b *BaseService) StateChangedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.changedAt
}

// Transitions counts state changes since the service was created.
func (b *BaseService) Transitions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.transitions
}

func (b *BaseService) SetStateChangeCallback(callback StateChangeCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = callback
}

// UpdateState records newState and err. The callback fires only when the
// state actually changes, outside the lock.
func (b *BaseService) UpdateState(newState ServiceState, err error) {
	b.mu.Lock()
	oldState := b.state
	b.state = newState
	b.lastError = err
	changed := oldState != newState
	if changed {
		b.changedAt = now()
		b.transitions++
	}
	callback := b.onChange
	b.mu.Unlock()

	if callback != nil && changed {
		callback(b.name, oldState, newState, err)
	}
}
