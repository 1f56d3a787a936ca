package services

import (
	"context"
)

// ServiceState is the lifecycle state of a service.
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateFailed   ServiceState = "failed"
)

// ServiceType represents the type of service
type ServiceType string

const (
	TypeBroker   ServiceType = "Broker"
	TypeProxy    ServiceType = "Proxy"
	TypeDatabase ServiceType = "Database"
	TypeModule   ServiceType = "Module"
)

// Service is the core interface that all services must implement
type Service interface {
	// Lifecycle management
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error

	// State management
	GetState() ServiceState
	GetLastError() error

	// Service metadata
	GetName() string
	GetType() ServiceType

	// State change notifications
	// The service should call this callback when its state changes
	SetStateChangeCallback(callback StateChangeCallback)
}

// StateChangeCallback is called when a service's state changes
type StateChangeCallback func(name string, oldState, newState ServiceState, err error)

// ServiceRegistry tracks the adapters and module processes of one
// orchestrator by name.
type ServiceRegistry interface {
	// Register fails with ErrServiceExists when the name is taken.
	Register(service Service) error
	Replace(service Service) error
	Unregister(name string) error
	UnregisterByType(serviceType ServiceType) int

	Get(name string) (Service, bool)
	GetAll() []Service
	GetByType(serviceType ServiceType) []Service
}
