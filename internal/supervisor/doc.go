// Package supervisor is the service-supervision contract between the
// launcher and the binaries it runs.
//
// The Supervisor interface is deliberately small: start an executable with
// arguments and a log sink, get a handle back, stop by handle. Service
// adapters depend only on the interface. ProcessSupervisor is the production
// implementation and runs each service as a child process in its own process
// group.
package supervisor
