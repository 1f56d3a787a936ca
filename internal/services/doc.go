// Package services provides the service abstraction layer for the launcher.
//
// Every external process the launcher runs (the mhub broker, the caddy
// proxy, the mongo database and each module) is a Service. A Service has a
// name, a type and a five-state lifecycle:
//
//	stopped -> starting -> running -> stopping -> stopped
//	                   \-> failed
//
// # ProcessService
//
// ProcessService is the generic adapter behind all of them. It is built
// from a Definition and never spawns anything itself: it hands a
// supervisor.Spec to a supervisor.Supervisor and keeps the returned handle.
// Every supervisor call is bounded by Timeouts; a call that does not return
// in time fails with a *TimeoutError.
//
//	svc := services.NewProcessService(services.Definition{
//	    Name:       "mhub",
//	    Type:       services.TypeBroker,
//	    Executable: "./internals/mhub/bin/mhub-server",
//	}, sup, services.Timeouts{Start: 30 * time.Second, Stop: 10 * time.Second})
//
//	if err := svc.Start(ctx); services.IsTimeout(err) {
//	    // the supervisor hung
//	}
//
// Start on a starting or running service and Stop on a service without a
// process are both no-ops.
//
// # Registry
//
// ServiceRegistry tracks services by name and rejects duplicates. Module
// processes of a previous start are swapped in place with Replace. Status
// and Statuses turn registered services into reportable snapshots, listing
// the broker, database and proxy before modules.
//
// The concrete broker, proxy and database adapters live in the broker,
// proxy and database subpackages.
package services
