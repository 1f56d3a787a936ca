// Package orchestrator provides the core lifecycle orchestration of the launcher.
//
// The orchestrator owns the three service adapters (broker, proxy and
// database), the per-start configurator, and the stop functions of every
// started module. It moves through these states:
//
//	idle -> starting -> running -> stopping -> idle
//	           \-> failed
//
// # Startup
//
// Start resolves the module set and allocates one port per module, counting
// up from the base port in name order. Duplicate module names fail the start
// before anything is spawned.
//
// Next it runs three tasks in parallel: loading the log options, starting
// the broker, and starting the database. Once the broker runs, the broker
// entry of every Configurable module is added to a fresh configurator,
// which is then sealed and pushed to the broker.
//
// All modules are then started concurrently. Each gets its port, the two
// secrets, its log stream and the log options, plus a Dependencies bundle
// holding the adapters, a service factory and the full port table. The
// proxy starts last, once every module has registered its route.
//
// Startup is all-or-nothing. If any step fails, everything already running
// is stopped through the same path Close uses, and Start returns a
// *StartError naming the failed stage.
//
// # Shutdown
//
// Close calls every collected stop function concurrently. Each call is
// bounded by the stop timeout, and a failure is logged without stopping
// the others. The proxy, database and broker are then stopped in parallel.
//
// # Concurrency
//
// Start, Close and Restart are serialized: a second call waits until the
// running one finishes, or until its context is done. State, Services and
// PortsAllocation can be called at any time.
//
//	orch, err := orchestrator.New(orchestrator.Config{
//	    Modules:  modules.NewFileSet("modules.yml"),
//	    Broker:   brokerAdapter,
//	    Proxy:    proxyAdapter,
//	    Database: databaseAdapter,
//	    Services: services.NewFactory(sup, timeouts),
//	})
//	if err != nil {
//	    return err
//	}
//	if err := orch.Start(ctx); err != nil {
//	    return err
//	}
//	defer orch.Close(context.Background())
package orchestrator
