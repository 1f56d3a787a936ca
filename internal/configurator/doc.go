// Package configurator accumulates the broker configuration of every
// module during startup.
//
// Modules add their Entry while the launcher starts them. Once all
// modules have been added the configurator is sealed: the collected
// Aggregate is pushed to the broker and further additions fail with
// ErrSealed. A fresh Configurator is created for every start.
package configurator
