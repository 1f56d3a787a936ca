// Package broker runs the mhub message broker and pushes the sealed
// module configuration to it.
//
// Before the process is spawned the adapter writes mhub.config.json into
// the broker's data directory. The file declares three nodes (default,
// protected and configuration) and two users whose passwords are the
// launcher's secrets.
package broker
