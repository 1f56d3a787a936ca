// Package statusapi exposes the launcher over a small HTTP API.
//
// Routes:
//
//	GET  /healthz          orchestrator state, 503 when failed
//	GET  /status           state, last error, modules and services
//	GET  /services/{name}  status of one service
//	GET  /ports            port allocation of the resolved modules
//	GET  /configuration    broker configuration of the last start (YAML)
//	POST /restart          close and start again
//	GET  /metrics          Prometheus metrics
package statusapi
