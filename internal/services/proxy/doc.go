// Package proxy runs the caddy reverse proxy. Modules register a Route
// while they start; the Caddyfile is rendered from the routes right
// before caddy is spawned, so the proxy must start after every module.
package proxy
