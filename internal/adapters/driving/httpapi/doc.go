// Package httpapi is the HTTP driving adapter: it exposes the vault,
// search, chat, and graph services as a JSON API and serves Prometheus
// metrics. It holds no business logic; every handler validates input,
// calls a core service, and renders the result.
package httpapi
