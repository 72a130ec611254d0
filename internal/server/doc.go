// Package server exposes a running overlay over a localhost HTTP API.
//
// # Routes
//
//	GET  /health   200 while the controller is mounted, 503 otherwise
//	GET  /status   the latest [overlay.Status] as JSON
//	POST /resume   retry playback after the backend blocked autoplay
//
// Errors use the queue service's shape, {"detail": "..."}.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] method patterns with a [Middleware] stack. The first
// middleware added is the outermost. Handlers implementing [Handler] carry their own
// patterns so a single type can serve several routes.
package server
