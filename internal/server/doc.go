// Package server exposes provider entities as read-only JSON for host players.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] registers method-qualified [http.ServeMux] patterns, so
// handlers read path wildcards with [http.Request.PathValue].
//
// # Gateway
//
// [Gateway] maps each route to a [models.Provider] call. Collections backed by
// lazy sequences accept ?limit= and only fetch the remote pages needed to fill it.
// Errors map to statuses by sentinel: not found is 404, bad arguments 400,
// authentication 401, rate limiting 429, anything else from the remote 502.
//
// # Token Capture
//
// [TokenHandler] serves a one-shot local form used by `xmx setup token --listen`.
// It accepts a browser "Copy as cURL" command or a bare token and delivers the
// access token on a channel.
package server
