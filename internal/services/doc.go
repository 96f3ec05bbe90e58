// Package services defines the [API] contract for the Xiami music provider and implements it over HTTP.
//
// # API Interface
//
// The entity adapters in models depend only on [API], so any client (or an in-memory fake) can back them.
//
// # Xiami Implementation
//
// [XiamiService] talks JSON to an API gateway in front of Xiami. Each request:
//   - waits on a [rate.Limiter] configured from provider.rate_limit
//   - carries the configured access token through an [oauth2] static token source
//   - is tagged with an X-Request-ID for tracing in debug logs
//
// Xiami reports numbers inconsistently (sometimes as strings), so payloads use the tolerant [Int] and [ID] types.
//
// # Paging
//
// List endpoints answer with total, a pagingVO block (page, pageSize, pages, count) and the items under a named field.
// They are returned as [pager.Page] values for [pager.Sequence] to walk.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrSongNotFound] and siblings : 404 or a null body for that entity, all wrapping [shared.ErrNotFound]
//   - [shared.ErrNotAuthenticated] : 401/403, token missing or rejected
//   - [shared.ErrRateLimited] : 429
//   - [shared.ErrServiceUnavailable] : 5xx from the gateway
//   - [shared.ErrAPIRequest] : transport failure or any other non-2xx
package services
