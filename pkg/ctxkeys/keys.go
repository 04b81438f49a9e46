// Package ctxkeys defines typed context keys to avoid SA1029 lint warnings
// and prevent key collisions across packages.
package ctxkeys

// Key is a typed context key to prevent collisions.
type Key string

// KeyRequestID carries the X-Request-ID of the current request.
const KeyRequestID Key = "request_id"
