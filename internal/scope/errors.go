package scope

import "errors"

// ErrScopeMissing is returned when an operation requires an active
// company scope and none is bound to the context.
var ErrScopeMissing = errors.New("scope: no active company scope")

// ErrCrossTenant is returned when a caller's active scope does not
// match the company of the resource it is trying to touch.
var ErrCrossTenant = errors.New("scope: cross-tenant access denied")
