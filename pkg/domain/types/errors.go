package types

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is returned by repository lookups when no row exists. Both
// persistence backends wrap this sentinel so callers can use errors.Is
// without knowing the backend.
var ErrNotFound = goerr.New("record not found")
