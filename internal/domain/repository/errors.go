package repository

import "errors"

// ErrUpstream marks failures of the prediction API (transport, non-2xx, bad JSON).
var ErrUpstream = errors.New("prediction api unavailable")
