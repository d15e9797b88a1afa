package backend

import "errors"

// ErrNotBuilt reports that a backend was not compiled into the current binary.
var ErrNotBuilt = errors.New("sourmash/internal/backend: native backend not built")

// maxLinkedArgs bounds the argument count of calls through the linked
// backend's trampoline.
const maxLinkedArgs = 6
