package benchmark

import "errors"

// ErrInvalidRules reports a progression rule set that cannot be applied.
var ErrInvalidRules = errors.New("invalid progression rules")
