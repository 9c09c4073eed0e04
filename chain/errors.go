package chain

import "errors"

// ErrSkipped is returned by AckiNackiBlock.Verify for a block whose
// status is already Decided, so the caller doesn't re-run signature
// verification on a block the fork-resolution service already settled.
var ErrSkipped = errors.New("operation skipped")
