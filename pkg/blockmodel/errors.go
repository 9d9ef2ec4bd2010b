package blockmodel

import "fmt"

// ResolveError reports a failure to turn a block into a usable model,
// carrying the block name and the stage that failed.
type ResolveError struct {
	Block string
	Stage string
	Err   error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s for block '%s': %v", e.Stage, e.Block, e.Err)
	}
	return fmt.Sprintf("resolve %s for block '%s'", e.Stage, e.Block)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
