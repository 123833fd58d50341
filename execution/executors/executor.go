package executors

import (
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

// Done is true when an executor has no more rows.
type Done bool

// Executor executes a plan
//
// Init initializes this executor.
// This function must be called before Next() is called!
//
// Next produces the next tuple from this executor
type Executor interface {
	Init() error
	Next() (*tuple.Tuple, Done, error)
}
