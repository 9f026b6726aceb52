package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/lumberyard/pkg/store"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	store  *store.Store
	errors []EvalError
	err    error
}

// waitWithTimeout returns the result on ch unless EvalTimeout passes first
// or a newer evaluation has started since gen was issued. A timed-out
// goroutine keeps running; its result is dropped when it arrives.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*store.Store, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.store, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
