package plan

import (
	"sync/atomic"
)

// refCount tracks the owners of a plan. A plan starts with one reference;
// when the last one is released the plan refuses further evaluation and
// cannot be retained again.
type refCount struct {
	refs atomic.Int64
}

func (r *refCount) init() { r.refs.Store(1) }

// retain adds a reference and reports false if the count already reached zero.
func (r *refCount) retain() bool {
	for {
		n := r.refs.Load()
		if n <= 0 {
			return false
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops one reference and reports whether it was the last.
func (r *refCount) release() bool {
	for {
		n := r.refs.Load()
		if n <= 0 {
			return false
		}
		if r.refs.CompareAndSwap(n, n-1) {
			return n == 1
		}
	}
}

func (r *refCount) alive() bool { return r.refs.Load() > 0 }
