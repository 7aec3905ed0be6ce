package pool

// Pool is a typed wrapper over sync.Pool. Get returns the concrete type
// without an interface{} assertion at the call site, and Put zeroes the
// object first when it implements Resettable.
//
// The fetcher leans on this for response buffers:
//
//	buffers, err := pool.NewLitePool(func() *bytes.Buffer {
//	  return &bytes.Buffer{}
//	})
//
//	buf := buffers.Get()
//	defer buffers.Put(buf)
//
// Kept deliberately small; hot paths call Get/Put per request.

import (
	"fmt"
	"sync"
)

type Resettable interface {
	Reset()
}

type Pool[T any] struct {
	pool sync.Pool
	new  func() T
}

func NewLitePool[T any](newFn func() T) (*Pool[T], error) {
	if newFn == nil {
		return nil, fmt.Errorf("litepool: constructor must not be nil")
	}
	// Catch a nil-returning constructor up front rather than mid-request.
	test := newFn()
	if any(test) == nil {
		return nil, fmt.Errorf("litepool: constructor returned nil")
	}

	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				v := newFn()
				if any(v) == nil {
					panic("litepool: constructor returned nil during runtime")
				}
				return v
			},
		},
		new: newFn,
	}, nil
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // safe due to validated New
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}
