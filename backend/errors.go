package backend

import "errors"

var (
	// ErrPoolDisposed is returned by Resolve after DisposeAll.
	ErrPoolDisposed = errors.New("backend: pool disposed")

	// ErrNilFactory is returned when Resolve needs to construct an adapter
	// but no factory was supplied.
	ErrNilFactory = errors.New("backend: adapter factory is nil")

	// ErrWrongParams is reported when an adapter receives parameters of a
	// different check kind.
	ErrWrongParams = errors.New("backend: parameters do not match adapter kind")

	// ErrClosed is reported by Execute after Close.
	ErrClosed = errors.New("backend: adapter closed")
)
