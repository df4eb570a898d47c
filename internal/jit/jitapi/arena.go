package jitapi

// ArenaPageSize is the number of items in one arena page.
const ArenaPageSize = 256

// Arena hands out zeroed T with stable addresses. It backs the LIR nodes of
// a compilation unit: nodes point at each other freely, so nothing is freed
// before Reset.
//
// The zero value is ready to use.
type Arena[T any] struct {
	pages [][]T
	used  int
}

// New returns a pointer to a zeroed T valid until the next Reset.
func (a *Arena[T]) New() *T {
	page, i := a.used/ArenaPageSize, a.used%ArenaPageSize
	if page == len(a.pages) {
		a.pages = append(a.pages, make([]T, ArenaPageSize))
	}
	a.used++
	return &a.pages[page][i]
}

// Len returns the number of items handed out since the last Reset.
func (a *Arena[T]) Len() int { return a.used }

// At returns the i-th item handed out since the last Reset.
func (a *Arena[T]) At(i int) *T {
	if i < 0 || i >= a.used {
		panic("BUG: arena index out of range")
	}
	return &a.pages[i/ArenaPageSize][i%ArenaPageSize]
}

// Pages returns the number of pages held, used or not.
func (a *Arena[T]) Pages() int { return len(a.pages) }

// Reset zeroes the items handed out and keeps at most keep pages for reuse.
// A negative keep retains every page.
func (a *Arena[T]) Reset(keep int) {
	var zero T
	for i := 0; i < a.used; i += ArenaPageSize {
		page := a.pages[i/ArenaPageSize]
		n := a.used - i
		if n > ArenaPageSize {
			n = ArenaPageSize
		}
		for j := range page[:n] {
			page[j] = zero
		}
	}
	if keep >= 0 && keep < len(a.pages) {
		for i := keep; i < len(a.pages); i++ {
			a.pages[i] = nil
		}
		a.pages = a.pages[:keep]
	}
	a.used = 0
}
