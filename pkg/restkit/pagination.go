package restkit

import (
	"context"
	"iter"
)

// PageFunc fetches one page for the given parameters.
type PageFunc[T any] func(ctx context.Context, params Params) (T, error)

// Continuation decides the parameters of the next request from the page just
// fetched and the parameters that fetched it. Returning no parameters ends
// the sequence.
type Continuation[T any] func(page T, prev Params) (Params, error)

// Paginator turns a page fetching call into a lazy sequence of pages.
// It holds no iteration state; every call to Pages starts over.
type Paginator[T any] struct {
	fetch PageFunc[T]
	next  Continuation[T]
}

// Paginate creates a paginator for fetch driven by next.
func Paginate[T any](fetch PageFunc[T], next Continuation[T]) *Paginator[T] {
	return &Paginator[T]{fetch: fetch, next: next}
}

// Pages returns the sequence of pages starting from params. Each page is
// yielded as soon as it is fetched. An error is yielded once and ends the
// sequence. A continuation that never stops gives an unbounded sequence;
// stop ranging to end it.
func (p *Paginator[T]) Pages(ctx context.Context, params Params) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		current := params.Clone()

		for {
			page, err := p.fetch(ctx, current)
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			if !yield(page, nil) {
				return
			}

			next, err := p.next(page, current.Clone())
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			if len(next) == 0 {
				return
			}

			current = current.Merge(next)
		}
	}
}

// All collects up to limit pages. A limit of zero or less collects every
// page. Pages fetched before an error are returned with it.
func (p *Paginator[T]) All(ctx context.Context, params Params, limit int) ([]T, error) {
	var pages []T

	for page, err := range p.Pages(ctx, params) {
		if err != nil {
			return pages, err
		}

		pages = append(pages, page)
		if limit > 0 && len(pages) >= limit {
			break
		}
	}

	return pages, nil
}

// Iterator returns a pull style iterator over the pages.
func (p *Paginator[T]) Iterator(ctx context.Context, params Params) *PageIterator[T] {
	return &PageIterator[T]{
		paginator: p,
		ctx:       ctx,
		params:    params.Clone(),
	}
}

// PageIterator walks pages one Next call at a time.
type PageIterator[T any] struct {
	paginator *Paginator[T]
	ctx       context.Context //nolint:containedctx // iterator is bound to the caller's context
	params    Params
	done      bool
}

// HasNext reports whether another page may be fetched.
func (it *PageIterator[T]) HasNext() bool {
	return !it.done
}

// Next fetches the next page. After an error or the last page HasNext
// returns false.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if it.done {
		return zero, ErrNoMorePages
	}

	page, err := it.paginator.fetch(it.ctx, it.params)
	if err != nil {
		it.done = true

		return zero, err
	}

	next, err := it.paginator.next(page, it.params.Clone())
	if err != nil {
		it.done = true

		return page, err
	}

	if len(next) == 0 {
		it.done = true
	} else {
		it.params = it.params.Merge(next)
	}

	return page, nil
}
