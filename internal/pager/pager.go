// Package pager turns a page-at-a-time remote endpoint into a lazy sequence.
//
// The first page is fetched when the [Sequence] is built so its total is known
// up front. Later pages are requested only while the caller keeps iterating,
// and iteration ends on the page the remote reports as the last one.
package pager

import (
	"context"
	"iter"
)

// Page is one page of a paged remote response.
type Page[T any] struct {
	Total    int // total items across all pages
	Page     int // 1-based page number
	PageSize int
	Pages    int // total page count
	Items    []T
}

// Fetcher requests one page. A pageSize of 0 asks the remote for its default.
type Fetcher[T any] func(ctx context.Context, page, pageSize int) (*Page[T], error)

// Map converts every item of p, keeping the paging fields.
func Map[P, T any](p *Page[P], convert func(P) T) *Page[T] {
	if p == nil {
		return nil
	}
	items := make([]T, len(p.Items))
	for i, item := range p.Items {
		items[i] = convert(item)
	}
	return &Page[T]{Total: p.Total, Page: p.Page, PageSize: p.PageSize, Pages: p.Pages, Items: items}
}

// Sequence is a lazily fetched, remote-paginated collection.
type Sequence[T any] struct {
	first *Page[T]
	fetch Fetcher[T]
}

// New fetches page 1 and returns the sequence it starts. A nil first page yields an empty sequence.
func New[P, T any](ctx context.Context, fetch Fetcher[P], convert func(P) T) (*Sequence[T], error) {
	converted := func(ctx context.Context, page, pageSize int) (*Page[T], error) {
		p, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		return Map(p, convert), nil
	}

	first, err := converted(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	return &Sequence[T]{first: first, fetch: converted}, nil
}

// FromSlice wraps already loaded items as a single-page sequence.
func FromSlice[T any](items []T) *Sequence[T] {
	return &Sequence[T]{first: &Page[T]{Total: len(items), Page: 1, PageSize: len(items), Pages: 1, Items: items}}
}

// Total is the item count the remote reported on the first page.
func (s *Sequence[T]) Total() int {
	if s == nil || s.first == nil {
		return 0
	}
	return s.first.Total
}

// All iterates every item, fetching page n+1 only after page n has been consumed.
//
// A fetch error is yielded once with the zero value and ends the iteration.
// Each call starts over from the cached first page.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if s == nil || s.first == nil {
			return
		}

		current := s.first
		page := max(current.Page, 1)
		pageSize, pages := current.PageSize, current.Pages

		for len(current.Items) > 0 {
			for _, item := range current.Items {
				if !yield(item, nil) {
					return
				}
			}

			if page >= pages || s.fetch == nil {
				return
			}

			next, err := s.fetch(ctx, page+1, pageSize)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if next == nil {
				return
			}

			current = next
			page++
			pages = next.Pages
			if next.PageSize > 0 {
				pageSize = next.PageSize
			}
		}
	}
}

// Collect drains up to limit items. A limit of 0 or less reads everything.
func (s *Sequence[T]) Collect(ctx context.Context, limit int) ([]T, error) {
	var items []T
	for item, err := range s.All(ctx) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}
