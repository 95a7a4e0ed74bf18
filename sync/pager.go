// ABOUTME: Restartable page iterator over provider continuation tokens
// ABOUTME: Remembers the page that failed so a later pass can resume there
package sync

import (
	"context"
	"iter"
)

// PageFunc fetches the page at token and returns its items and the next token.
type PageFunc[T any] func(ctx context.Context, token string) ([]T, string, error)

// Pager walks pages lazily until the provider returns an empty continuation token.
type Pager[T any] struct {
	fetch PageFunc[T]
	token string
	done  bool
}

// NewPager starts at start; an empty start is the first page.
func NewPager[T any](fetch PageFunc[T], start string) *Pager[T] {
	return &Pager[T]{fetch: fetch, token: start}
}

// Pages yields each page in order. A fetch error is yielded once and ends the sequence.
// The cursor only advances after the consumer accepted a page.
func (p *Pager[T]) Pages(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for !p.done {
			items, next, err := p.fetch(ctx, p.token)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items, nil) {
				return
			}
			p.token = next
			if next == "" {
				p.done = true
			}
		}
	}
}

// Resume is the token of the page that has not been consumed yet.
func (p *Pager[T]) Resume() string {
	return p.token
}

func (p *Pager[T]) Done() bool {
	return p.done
}
