package providers

import (
	"context"
	"iter"
)

// BatchFunc produces batch n (0-indexed) of a sequence. last reports that no
// batch follows this one.
type BatchFunc[T any] func(ctx context.Context, n int) (items []T, last bool, err error)

// Batches turns a batch producer into a lazy, restartable sequence. Every
// range starts again from batch 0. The sequence ends after the last batch, on
// the first error (handed to onErr when not nil), when ctx is done or when
// the consumer stops.
func Batches[T any](ctx context.Context, next BatchFunc[T], onErr func(error)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := 0; ; n++ {
			if ctx.Err() != nil {
				return
			}

			items, last, err := next(ctx, n)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				return
			}

			for _, it := range items {
				if !yield(it) {
					return
				}
			}

			if last {
				return
			}
		}
	}
}

// PageOf returns the 1-indexed page of the given size out of all. Pages past
// the end, and page or size below 1, give an empty slice.
func PageOf[T any](all []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}

	pages := len(all) / size
	if len(all)%size != 0 {
		pages++
	}
	if page > pages {
		return []T{}
	}

	start := (page - 1) * size
	end := start + min(size, len(all)-start)

	return all[start:end:end]
}
