package ui

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/mangawatch/internal/util"
)

// Stats accumulates download totals across chapters.
type Stats struct {
	Chapters atomic.Int64
	Pages    atomic.Int64
	Bytes    atomic.Int64
	Failed   atomic.Int64
}

func (s *Stats) Add(pages int, bytes int64, err error) {
	if err != nil {
		s.Failed.Add(1)
		return
	}

	s.Chapters.Add(1)
	s.Pages.Add(int64(pages))
	s.Bytes.Add(bytes)
}

func (s *Stats) Summary(elapsed time.Duration) string {
	out := fmt.Sprintf("%d chapters, %d pages, %s in %s",
		s.Chapters.Load(), s.Pages.Load(), util.Human(s.Bytes.Load()), elapsed.Round(time.Second))

	if n := s.Failed.Load(); n > 0 {
		out += fmt.Sprintf(" (%d failed)", n)
	}

	return out
}
