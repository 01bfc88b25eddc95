package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_Summary(t *testing.T) {
	var s Stats

	s.Add(20, 3<<20, nil)
	s.Add(15, 1<<20, nil)
	s.Add(0, 0, errors.New("HTTP 500"))

	assert.Equal(t, "2 chapters, 35 pages, 4.00 MB in 3s (1 failed)", s.Summary(2600*time.Millisecond))
}
