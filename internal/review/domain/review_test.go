package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSummary(t *testing.T) {
	s := NewSummary(map[int]int{5: 2, 4: 1})
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 4.67, s.Average, 1e-9)
	assert.Equal(t, 0, s.Histogram[1])

	empty := NewSummary(nil)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Average)
	assert.Len(t, empty.Histogram, 5)
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
}
