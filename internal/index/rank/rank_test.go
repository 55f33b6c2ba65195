package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopK_OrdersByScoreThenPosition(t *testing.T) {
	hits := TopK([]float64{0.5, 0.9, 0.5, 0.1}, 3, nil, false)

	assert.Equal(t, []Hit{{1, 0.9}, {0, 0.5}, {2, 0.5}}, hits)
}

func TestTopK_KeepRunsBeforeTruncation(t *testing.T) {
	even := func(pos int) bool { return pos%2 == 0 }
	hits := TopK([]float64{0.1, 0.9, 0.2, 0.8, 0.3}, 2, even, false)

	assert.Equal(t, []Hit{{4, 0.3}, {2, 0.2}}, hits)
}

func TestTopK_PositiveDropsZero(t *testing.T) {
	hits := TopK([]float64{0, 0.4, 0, -0.1}, 10, nil, true)
	assert.Equal(t, []Hit{{1, 0.4}}, hits)
}

func TestTopK_Empty(t *testing.T) {
	assert.Nil(t, TopK(nil, 3, nil, false))
	assert.Nil(t, TopK([]float64{1}, 0, nil, false))
}
