package infra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexCompare(t *testing.T) {
	var c1 complex128 = complex(1.0, 2.0) // 1.0+2.0i
	var c2 complex128 = complex(1.1, 2.0) // 1.1+2.0i
	_c1 := math.Hypot(real(c1), imag(c1))
	_c2 := math.Hypot(real(c2), imag(c2))
	assert.Greater(t, _c2, _c1)
}

func TestOrderedKeyCompare(t *testing.T) {
	assert.Equal(t, int64(0), OrderedKeyCompare(1, 1))
	assert.Equal(t, int64(-1), OrderedKeyCompare(1, 2))
	assert.Equal(t, int64(1), OrderedKeyCompare("b", "a"))

	nan := math.NaN()
	assert.Equal(t, int64(0), OrderedKeyCompare(nan, nan))
	assert.Equal(t, int64(-1), OrderedKeyCompare(nan, math.Inf(-1)))

	var desc OrderedKeyComparator[int] = OrderedKeyCompare[int]
	desc = desc.Reverse()
	assert.Equal(t, int64(1), desc(1, 2))
	assert.Equal(t, int64(-1), desc(2, 1))
	assert.Equal(t, int64(0), desc(2, 2))
}
