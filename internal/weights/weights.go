// Package weights produces the spaced weight sequences used by item, trap and
// monster tables.
package weights

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// MaxWeight is the top of the weight scale. A table consumer draws a value in
// [0, MaxWeight) and picks the first entry whose threshold exceeds it.
const MaxWeight = 10000

// ErrInvalidCount is returned when a weight count is outside [1, MaxWeight).
var ErrInvalidCount = errors.New("weights: invalid count")

// RandomWeights returns k distinct weights in [1, MaxWeight], sorted
// ascending. The largest is always exactly MaxWeight and consecutive values
// are at least d apart, where d is a randomly shrunk even spacing.
func RandomWeights(rng *rand.Rand, k int) ([]int, error) {
	if k <= 0 || k >= MaxWeight {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, k)
	}

	smallest := MaxWeight / k
	d := int(float64(smallest) * (0.75 + 0.25*rng.Float64()))
	if d < 1 {
		d = 1
	}

	sample, err := SampleWithMinimumDistance(rng, MaxWeight-d, k, d)
	if err != nil {
		return nil, err
	}
	for i := range sample {
		sample[i] += d
	}
	sample[len(sample)-1] = MaxWeight
	return sample, nil
}

// SampleWithMinimumDistance draws k values from [0, n) such that any two are
// at least d apart. It samples from the compressed range
// [0, n-(k-1)(d-1)) and spreads each value by (d-1)*rank. The result is
// sorted ascending.
func SampleWithMinimumDistance(rng *rand.Rand, n, k, d int) ([]int, error) {
	if k <= 0 || d < 1 {
		return nil, fmt.Errorf("%w: k=%d d=%d", ErrInvalidCount, k, d)
	}
	population := n - (k-1)*(d-1)
	if population < k {
		return nil, fmt.Errorf("%w: cannot fit %d values %d apart below %d", ErrInvalidCount, k, d, n)
	}

	sample := sampleDistinct(rng, population, k)
	sort.Ints(sample)
	for rank := range sample {
		sample[rank] += (d - 1) * rank
	}
	return sample, nil
}

// sampleDistinct picks k distinct values from [0, n) using Floyd's algorithm.
// The draw order is fixed for a given rng state.
func sampleDistinct(rng *rand.Rand, n, k int) []int {
	chosen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for j := n - k; j < n; j++ {
		t := rng.Intn(j + 1)
		if _, dup := chosen[t]; dup {
			t = j
		}
		chosen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
