package partition

import (
	"slices"
	"testing"

	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizes(parts []Partition) []int {
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = p.Len()
	}
	return out
}

func TestSplit_Sizes(t *testing.T) {
	tests := []struct {
		name string
		n, w int
		want []int
	}{
		{name: "exact division", n: 1000, w: 8, want: []int{125, 125, 125, 125, 125, 125, 125, 125}},
		{name: "remainder goes last", n: 1003, w: 8, want: []int{125, 125, 125, 125, 125, 125, 125, 128}},
		{name: "single worker", n: 17, w: 1, want: []int{17}},
		{name: "no items", n: 0, w: 3, want: []int{0, 0, 0}},
		{name: "fewer items than workers", n: 2, w: 4, want: []int{0, 0, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Split(tt.n, tt.w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sizes(parts))
		})
	}
}

func TestSplit_CoversRangeExactlyOnce(t *testing.T) {
	for n := 0; n <= 300; n++ {
		for w := 1; w <= 20; w++ {
			parts, err := Split(n, w)
			require.NoError(t, err)
			require.Len(t, parts, w)
			require.NoError(t, Validate(parts, n), "n=%d w=%d", n, w)

			seen := make([]int, n)
			for _, p := range parts {
				for i := range p.Items() {
					seen[i]++
				}
			}
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("n=%d w=%d: item %d covered %d times", n, w, i, c)
				}
			}
		}
	}
}

func TestSplit_InvalidInput(t *testing.T) {
	_, err := Split(10, 0)
	assert.ErrorIs(t, err, types.ErrPartition)

	_, err = Split(-1, 2)
	assert.ErrorIs(t, err, types.ErrPartition)
}

func TestValidate_RejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name  string
		parts []Partition
		n     int
	}{
		{name: "gap", parts: []Partition{{0, 0, 2}, {1, 3, 4}}, n: 4},
		{name: "overlap", parts: []Partition{{0, 0, 3}, {1, 2, 4}}, n: 4},
		{name: "short", parts: []Partition{{0, 0, 2}, {1, 2, 3}}, n: 4},
		{name: "bad index", parts: []Partition{{0, 0, 2}, {0, 2, 4}}, n: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.parts, tt.n), types.ErrPartition)
		})
	}
}

func TestStream(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, slices.Collect(Stream(4)))
	assert.Empty(t, slices.Collect(Stream(0)))

	// Early break stops the sequence.
	var got []int
	for i := range Stream(10) {
		if i == 3 {
			break
		}
		got = append(got, i)
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestPartition_String(t *testing.T) {
	p := Partition{Index: 2, Start: 250, End: 375}
	assert.Equal(t, "#2[250,375)", p.String())
	assert.False(t, p.Empty())
	assert.True(t, Partition{Start: 4, End: 4}.Empty())
}
