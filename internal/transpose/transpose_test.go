package transpose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

func mustParse(t *testing.T, s string) geometry.Geometry {
	t.Helper()
	g, err := geometry.Parse(s)
	require.NoError(t, err)
	return g
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		geom string
		ops  []Op
		want []int
	}{
		{name: "identity", geom: "4", want: []int{0, 1, 2, 3}},
		{name: "reverse linear", geom: "4", ops: []Op{Reverse}, want: []int{3, 2, 1, 0}},
		{name: "reverse twice", geom: "5", ops: []Op{Reverse, Reverse}, want: []int{0, 1, 2, 3, 4}},
		{name: "zigzag_x", geom: "4x2", ops: []Op{ZigzagX}, want: []int{0, 1, 2, 3, 7, 6, 5, 4}},
		{name: "zigzag_y", geom: "2x3", ops: []Op{ZigzagY}, want: []int{0, 5, 2, 3, 4, 1}},
		{name: "mirror_x", geom: "3x2", ops: []Op{MirrorX}, want: []int{2, 1, 0, 5, 4, 3}},
		{name: "mirror_y", geom: "2x3", ops: []Op{MirrorY}, want: []int{4, 5, 2, 3, 0, 1}},
		{
			name: "zigzag then reverse",
			geom: "4x3",
			ops:  []Op{ZigzagX, Reverse},
			want: []int{11, 10, 9, 8, 4, 5, 6, 7, 3, 2, 1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Build(mustParse(t, tt.geom), tt.ops...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tbl.index)
		})
	}
}

func TestBuildIsPermutation(t *testing.T) {
	g := mustParse(t, "7x5")
	tbl, err := Build(g, ZigzagY, MirrorX, Reverse, ZigzagX, MirrorY)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for o := 0; o < tbl.Len(); o++ {
		i := tbl.index[o]
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, g.Pixels())
		require.False(t, seen[i], "input %d mapped twice", i)
		seen[i] = true
	}
}

func TestBuildErrors(t *testing.T) {
	linear := mustParse(t, "10")
	for _, op := range []Op{ZigzagX, ZigzagY, MirrorX, MirrorY} {
		_, err := Build(linear, op)
		assert.ErrorIs(t, err, ErrRequires2D, string(op))
	}

	_, err := Build(linear, Op("spiral"))
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestParseOps(t *testing.T) {
	ops, err := ParseOps([]string{"zigzag_x, reverse", "mirror_y"})
	require.NoError(t, err)
	assert.Equal(t, []Op{ZigzagX, Reverse, MirrorY}, ops)

	_, err = ParseOps([]string{"reverse", "sideways"})
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestApply(t *testing.T) {
	tbl, err := Build(mustParse(t, "3"), Reverse)
	require.NoError(t, err)

	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	dst := make([]byte, len(src))
	tbl.Apply(dst, src)
	assert.Equal(t, []byte{7, 8, 9, 4, 5, 6, 1, 2, 3}, dst)
	assert.False(t, tbl.Identity())
}
