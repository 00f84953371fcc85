package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitCentered(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		want                   Placement
	}{
		{"正方形放进宽画布", 100, 100, 200, 100, Placement{DrawW: 100, DrawH: 100, X: 50, Y: 0}},
		{"正方形放进高画布", 100, 100, 100, 300, Placement{DrawW: 100, DrawH: 100, X: 0, Y: 100}},
		{"同比例", 300, 400, 600, 800, Placement{DrawW: 600, DrawH: 800, X: 0, Y: 0}},
		{"证件照竖图放进横画布", 3, 4, 400, 200, Placement{DrawW: 150, DrawH: 200, X: 125, Y: 0}},
		{"横图放进方画布", 4, 2, 10, 10, Placement{DrawW: 10, DrawH: 5, X: 0, Y: 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FitCentered(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.DrawW, got.DrawW, 1e-9)
			assert.InDelta(t, tt.want.DrawH, got.DrawH, 1e-9)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestFitCentered_ContainedAndAspectPreserved(t *testing.T) {
	t.Parallel()

	sizes := []int{1, 2, 3, 7, 64, 99, 100, 101, 600, 1080, 1920}
	for _, sw := range sizes {
		for _, sh := range sizes {
			for _, dw := range sizes {
				for _, dh := range sizes {
					p, err := FitCentered(sw, sh, dw, dh)
					require.NoError(t, err)

					const eps = 1e-6
					assert.GreaterOrEqual(t, p.X, -eps)
					assert.GreaterOrEqual(t, p.Y, -eps)
					assert.LessOrEqual(t, p.X+p.DrawW, float64(dw)+eps)
					assert.LessOrEqual(t, p.Y+p.DrawH, float64(dh)+eps)
					assert.InDelta(t, float64(sw)/float64(sh), p.DrawW/p.DrawH, 1e-6*float64(sw)/float64(sh))
				}
			}
		}
	}
}

func TestFitCentered_InvalidDimensions(t *testing.T) {
	t.Parallel()

	cases := [][4]int{
		{0, 10, 10, 10},
		{10, 0, 10, 10},
		{10, 10, 0, 10},
		{10, 10, 10, 0},
		{-1, 10, 10, 10},
	}
	for _, c := range cases {
		_, err := FitCentered(c[0], c[1], c[2], c[3])
		assert.ErrorIs(t, err, ErrInvalidDimensions, "%v", c)
	}
}
