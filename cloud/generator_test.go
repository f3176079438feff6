package cloud

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCentered(t *testing.T, c PointCloud) {
	t.Helper()
	centroid, _ := planar.CentroidArea(orb.MultiPoint(c))
	assert.InDelta(t, 0, centroid[0], 1e-9)
	assert.InDelta(t, 0, centroid[1], 1e-9)
}

func TestGenerator_AllModesCentered(t *testing.T) {
	g := NewGenerator(DefaultGeneratorOptions(), 42)

	for _, mode := range DataModes() {
		t.Run(mode.String(), func(t *testing.T) {
			c, err := g.Generate(mode)
			require.NoError(t, err)
			require.NotEmpty(t, c)
			assertCentered(t, c)
		})
	}
}

func TestGenerator_GaussianAndUniformCount(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.Points = 37
	g := NewGenerator(opts, 1)

	for _, mode := range []DataMode{Gaussian, Uniform} {
		c, err := g.Generate(mode)
		require.NoError(t, err)
		assert.Len(t, c, 37, mode.String())
	}
}

func TestGenerator_UniformWithinSquare(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.Points = 500
	g := NewGenerator(opts, 9)

	c, err := g.Generate(Uniform)
	require.NoError(t, err)

	// centering shifts by less than the half side, so the spread is bounded by the side
	b := c.Bound()
	assert.LessOrEqual(t, b.Max[0]-b.Min[0], opts.UniformSide)
	assert.LessOrEqual(t, b.Max[1]-b.Min[1], opts.UniformSide)
}

func TestGenerator_Grid(t *testing.T) {
	g := NewGenerator(DefaultGeneratorOptions(), 1)

	c, err := g.Generate(Grid)
	require.NoError(t, err)
	require.Len(t, c, 100)

	// lattice spacing is 0.5 on both axes, x-major
	assert.InDelta(t, 0.5, c[1][1]-c[0][1], 1e-12)
	assert.InDelta(t, 0.0, c[1][0]-c[0][0], 1e-12)
	assert.InDelta(t, 0.5, c[10][0]-c[0][0], 1e-12)

	// -2.5..2.0 centered by +0.25 gives -2.25..2.25
	b := c.Bound()
	assert.InDelta(t, -2.25, b.Min[0], 1e-12)
	assert.InDelta(t, 2.25, b.Max[0], 1e-12)
}

func TestGenerator_GridIsDeterministic(t *testing.T) {
	a, err := NewGenerator(DefaultGeneratorOptions(), 1).Generate(Grid)
	require.NoError(t, err)
	b, err := NewGenerator(DefaultGeneratorOptions(), 2).Generate(Grid)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestGenerator_ClustersCount(t *testing.T) {
	opts := DefaultGeneratorOptions()

	for seed := uint64(1); seed <= 40; seed++ {
		k := NewGenerator(opts, seed).ClusterCount()
		assert.GreaterOrEqual(t, k, 4)
		assert.Less(t, k, 10)

		c, err := NewGenerator(opts, seed).Generate(Clusters)
		require.NoError(t, err)
		assert.Len(t, c, k*(opts.Points/k), "seed %d", seed)
		assert.LessOrEqual(t, len(c), opts.Points)
	}
}

func TestGenerator_ClustersSeesEveryCount(t *testing.T) {
	g := NewGenerator(DefaultGeneratorOptions(), 123)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		seen[g.ClusterCount()] = true
	}
	for k := 4; k < 10; k++ {
		assert.True(t, seen[k], "cluster count %d never drawn", k)
	}
	assert.False(t, seen[10])
}

func TestGenerator_SameSeedSameCloud(t *testing.T) {
	for _, mode := range DataModes() {
		a, err := NewGenerator(DefaultGeneratorOptions(), 99).Generate(mode)
		require.NoError(t, err)
		b, err := NewGenerator(DefaultGeneratorOptions(), 99).Generate(mode)
		require.NoError(t, err)
		assert.True(t, a.Equal(b), mode.String())
	}
}

func TestGenerator_GaussianSpread(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.Points = 5000
	c, err := NewGenerator(opts, 5).Generate(Gaussian)
	require.NoError(t, err)

	var sum float64
	for _, p := range c {
		sum += p[0]*p[0] + p[1]*p[1]
	}
	// E[x^2 + y^2] = 2 for a standard normal
	assert.InDelta(t, 2.0, sum/float64(len(c)), 0.2)
}

func TestGenerator_UnknownMode(t *testing.T) {
	g := NewGenerator(DefaultGeneratorOptions(), 1)

	_, err := g.Generate(DataMode(42))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "dataMode", cfgErr.Option)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGenerator_EmptyOutput(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.Points = 0
	g := NewGenerator(opts, 1)

	for _, mode := range []DataMode{Gaussian, Uniform, Clusters} {
		_, err := g.Generate(mode)
		assert.ErrorIs(t, err, ErrEmptyCloud, mode.String())
	}
}

func TestCenter(t *testing.T) {
	c := PointCloud{{1, 1}, {3, 5}}
	got := Center(c)
	assertCloudNear(t, PointCloud{{-1, -2}, {1, 2}}, got, 1e-12)
	assert.Equal(t, orb.Point{1, 1}, c[0], "input untouched")

	assert.Empty(t, Center(nil))
	assert.False(t, math.IsNaN(Center(PointCloud{{2, 2}})[0][0]))
}
