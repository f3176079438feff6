package cloud

import (
	"math/rand/v2"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat/distuv"
)

// GeneratorOptions holds the shape parameters of every data mode
type GeneratorOptions struct {
	Points        int     // samples for Gaussian and Uniform, total budget for Clusters
	UniformSide   float64 // side of the square sampled by Uniform
	GridSteps     int     // lattice points per axis for Grid
	GridSpan      float64 // side of the square covered by Grid
	ClusterMin    int     // smallest cluster count (inclusive)
	ClusterMax    int     // largest cluster count (exclusive)
	ClusterSpread float64 // side of the square cluster centers are drawn from
	ClusterSigma  float64 // standard deviation around each cluster center
}

// DefaultGeneratorOptions returns the stock shape parameters
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Points:        100,
		UniformSide:   3,
		GridSteps:     10,
		GridSpan:      5,
		ClusterMin:    4,
		ClusterMax:    10,
		ClusterSpread: 4,
		ClusterSigma:  0.25,
	}
}

// Generator draws reference clouds. It is not safe for concurrent use;
// a Session serializes access to its generator.
type Generator struct {
	opts GeneratorOptions
	src  rand.Source
	rng  *rand.Rand
}

// NewGenerator creates a generator. A zero seed draws from the clock.
func NewGenerator(opts GeneratorOptions, seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{
		opts: opts,
		src:  src,
		rng:  rand.New(src),
	}
}

// Generate draws a new zero-centered cloud for the given mode
func (g *Generator) Generate(mode DataMode) (PointCloud, error) {
	var c PointCloud
	switch mode {
	case Gaussian:
		c = g.gaussian()
	case Uniform:
		c = g.uniform()
	case Grid:
		c = g.grid()
	case Clusters:
		c = g.clusters()
	default:
		return nil, &ConfigurationError{Option: "dataMode", Value: mode.String(), Reason: "unknown data mode"}
	}

	if len(c) == 0 {
		return nil, ErrEmptyCloud
	}
	return Center(c), nil
}

func (g *Generator) gaussian() PointCloud {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: g.src}
	c := make(PointCloud, g.opts.Points)
	for i := range c {
		c[i] = orb.Point{n.Rand(), n.Rand()}
	}
	return c
}

func (g *Generator) uniform() PointCloud {
	half := g.opts.UniformSide / 2
	u := distuv.Uniform{Min: -half, Max: half, Src: g.src}
	c := make(PointCloud, g.opts.Points)
	for i := range c {
		c[i] = orb.Point{u.Rand(), u.Rand()}
	}
	return c
}

// grid lays out steps x steps points starting at -span/2 with spacing
// span/steps; the far edge is excluded. Points are ordered x-major.
func (g *Generator) grid() PointCloud {
	steps := g.opts.GridSteps
	if steps <= 0 {
		return nil
	}
	spacing := g.opts.GridSpan / float64(steps)
	start := -g.opts.GridSpan / 2

	c := make(PointCloud, 0, steps*steps)
	for i := 0; i < steps; i++ {
		x := start + float64(i)*spacing
		for j := 0; j < steps; j++ {
			c = append(c, orb.Point{x, start + float64(j)*spacing})
		}
	}
	return c
}

// clusters picks K in [ClusterMin, ClusterMax) and draws Points/K samples
// around each of K random centers. The remainder of Points/K is dropped.
func (g *Generator) clusters() PointCloud {
	k := g.ClusterCount()
	per := g.opts.Points / k

	half := g.opts.ClusterSpread / 2
	centers := distuv.Uniform{Min: -half, Max: half, Src: g.src}

	c := make(PointCloud, 0, k*per)
	for i := 0; i < k; i++ {
		cx, cy := centers.Rand(), centers.Rand()
		nx := distuv.Normal{Mu: cx, Sigma: g.opts.ClusterSigma, Src: g.src}
		ny := distuv.Normal{Mu: cy, Sigma: g.opts.ClusterSigma, Src: g.src}
		for j := 0; j < per; j++ {
			c = append(c, orb.Point{nx.Rand(), ny.Rand()})
		}
	}
	return c
}

// ClusterCount draws a cluster count uniformly from [ClusterMin, ClusterMax)
func (g *Generator) ClusterCount() int {
	lo, hi := g.opts.ClusterMin, g.opts.ClusterMax
	if lo < 1 {
		lo = 1
	}
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo)
}

// Center returns a copy of the cloud shifted so its centroid is the origin
func Center(c PointCloud) PointCloud {
	if len(c) == 0 {
		return c.Clone()
	}
	centroid, _ := planar.CentroidArea(orb.MultiPoint(c))
	return TransformPoints(c, Translation(-centroid[0], -centroid[1]))
}
