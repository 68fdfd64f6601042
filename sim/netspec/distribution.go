package netspec

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/qnetsim/qnetsim/sim"
)

// ExponentialSampler produces exponentially-distributed values with the given rate.
type ExponentialSampler struct {
	rate float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() / s.rate
}

// DeterministicSampler always returns the same fixed value.
type DeterministicSampler struct {
	value float64
}

func (s *DeterministicSampler) Sample(_ *rand.Rand) float64 {
	return s.value
}

func (s *DeterministicSampler) PointMass() (float64, bool) {
	return s.value, true
}

// UniformSampler produces values uniformly in [low, high).
type UniformSampler struct {
	low, high float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.low + rng.Float64()*(s.high-s.low)
}

func (s *UniformSampler) PointMass() (float64, bool) {
	return s.low, s.low == s.high
}

// TriangularSampler produces values on [low, high] peaking at mode,
// by inverse CDF.
type TriangularSampler struct {
	low, mode, high float64
}

func (s *TriangularSampler) Sample(rng *rand.Rand) float64 {
	if s.low == s.high {
		return s.low
	}
	u := rng.Float64()
	split := (s.mode - s.low) / (s.high - s.low)
	if u < split {
		return s.low + math.Sqrt(u*(s.high-s.low)*(s.mode-s.low))
	}
	return s.high - math.Sqrt((1-u)*(s.high-s.low)*(s.high-s.mode))
}

func (s *TriangularSampler) PointMass() (float64, bool) {
	return s.low, s.low == s.high
}

// GammaSampler produces Gamma(shape, scale) values.
type GammaSampler struct {
	shape float64
	scale float64
}

func (s *GammaSampler) Sample(rng *rand.Rand) float64 {
	return gammaRand(rng, s.shape, s.scale)
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape >= 1: direct method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// LogNormalSampler produces exp(mu + sigma*Z) values.
type LogNormalSampler struct {
	mu, sigma float64
}

func (s *LogNormalSampler) Sample(rng *rand.Rand) float64 {
	val := math.Exp(s.mu + s.sigma*rng.NormFloat64())
	// Guard against +Inf from extreme sigma values
	if math.IsInf(val, 0) {
		return math.MaxFloat64
	}
	return val
}

func (s *LogNormalSampler) PointMass() (float64, bool) {
	return math.Exp(s.mu), s.sigma == 0
}

// WeibullSampler produces Weibull(scale, shape) values by inverse CDF.
type WeibullSampler struct {
	scale, shape float64
}

func (s *WeibullSampler) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	return s.scale * math.Pow(-math.Log(1-u), 1/s.shape)
}

// NormalSampler produces Normal(mean, std_dev) values; negative draws clamp
// to zero.
type NormalSampler struct {
	mean, stdDev float64
}

func (s *NormalSampler) Sample(rng *rand.Rand) float64 {
	return math.Max(0, s.mean+s.stdDev*rng.NormFloat64())
}

func (s *NormalSampler) PointMass() (float64, bool) {
	return math.Max(0, s.mean), s.stdDev == 0
}

// EmpiricalSampler picks one of the observed values uniformly at random.
type EmpiricalSampler struct {
	values []float64
}

func (s *EmpiricalSampler) Sample(rng *rand.Rand) float64 {
	if len(s.values) == 1 {
		return s.values[0]
	}
	return s.values[rng.Intn(len(s.values))]
}

// PointMass reports a fixed value when every observation is the same.
func (s *EmpiricalSampler) PointMass() (float64, bool) {
	for _, v := range s.values[1:] {
		if v != s.values[0] {
			return 0, false
		}
	}
	return s.values[0], true
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// requirePositive checks that every named parameter is > 0.
func requirePositive(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if params[k] <= 0 {
			return fmt.Errorf("parameter %q must be positive, got %f", k, params[k])
		}
	}
	return nil
}

// NewSampler creates a sim.Sampler from a DistSpec.
func NewSampler(spec DistSpec) (sim.Sampler, error) {
	p := spec.Params
	switch spec.Type {
	case "exponential":
		if err := requireParam(p, "rate"); err != nil {
			return nil, err
		}
		if err := requirePositive(p, "rate"); err != nil {
			return nil, err
		}
		return &ExponentialSampler{rate: p["rate"]}, nil

	case "deterministic":
		if err := requireParam(p, "value"); err != nil {
			return nil, err
		}
		if p["value"] < 0 {
			return nil, fmt.Errorf("parameter \"value\" must be non-negative, got %f", p["value"])
		}
		return &DeterministicSampler{value: p["value"]}, nil

	case "uniform":
		if err := requireParam(p, "low", "high"); err != nil {
			return nil, err
		}
		if p["low"] < 0 || p["high"] < p["low"] {
			return nil, fmt.Errorf("uniform needs 0 <= low <= high, got low=%f high=%f", p["low"], p["high"])
		}
		return &UniformSampler{low: p["low"], high: p["high"]}, nil

	case "triangular":
		if err := requireParam(p, "low", "mode", "high"); err != nil {
			return nil, err
		}
		if p["low"] < 0 || p["mode"] < p["low"] || p["high"] < p["mode"] {
			return nil, fmt.Errorf("triangular needs 0 <= low <= mode <= high, got low=%f mode=%f high=%f",
				p["low"], p["mode"], p["high"])
		}
		return &TriangularSampler{low: p["low"], mode: p["mode"], high: p["high"]}, nil

	case "gamma":
		if err := requireParam(p, "shape", "scale"); err != nil {
			return nil, err
		}
		if err := requirePositive(p, "shape", "scale"); err != nil {
			return nil, err
		}
		return &GammaSampler{shape: p["shape"], scale: p["scale"]}, nil

	case "lognormal":
		if err := requireParam(p, "mu", "sigma"); err != nil {
			return nil, err
		}
		if p["sigma"] < 0 {
			return nil, fmt.Errorf("parameter \"sigma\" must be non-negative, got %f", p["sigma"])
		}
		return &LogNormalSampler{mu: p["mu"], sigma: p["sigma"]}, nil

	case "weibull":
		if err := requireParam(p, "scale", "shape"); err != nil {
			return nil, err
		}
		if err := requirePositive(p, "scale", "shape"); err != nil {
			return nil, err
		}
		return &WeibullSampler{scale: p["scale"], shape: p["shape"]}, nil

	case "normal":
		if err := requireParam(p, "mean", "std_dev"); err != nil {
			return nil, err
		}
		if p["std_dev"] < 0 {
			return nil, fmt.Errorf("parameter \"std_dev\" must be non-negative, got %f", p["std_dev"])
		}
		return &NormalSampler{mean: p["mean"], stdDev: p["std_dev"]}, nil

	case "empirical":
		if len(spec.Values) == 0 {
			return nil, fmt.Errorf("empirical distribution requires at least one value")
		}
		for i, v := range spec.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("empirical value %d must be a finite non-negative number, got %f", i, v)
			}
		}
		return &EmpiricalSampler{values: append([]float64(nil), spec.Values...)}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
