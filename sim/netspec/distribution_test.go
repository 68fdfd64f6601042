package netspec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/qnetsim/qnetsim/sim"
)

func sampleMean(t *testing.T, spec DistSpec, n int) (float64, []float64) {
	t.Helper()
	s, err := NewSampler(spec)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = s.Sample(rng)
	}
	return stat.Mean(xs, nil), xs
}

func TestNewSampler_Means(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
		mean float64
	}{
		{"exponential", DistSpec{Type: "exponential", Params: map[string]float64{"rate": 4}}, 0.25},
		{"deterministic", DistSpec{Type: "deterministic", Params: map[string]float64{"value": 0.3}}, 0.3},
		{"uniform", DistSpec{Type: "uniform", Params: map[string]float64{"low": 1, "high": 3}}, 2},
		{"triangular", DistSpec{Type: "triangular", Params: map[string]float64{"low": 0, "mode": 1, "high": 2}}, 1},
		{"gamma", DistSpec{Type: "gamma", Params: map[string]float64{"shape": 2, "scale": 0.5}}, 1},
		{"gamma small shape", DistSpec{Type: "gamma", Params: map[string]float64{"shape": 0.5, "scale": 2}}, 1},
		{"lognormal", DistSpec{Type: "lognormal", Params: map[string]float64{"mu": 0, "sigma": 0.5}}, math.Exp(0.125)},
		{"weibull shape 1", DistSpec{Type: "weibull", Params: map[string]float64{"scale": 2, "shape": 1}}, 2},
		{"normal far from zero", DistSpec{Type: "normal", Params: map[string]float64{"mean": 10, "std_dev": 1}}, 10},
		{"empirical", DistSpec{Type: "empirical", Values: []float64{1, 2, 3}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, xs := sampleMean(t, tt.spec, 20000)
			assert.InEpsilon(t, tt.mean, mean, 0.05)
			for _, x := range xs {
				assert.GreaterOrEqual(t, x, 0.0)
			}
		})
	}
}

func TestNewSampler_PointMass(t *testing.T) {
	tests := []struct {
		name        string
		spec        DistSpec
		value       float64
		fixed       bool
		noPointMass bool
	}{
		{"deterministic", DistSpec{Type: "deterministic", Params: map[string]float64{"value": 0.3}}, 0.3, true, false},
		{"zero-width uniform", DistSpec{Type: "uniform", Params: map[string]float64{"low": 2, "high": 2}}, 2, true, false},
		{"uniform", DistSpec{Type: "uniform", Params: map[string]float64{"low": 0, "high": 2}}, 0, false, false},
		{"zero-width triangular", DistSpec{Type: "triangular", Params: map[string]float64{"low": 0, "mode": 0, "high": 0}}, 0, true, false},
		{"lognormal without spread", DistSpec{Type: "lognormal", Params: map[string]float64{"mu": 0, "sigma": 0}}, 1, true, false},
		{"normal without spread clamps", DistSpec{Type: "normal", Params: map[string]float64{"mean": -3, "std_dev": 0}}, 0, true, false},
		{"repeated empirical", DistSpec{Type: "empirical", Values: []float64{0.5, 0.5}}, 0.5, true, false},
		{"mixed empirical", DistSpec{Type: "empirical", Values: []float64{0, 0.5}}, 0, false, false},
		{"exponential", DistSpec{Type: "exponential", Params: map[string]float64{"rate": 1}}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smp, err := NewSampler(tt.spec)
			require.NoError(t, err)
			pm, ok := smp.(sim.PointMass)
			if tt.noPointMass {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			value, fixed := pm.PointMass()
			assert.Equal(t, tt.fixed, fixed)
			if fixed {
				assert.Equal(t, tt.value, value)
				assert.Equal(t, tt.value, smp.Sample(rand.New(rand.NewSource(1))))
			}
		})
	}
}

func TestNormalSampler_ClampsAtZero(t *testing.T) {
	_, xs := sampleMean(t, DistSpec{Type: "normal", Params: map[string]float64{"mean": 0, "std_dev": 1}}, 1000)

	zeros := 0
	for _, x := range xs {
		require.GreaterOrEqual(t, x, 0.0)
		if x == 0 {
			zeros++
		}
	}
	assert.Greater(t, zeros, 300)
}

func TestTriangularSampler_StaysInRange(t *testing.T) {
	_, xs := sampleMean(t, DistSpec{Type: "triangular", Params: map[string]float64{"low": 0.1, "mode": 0.2, "high": 0.5}}, 5000)

	for _, x := range xs {
		require.GreaterOrEqual(t, x, 0.1)
		require.LessOrEqual(t, x, 0.5)
	}
}

func TestNewSampler_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
		want string
	}{
		{"unknown", DistSpec{Type: "pareto"}, "unknown distribution type"},
		{"missing rate", DistSpec{Type: "exponential"}, "requires parameter \"rate\""},
		{"zero rate", DistSpec{Type: "exponential", Params: map[string]float64{"rate": 0}}, "must be positive"},
		{"negative value", DistSpec{Type: "deterministic", Params: map[string]float64{"value": -1}}, "non-negative"},
		{"inverted uniform", DistSpec{Type: "uniform", Params: map[string]float64{"low": 2, "high": 1}}, "low <= high"},
		{"mode outside", DistSpec{Type: "triangular", Params: map[string]float64{"low": 0, "mode": 3, "high": 2}}, "mode <= high"},
		{"gamma scale", DistSpec{Type: "gamma", Params: map[string]float64{"shape": 1, "scale": -1}}, "\"scale\" must be positive"},
		{"lognormal sigma", DistSpec{Type: "lognormal", Params: map[string]float64{"mu": 0, "sigma": -1}}, "sigma"},
		{"weibull shape", DistSpec{Type: "weibull", Params: map[string]float64{"scale": 1}}, "requires parameter \"shape\""},
		{"normal std", DistSpec{Type: "normal", Params: map[string]float64{"mean": 1, "std_dev": -1}}, "std_dev"},
		{"empty empirical", DistSpec{Type: "empirical"}, "at least one value"},
		{"negative empirical", DistSpec{Type: "empirical", Values: []float64{1, -1}}, "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSampler(tt.spec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
