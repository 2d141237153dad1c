package generator

import (
	"math"
	"math/rand"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/lucasjones/reggen"
)

const alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Source owns the simulation's randomness. Every randomized decision --
// nullability, selection, item counts, delays, fake data -- draws from the
// one seeded stream so runs reproduce byte for byte under a fixed seed.
type Source struct {
	rng *rand.Rand
}

// NewSource creates a seeded source and routes the faker and uuid package
// randomness through the same stream.
func NewSource(seed int64) *Source {
	rng := rand.New(rand.NewSource(seed))
	faker.SetRandomSource(rng)
	uuid.SetRand(rng)
	return &Source{rng: rng}
}

// Rand exposes the underlying stream for collaborators that draw directly.
func (s *Source) Rand() *rand.Rand {
	return s.rng
}

func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntBetween draws a uniform int in [min, max] inclusive.
func (s *Source) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

// Uniform draws a uniform float in [min, max).
func (s *Source) Uniform(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

func (s *Source) Bool() bool {
	return s.rng.Float64() < 0.5
}

// Alphanumeric draws a random string over [A-Za-z0-9].
func (s *Source) Alphanumeric(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphanumerics[s.rng.Intn(len(alphanumerics))]
	}
	return string(out)
}

// WeightedIndex picks an index proportionally to weights. Returns -1 when
// no weight is positive.
func (s *Source) WeightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	r := s.rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r < 0 {
			return i
		}
	}
	// Float accumulation can leave r at a hair above zero; fall back to the
	// last positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}

// Pattern generates a string matching the regular expression, seeded from
// the shared stream.
func (s *Source) Pattern(pattern string, limit int) (string, error) {
	g, err := reggen.NewGenerator(pattern)
	if err != nil {
		return "", err
	}
	g.SetSeed(s.rng.Int63())
	return g.Generate(limit), nil
}

// Word returns a random lowercase word.
func (s *Source) Word() string {
	return faker.Word()
}

// Round rounds v to the given number of decimals.
func Round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}
