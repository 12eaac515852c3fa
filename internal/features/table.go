package features

import (
	"math"
	"math/rand"
	"sync"
)

// Offset is a displacement from a keypoint, in pixels.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SamplingPair is one binary test: bit = I(A) > I(B).
type SamplingPair struct {
	A Offset `json:"a"`
	B Offset `json:"b"`
}

// SamplingTable is the ordered list of binary tests that defines a
// descriptor layout. Descriptors are only comparable when they were built
// with the same table.
type SamplingTable struct {
	// PatchSize is the side of the square patch the offsets are drawn from.
	PatchSize int `json:"patch_size"`

	// Pairs holds one test per descriptor bit, in bit order.
	Pairs []SamplingPair `json:"pairs"`
}

const (
	// DefaultDescriptorBits is the bit length of DefaultSamplingTable.
	DefaultDescriptorBits = 256

	// DefaultPatchSize is the patch side of DefaultSamplingTable.
	DefaultPatchSize = 31

	// DefaultTableSeed seeds DefaultSamplingTable.
	DefaultTableSeed = 0x5eed
)

var (
	defaultTableOnce sync.Once
	defaultTable     *SamplingTable
)

// DefaultSamplingTable returns the shared 256-bit table over a 31x31 patch.
// The table is built once; callers must not modify it.
func DefaultSamplingTable() *SamplingTable {
	defaultTableOnce.Do(func() {
		t, err := NewSamplingTable(DefaultDescriptorBits, DefaultPatchSize, DefaultTableSeed)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// NewSamplingTable draws bits test pairs from an isotropic Gaussian centred
// on the keypoint with σ = patchSize/5, rounded to whole pixels and clipped
// to the patch. Pairs whose two points coincide are redrawn. The same seed
// always yields the same table.
//
// bits must be a positive multiple of 8 and patchSize a positive odd
// integer of at least 3.
func NewSamplingTable(bits, patchSize int, seed int64) (*SamplingTable, error) {
	if bits <= 0 || bits%8 != 0 {
		return nil, configError("sampling table", "bit length must be a positive multiple of 8, got %d", bits)
	}
	if patchSize < 3 || patchSize%2 == 0 {
		return nil, configError("sampling table", "patch size must be an odd integer >= 3, got %d", patchSize)
	}

	rng := rand.New(rand.NewSource(seed))
	sigma := float64(patchSize) / 5
	half := patchSize / 2
	draw := func() Offset {
		return Offset{X: gaussianTap(rng, sigma, half), Y: gaussianTap(rng, sigma, half)}
	}

	pairs := make([]SamplingPair, bits)
	for i := range pairs {
		a, b := draw(), draw()
		for a == b {
			b = draw()
		}
		pairs[i] = SamplingPair{A: a, B: b}
	}
	return &SamplingTable{PatchSize: patchSize, Pairs: pairs}, nil
}

func gaussianTap(rng *rand.Rand, sigma float64, half int) int {
	v := int(math.Round(rng.NormFloat64() * sigma))
	if v < -half {
		return -half
	}
	if v > half {
		return half
	}
	return v
}

// Bits returns the descriptor length produced by the table.
func (t *SamplingTable) Bits() int { return len(t.Pairs) }

// Radius returns the largest distance of any offset from the keypoint.
// Rotating the table never moves a sample further than this.
func (t *SamplingTable) Radius() float64 {
	var r2 int
	for _, p := range t.Pairs {
		for _, o := range [2]Offset{p.A, p.B} {
			if d := o.X*o.X + o.Y*o.Y; d > r2 {
				r2 = d
			}
		}
	}
	return math.Sqrt(float64(r2))
}

func (t *SamplingTable) validate(op string) error {
	if t == nil || len(t.Pairs) == 0 {
		return configError(op, "empty sampling table")
	}
	if len(t.Pairs)%8 != 0 {
		return configError(op, "sampling table length must be a multiple of 8, got %d", len(t.Pairs))
	}
	if t.PatchSize < 1 || t.PatchSize%2 == 0 {
		return configError(op, "patch size must be a positive odd integer, got %d", t.PatchSize)
	}
	half := t.PatchSize / 2
	for i, p := range t.Pairs {
		for _, o := range [2]Offset{p.A, p.B} {
			if o.X < -half || o.X > half || o.Y < -half || o.Y > half {
				return configError(op, "pair %d offset (%d,%d) outside %dx%d patch", i, o.X, o.Y, t.PatchSize, t.PatchSize)
			}
		}
	}
	return nil
}
