package features

import (
	"encoding/hex"
	"errors"
	"math"

	"github.com/steakknife/hamming"
)

// Descriptor is a fixed-length binary signature of a keypoint neighbourhood.
//
// Bit i is stored in Words[i/64] at bit position i%64. Bits is a positive
// multiple of 8. Descriptors are not modified after extraction.
type Descriptor struct {
	Bits  int      `json:"bits"`
	Words []uint64 `json:"words"`
}

func newDescriptor(bits int) Descriptor {
	return Descriptor{Bits: bits, Words: make([]uint64, (bits+63)/64)}
}

// Bit reports whether bit i is set.
func (d Descriptor) Bit(i int) bool {
	return d.Words[i/64]&(1<<uint(i%64)) != 0
}

func (d *Descriptor) set(i int) {
	d.Words[i/64] |= 1 << uint(i%64)
}

// Distance returns the Hamming distance between d and other.
func (d Descriptor) Distance(other Descriptor) (int, error) {
	if err := d.validateShape("distance", d.Bits); err != nil {
		return 0, err
	}
	if err := other.validateShape("distance", d.Bits); err != nil {
		return 0, err
	}
	return hammingWords(d.Words, other.Words), nil
}

func hammingWords(a, b []uint64) int {
	dist := 0
	for k := range a {
		dist += hamming.Uint64(a[k], b[k])
	}
	return dist
}

// Hex encodes the descriptor as lowercase hex, bits 0-7 in the first byte
// with bit 0 as the least significant bit.
func (d Descriptor) Hex() string {
	buf := make([]byte, d.Bits/8)
	for i := range buf {
		buf[i] = byte(d.Words[i/8] >> (uint(i%8) * 8))
	}
	return hex.EncodeToString(buf)
}

// ExtractDescriptor encodes the neighbourhood of kp on src.
//
// Every pair of table is rotated by kp.Orientation around the keypoint and
// sampled with the given strategy; bit i is set when the first sample of
// pair i is strictly brighter than the second. Because each keypoint's own
// orientation steers the pattern, the same physical feature seen at a
// different rotation yields a near-identical descriptor.
//
// An OutOfBounds error is returned when kp is outside src, or when
// sampling.Border is BorderReject and the rotated patch (including the
// interpolation footprint) leaves the surface.
func ExtractDescriptor(src Surface, kp Keypoint, table *SamplingTable, sampling Sampling) (Descriptor, error) {
	ex, err := newExtractor(src, table, sampling)
	if err != nil {
		return Descriptor{}, err
	}
	if err := ex.check(kp); err != nil {
		return Descriptor{}, err
	}
	return ex.extract(kp, make([]float64, 4*table.Bits())), nil
}

// ExtractDescriptors extracts one descriptor per keypoint, in input order.
// Either every descriptor is produced or an error is returned for the first
// keypoint (in input order) that cannot be described.
func ExtractDescriptors(src Surface, keypoints []Keypoint, table *SamplingTable, sampling Sampling) ([]Descriptor, error) {
	ex, err := newExtractor(src, table, sampling)
	if err != nil {
		return nil, err
	}
	for _, kp := range keypoints {
		if err := ex.check(kp); err != nil {
			return nil, err
		}
	}

	descriptors := make([]Descriptor, len(keypoints))
	err = parallelRanges(len(keypoints), func(_, start, end int) error {
		scratch := make([]float64, 4*table.Bits())
		for i := start; i < end; i++ {
			descriptors[i] = ex.extract(keypoints[i], scratch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return descriptors, nil
}

// FilterDescribable returns the keypoints ExtractDescriptors can describe
// with the given table and sampling, in input order. Only BorderReject can
// drop keypoints that lie inside src.
func FilterDescribable(src Surface, keypoints []Keypoint, table *SamplingTable, sampling Sampling) ([]Keypoint, error) {
	ex, err := newExtractor(src, table, sampling)
	if err != nil {
		return nil, err
	}
	kept := make([]Keypoint, 0, len(keypoints))
	for _, kp := range keypoints {
		err := ex.check(kp)
		switch {
		case err == nil:
			kept = append(kept, kp)
		case errors.Is(err, ErrOutOfBounds):
		default:
			return nil, err
		}
	}
	return kept, nil
}

// extractor binds a validated table to a sampler.
type extractor struct {
	sampler *Sampler
	table   *SamplingTable
	reach   int
}

func newExtractor(src Surface, table *SamplingTable, sampling Sampling) (*extractor, error) {
	if err := table.validate("describe"); err != nil {
		return nil, err
	}
	sampler, err := NewSampler(src, sampling)
	if err != nil {
		return nil, err
	}
	return &extractor{
		sampler: sampler,
		table:   table,
		reach:   int(math.Ceil(table.Radius())) + sampler.footprint(),
	}, nil
}

// check validates that kp can be described without reading outside the
// area the border mode can provide.
func (e *extractor) check(kp Keypoint) error {
	w, h := e.sampler.width, e.sampler.height
	p := kp.Position
	if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
		return boundsError("describe", "keypoint (%d,%d) outside %dx%d surface", p.X, p.Y, w, h)
	}
	if math.IsNaN(kp.Orientation) || math.IsInf(kp.Orientation, 0) {
		return configError("describe", "keypoint (%d,%d) has non-finite orientation", p.X, p.Y)
	}
	if e.sampler.sampling.Border == BorderReject {
		r := e.reach
		if p.X-r < 0 || p.Y-r < 0 || p.X+r >= w || p.Y+r >= h {
			return boundsError("describe", "patch of radius %d around (%d,%d) leaves %dx%d surface", r, p.X, p.Y, w, h)
		}
	}
	return nil
}

// extract computes the descriptor of a checked keypoint. scratch holds the
// rotated sample positions and must have room for 4 values per bit.
func (e *extractor) extract(kp Keypoint, scratch []float64) Descriptor {
	sin, cos := math.Sincos(kp.Orientation)
	cx, cy := float64(kp.Position.X), float64(kp.Position.Y)

	for i, p := range e.table.Pairs {
		ax, ay := float64(p.A.X), float64(p.A.Y)
		bx, by := float64(p.B.X), float64(p.B.Y)
		scratch[4*i] = cx + ax*cos - ay*sin
		scratch[4*i+1] = cy + ax*sin + ay*cos
		scratch[4*i+2] = cx + bx*cos - by*sin
		scratch[4*i+3] = cy + bx*sin + by*cos
	}

	d := newDescriptor(e.table.Bits())
	for i := range e.table.Pairs {
		va, _ := e.sampler.At(scratch[4*i], scratch[4*i+1])
		vb, _ := e.sampler.At(scratch[4*i+2], scratch[4*i+3])
		if va > vb {
			d.set(i)
		}
	}
	return d
}
