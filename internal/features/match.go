package features

import "math"

// Match is a correspondence between a source and a destination descriptor.
// It records indices only; the collections belong to the caller.
type Match struct {
	SourceIndex      int `json:"source_index"`
	DestinationIndex int `json:"destination_index"`

	// Distance is the Hamming distance between the two descriptors,
	// between 0 and the descriptor bit length.
	Distance int `json:"distance"`
}

// MatchOptions configures MatchDescriptors. The zero value accepts every
// source descriptor's nearest neighbour.
type MatchOptions struct {
	// LimitDistance enables the MaxDistance check.
	LimitDistance bool

	// MaxDistance is the largest accepted Hamming distance when
	// LimitDistance is set. Must be >= 0.
	MaxDistance int

	// RatioThreshold, when > 0, rejects a match unless
	// best/secondBest < RatioThreshold. A match whose best and second-best
	// distances are both 0 is ambiguous and rejected. Without a second
	// candidate the test passes.
	RatioThreshold float64

	// CrossCheck keeps a match only if matching the destination descriptor
	// back against the source collection, with the same options, selects
	// the same source descriptor.
	CrossCheck bool
}

func (o MatchOptions) validate() error {
	if o.LimitDistance && o.MaxDistance < 0 {
		return configError("match", "max distance must be >= 0, got %d", o.MaxDistance)
	}
	if o.RatioThreshold < 0 || math.IsNaN(o.RatioThreshold) {
		return configError("match", "ratio threshold must be >= 0, got %v", o.RatioThreshold)
	}
	return nil
}

// MatchDescriptors finds, for each source descriptor, its nearest
// destination descriptor by Hamming distance and keeps it if it passes the
// configured checks.
//
// The search is brute force. Ties for the nearest neighbour go to the lowest
// destination index. The second-best distance is the smallest distance among
// the other destination descriptors, so it may equal the best.
//
// Matches are returned by ascending source index; each source index appears
// at most once. If either collection is empty the result is empty and no
// error is returned. Descriptors of different bit lengths produce an
// IncompatibleDescriptor error.
func MatchDescriptors(source, destination []Descriptor, opts MatchOptions) ([]Match, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(source) == 0 || len(destination) == 0 {
		return []Match{}, nil
	}
	if err := checkCompatible(source, destination); err != nil {
		return nil, err
	}

	var reverse []int
	if opts.CrossCheck {
		var err error
		if reverse, err = acceptedNeighbours(destination, source, opts); err != nil {
			return nil, err
		}
	}

	forward := make([]Match, len(source))
	accepted := make([]bool, len(source))
	err := parallelRanges(len(source), func(_, start, end int) error {
		for i := start; i < end; i++ {
			n := nearest(source[i], destination)
			if !n.accepts(opts) {
				continue
			}
			if reverse != nil && reverse[n.index] != i {
				continue
			}
			forward[i] = Match{SourceIndex: i, DestinationIndex: n.index, Distance: n.best}
			accepted[i] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0)
	for i, ok := range accepted {
		if ok {
			matches = append(matches, forward[i])
		}
	}
	return matches, nil
}

// acceptedNeighbours returns, for each query, the index of its accepted
// nearest candidate or -1.
func acceptedNeighbours(queries, candidates []Descriptor, opts MatchOptions) ([]int, error) {
	out := make([]int, len(queries))
	err := parallelRanges(len(queries), func(_, start, end int) error {
		for i := start; i < end; i++ {
			n := nearest(queries[i], candidates)
			if n.accepts(opts) {
				out[i] = n.index
			} else {
				out[i] = -1
			}
		}
		return nil
	})
	return out, err
}

type neighbour struct {
	index     int
	best      int
	second    int
	hasSecond bool
}

func nearest(query Descriptor, candidates []Descriptor) neighbour {
	n := neighbour{index: -1, best: math.MaxInt, second: math.MaxInt}
	for j, c := range candidates {
		d := hammingWords(query.Words, c.Words)
		switch {
		case d < n.best:
			if n.index >= 0 {
				n.second, n.hasSecond = n.best, true
			}
			n.index, n.best = j, d
		case d < n.second:
			n.second, n.hasSecond = d, true
		}
	}
	return n
}

func (n neighbour) accepts(opts MatchOptions) bool {
	if opts.LimitDistance && n.best > opts.MaxDistance {
		return false
	}
	if opts.RatioThreshold > 0 && n.hasSecond {
		if n.second == 0 {
			return false
		}
		if float64(n.best)/float64(n.second) >= opts.RatioThreshold {
			return false
		}
	}
	return true
}

func checkCompatible(source, destination []Descriptor) error {
	bits := source[0].Bits
	for _, set := range [2][]Descriptor{source, destination} {
		for _, d := range set {
			if err := d.validateShape("match", bits); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateShape checks that d is a bits-long descriptor whose words hold
// exactly that many bits.
func (d Descriptor) validateShape(op string, bits int) error {
	if d.Bits != bits {
		return incompatibleError(op, "descriptor lengths differ: %d and %d bits", bits, d.Bits)
	}
	words := (bits + 63) / 64
	if bits < 0 || len(d.Words) != words {
		return incompatibleError(op, "%d-bit descriptor has %d words, want %d", bits, len(d.Words), words)
	}
	if tail := uint(bits % 64); tail != 0 && d.Words[words-1]>>tail != 0 {
		return incompatibleError(op, "%d-bit descriptor has bits set past its length", bits)
	}
	return nil
}
