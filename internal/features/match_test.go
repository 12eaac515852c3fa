package features

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func randomDescriptors(n, bits int, rng *rand.Rand) []Descriptor {
	out := make([]Descriptor, n)
	for i := range out {
		d := newDescriptor(bits)
		for b := 0; b < bits; b++ {
			if rng.Intn(2) == 1 {
				d.set(b)
			}
		}
		out[i] = d
	}
	return out
}

// flipBits returns a copy of d with n distinct random bits inverted.
func flipBits(d Descriptor, n int, rng *rand.Rand) Descriptor {
	out := Descriptor{Bits: d.Bits, Words: append([]uint64(nil), d.Words...)}
	for _, i := range rng.Perm(d.Bits)[:n] {
		out.Words[i/64] ^= 1 << uint(i%64)
	}
	return out
}

func TestMatchDescriptors_EmptyInputs(t *testing.T) {
	d := []Descriptor{descriptorWithBits(256, 1)}

	tests := []struct {
		name     string
		src, dst []Descriptor
	}{
		{"empty source", nil, d},
		{"empty destination", d, nil},
		{"both empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := MatchDescriptors(tt.src, tt.dst, MatchOptions{CrossCheck: true, RatioThreshold: 0.8})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if matches == nil || len(matches) != 0 {
				t.Errorf("expected an empty, non-nil result, got %v", matches)
			}
		})
	}
}

func TestMatchDescriptors_NearestNeighbour(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	dst := randomDescriptors(40, 256, rng)
	src := make([]Descriptor, len(dst))
	perm := rng.Perm(len(dst))
	for i, j := range perm {
		src[i] = flipBits(dst[j], 12, rng)
	}

	matches, err := MatchDescriptors(src, dst, MatchOptions{})
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}
	if len(matches) != len(src) {
		t.Fatalf("expected %d matches, got %d", len(src), len(matches))
	}
	for i, m := range matches {
		if m.SourceIndex != i {
			t.Errorf("match %d has source index %d", i, m.SourceIndex)
		}
		if m.DestinationIndex != perm[i] {
			t.Errorf("source %d: got destination %d, want %d", i, m.DestinationIndex, perm[i])
		}
		if m.Distance != 12 {
			t.Errorf("source %d: got distance %d, want 12", i, m.Distance)
		}
	}
}

func TestMatchDescriptors_TieGoesToLowestIndex(t *testing.T) {
	src := []Descriptor{descriptorWithBits(64)}
	dst := []Descriptor{
		descriptorWithBits(64, 1, 2, 3),
		descriptorWithBits(64, 10),
		descriptorWithBits(64, 20),
	}

	matches, err := MatchDescriptors(src, dst, MatchOptions{})
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}
	want := []Match{{SourceIndex: 0, DestinationIndex: 1, Distance: 1}}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("got %+v, want %+v", matches, want)
	}
}

func TestMatchDescriptors_RatioTest(t *testing.T) {
	zero := descriptorWithBits(256)

	tests := []struct {
		name      string
		dst       []Descriptor
		threshold float64
		wantMatch bool
	}{
		{
			name:      "distinct best",
			dst:       []Descriptor{descriptorWithBits(256, bitRange(0, 10)...), descriptorWithBits(256, bitRange(100, 11)...)},
			threshold: 0.95,
			wantMatch: true,
		},
		{
			name:      "ambiguous",
			dst:       []Descriptor{descriptorWithBits(256, bitRange(0, 49)...), descriptorWithBits(256, bitRange(100, 50)...)},
			threshold: 0.95,
			wantMatch: false,
		},
		{
			name:      "ratio equal to threshold",
			dst:       []Descriptor{descriptorWithBits(256, bitRange(0, 8)...), descriptorWithBits(256, bitRange(100, 10)...)},
			threshold: 0.8,
			wantMatch: false,
		},
		{
			name:      "second best equals best",
			dst:       []Descriptor{descriptorWithBits(256, 3), descriptorWithBits(256, 4)},
			threshold: 0.99,
			wantMatch: false,
		},
		{
			name:      "two exact copies",
			dst:       []Descriptor{zero, zero},
			threshold: 0.5,
			wantMatch: false,
		},
		{
			name:      "single candidate",
			dst:       []Descriptor{descriptorWithBits(256, bitRange(0, 40)...)},
			threshold: 0.5,
			wantMatch: true,
		},
		{
			name:      "threshold disabled",
			dst:       []Descriptor{zero, zero},
			threshold: 0,
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := MatchDescriptors([]Descriptor{zero}, tt.dst, MatchOptions{RatioThreshold: tt.threshold})
			if err != nil {
				t.Fatalf("MatchDescriptors failed: %v", err)
			}
			if got := len(matches) == 1; got != tt.wantMatch {
				t.Errorf("matched: got %v, want %v (%+v)", got, tt.wantMatch, matches)
			}
			if tt.wantMatch && matches[0].DestinationIndex != 0 {
				t.Errorf("destination: got %d, want 0", matches[0].DestinationIndex)
			}
		})
	}
}

func TestMatchDescriptors_MaxDistance(t *testing.T) {
	src := []Descriptor{
		descriptorWithBits(128, bitRange(0, 5)...),
		descriptorWithBits(128, bitRange(0, 60)...),
	}
	dst := []Descriptor{descriptorWithBits(128)}

	tests := []struct {
		name string
		opts MatchOptions
		want []int
	}{
		{"unlimited", MatchOptions{}, []int{0, 1}},
		{"limit 5", MatchOptions{LimitDistance: true, MaxDistance: 5}, []int{0}},
		{"limit 4", MatchOptions{LimitDistance: true, MaxDistance: 4}, []int{}},
		{"limit 0 ignored when disabled", MatchOptions{MaxDistance: 0}, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := MatchDescriptors(src, dst, tt.opts)
			if err != nil {
				t.Fatalf("MatchDescriptors failed: %v", err)
			}
			got := make([]int, 0, len(matches))
			for _, m := range matches {
				got = append(got, m.SourceIndex)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got sources %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchDescriptors_CrossCheck(t *testing.T) {
	// Sources 0 and 1 both prefer destination 0, which prefers source 1.
	src := []Descriptor{
		descriptorWithBits(64, 0, 1, 2, 3),
		descriptorWithBits(64, 0),
	}
	dst := []Descriptor{
		descriptorWithBits(64),
		descriptorWithBits(64, 40, 41, 42, 43, 44, 45, 46, 47),
	}

	plain, err := MatchDescriptors(src, dst, MatchOptions{})
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}
	if len(plain) != 2 {
		t.Fatalf("expected 2 matches without cross check, got %+v", plain)
	}

	checked, err := MatchDescriptors(src, dst, MatchOptions{CrossCheck: true})
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}
	want := []Match{{SourceIndex: 1, DestinationIndex: 0, Distance: 1}}
	if !reflect.DeepEqual(checked, want) {
		t.Errorf("got %+v, want %+v", checked, want)
	}
}

func TestMatchDescriptors_CrossCheckSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	base := randomDescriptors(60, 256, rng)
	src := make([]Descriptor, 0, 80)
	dst := make([]Descriptor, 0, 70)
	for _, d := range base {
		src = append(src, flipBits(d, 20, rng))
		dst = append(dst, flipBits(d, 20, rng))
	}
	src = append(src, randomDescriptors(20, 256, rng)...)
	dst = append(dst, randomDescriptors(10, 256, rng)...)

	opts := MatchOptions{CrossCheck: true, RatioThreshold: 0.9, LimitDistance: true, MaxDistance: 100}
	forward, err := MatchDescriptors(src, dst, opts)
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}
	backward, err := MatchDescriptors(dst, src, opts)
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}

	swapped := make(map[Match]bool, len(backward))
	for _, m := range backward {
		swapped[Match{SourceIndex: m.DestinationIndex, DestinationIndex: m.SourceIndex, Distance: m.Distance}] = true
	}
	if len(forward) != len(backward) {
		t.Fatalf("forward has %d matches, backward %d", len(forward), len(backward))
	}
	for _, m := range forward {
		if !swapped[m] {
			t.Errorf("match %+v has no reverse counterpart", m)
		}
	}

	seen := make(map[int]bool)
	for _, m := range forward {
		if seen[m.DestinationIndex] {
			t.Errorf("destination %d matched twice under cross check", m.DestinationIndex)
		}
		seen[m.DestinationIndex] = true
		if m.Distance < 0 || m.Distance > 256 {
			t.Errorf("distance %d out of range", m.Distance)
		}
	}
}

func TestMatchDescriptors_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	src := randomDescriptors(300, 256, rng)
	dst := randomDescriptors(250, 256, rng)
	opts := MatchOptions{RatioThreshold: 0.95, CrossCheck: true}

	first, err := MatchDescriptors(src, dst, opts)
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].SourceIndex >= first[i].SourceIndex {
			t.Fatalf("matches not in ascending source order at %d", i)
		}
	}
	for run := 0; run < 3; run++ {
		again, err := MatchDescriptors(src, dst, opts)
		if err != nil {
			t.Fatalf("MatchDescriptors failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d returned a different result", run)
		}
	}
}

func TestMatchDescriptors_Errors(t *testing.T) {
	a := []Descriptor{descriptorWithBits(256)}
	b := []Descriptor{descriptorWithBits(128)}
	stray := Descriptor{Bits: 8, Words: []uint64{1 << 20}}

	tests := []struct {
		name     string
		src, dst []Descriptor
		opts     MatchOptions
		wantErr  error
	}{
		{"different lengths", a, b, MatchOptions{}, ErrIncompatibleDescriptor},
		{"mixed source lengths", append(append([]Descriptor{}, a...), b...), a, MatchOptions{}, ErrIncompatibleDescriptor},
		{"bits past length", []Descriptor{descriptorWithBits(8)}, []Descriptor{stray}, MatchOptions{}, ErrIncompatibleDescriptor},
		{"negative max distance", a, a, MatchOptions{LimitDistance: true, MaxDistance: -1}, ErrConfiguration},
		{"negative ratio", a, a, MatchOptions{RatioThreshold: -0.5}, ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MatchDescriptors(tt.src, tt.dst, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
