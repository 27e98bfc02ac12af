package domain

import "fmt"

// QualityPreset is one rung of the quality ladder. MaxDimension caps the
// longer screen side in pixels (0 = native resolution), BitRate is in
// bits per second.
type QualityPreset struct {
	Name         string `json:"name"`
	MaxDimension int    `json:"max_dimension"`
	BitRate      int    `json:"bit_rate"`
	MaxFrameRate int    `json:"max_frame_rate"`
}

// Ladder is an immutable, strictly descending sequence of quality presets.
// Position in the sequence defines "one step lower": every preset transition
// is deterministic and replayable.
type Ladder struct {
	presets []QualityPreset
	index   map[string]int
}

// NewLadder builds a ladder from best to worst. Names must be unique and
// bit rates strictly decreasing.
func NewLadder(presets ...QualityPreset) (Ladder, error) {
	if len(presets) == 0 {
		return Ladder{}, fmt.Errorf("ladder must contain at least one preset")
	}

	index := make(map[string]int, len(presets))
	for i, p := range presets {
		if p.Name == "" {
			return Ladder{}, fmt.Errorf("preset %d has empty name", i)
		}
		if _, dup := index[p.Name]; dup {
			return Ladder{}, fmt.Errorf("duplicate preset name %q", p.Name)
		}
		if p.BitRate <= 0 {
			return Ladder{}, fmt.Errorf("preset %q has non-positive bit rate", p.Name)
		}
		if p.MaxDimension < 0 {
			return Ladder{}, fmt.Errorf("preset %q has negative max dimension", p.Name)
		}
		if p.MaxFrameRate <= 0 {
			return Ladder{}, fmt.Errorf("preset %q has non-positive max frame rate", p.Name)
		}
		if i > 0 && p.BitRate >= presets[i-1].BitRate {
			return Ladder{}, fmt.Errorf("preset %q does not descend in quality from %q", p.Name, presets[i-1].Name)
		}
		index[p.Name] = i
	}

	cp := make([]QualityPreset, len(presets))
	copy(cp, presets)
	return Ladder{presets: cp, index: index}, nil
}

// MustLadder is NewLadder for static ladders known to be valid.
func MustLadder(presets ...QualityPreset) Ladder {
	l, err := NewLadder(presets...)
	if err != nil {
		panic(err)
	}
	return l
}

// Default returns the highest-quality preset (index 0).
func (l Ladder) Default() QualityPreset {
	return l.presets[0]
}

// ByName performs exact lookup. Callers treat a miss as a request to fall
// back to Default.
func (l Ladder) ByName(name string) (QualityPreset, bool) {
	i, ok := l.index[name]
	if !ok {
		return QualityPreset{}, false
	}
	return l.presets[i], true
}

// Resolve is ByName with the documented fallback to Default applied.
func (l Ladder) Resolve(name string) QualityPreset {
	if p, ok := l.ByName(name); ok {
		return p
	}
	return l.Default()
}

// NextLower returns the preset one step below the named one, or false when
// the name is unknown or already at the bottom rung.
func (l Ladder) NextLower(name string) (QualityPreset, bool) {
	i, ok := l.index[name]
	if !ok || i+1 >= len(l.presets) {
		return QualityPreset{}, false
	}
	return l.presets[i+1], true
}

// Len reports the number of rungs.
func (l Ladder) Len() int {
	return len(l.presets)
}

// Presets returns a copy of the ladder from best to worst.
func (l Ladder) Presets() []QualityPreset {
	cp := make([]QualityPreset, len(l.presets))
	copy(cp, l.presets)
	return cp
}

// DefaultLadder mirrors the presets offered by the console UI.
func DefaultLadder() Ladder {
	return MustLadder(
		QualityPreset{Name: "ultra", MaxDimension: 0, BitRate: 20_000_000, MaxFrameRate: 60},
		QualityPreset{Name: "high", MaxDimension: 1920, BitRate: 12_000_000, MaxFrameRate: 60},
		QualityPreset{Name: "standard", MaxDimension: 1080, BitRate: 8_000_000, MaxFrameRate: 60},
		QualityPreset{Name: "low", MaxDimension: 720, BitRate: 4_000_000, MaxFrameRate: 30},
	)
}
