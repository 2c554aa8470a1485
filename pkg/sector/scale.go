package sector

import "fmt"

// Scale is the strictly increasing sequence of panel ratings allowed for a
// sector.
type Scale []float64

// Index returns the position of amps on the scale, or -1.
func (s Scale) Index(amps float64) int {
	for i, v := range s {
		if v == amps {
			return i
		}
	}
	return -1
}

// Contains reports whether amps is a rung on the scale.
func (s Scale) Contains(amps float64) bool { return s.Index(amps) >= 0 }

// Next returns the rung after amps. ok is false when amps is not on the
// scale or is the top rung.
func (s Scale) Next(amps float64) (float64, bool) {
	i := s.Index(amps)
	if i < 0 || i+1 >= len(s) {
		return 0, false
	}
	return s[i+1], true
}

// Max returns the top rung.
func (s Scale) Max() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Check verifies the scale is non-empty and strictly increasing.
func (s Scale) Check() error {
	if len(s) == 0 {
		return fmt.Errorf("empty scale")
	}
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return fmt.Errorf("scale not strictly increasing at %v", s[i])
		}
	}
	return nil
}
