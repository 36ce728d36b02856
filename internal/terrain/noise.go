package terrain

import "math"

// hash2D mixes an integer lattice coordinate and a seed into a float in
// [0, 1). This is the one formula every downstream noise call bottoms out
// in, and it is written out exactly as specified rather than delegated to
// a third-party noise package: determinism across platforms and Go
// versions (spec §5, §8 P1) requires the bit pattern of every multiply and
// shift to be pinned, which a general-purpose noise library does not
// promise.
func hash2D(x, y int64, seed uint32) float64 {
	n := uint32(x)*374761393 + uint32(y)*668265263 + seed*2654435761
	// integer avalanche finisher
	n ^= n >> 15
	n *= 2246822519
	n ^= n >> 13
	n *= 3266489917
	n ^= n >> 16
	return float64(n) / 4294967296.0
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// valueNoise2D bilinearly interpolates the hashes of the four lattice
// corners surrounding (x, y) using a smoothstep t-curve.
func valueNoise2D(x, y float64, seed uint32) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix0, iy0 := int64(x0), int64(y0)

	tx := smoothstep(x - x0)
	ty := smoothstep(y - y0)

	h00 := hash2D(ix0, iy0, seed)
	h10 := hash2D(ix0+1, iy0, seed)
	h01 := hash2D(ix0, iy0+1, seed)
	h11 := hash2D(ix0+1, iy0+1, seed)

	top := lerp(h00, h10, tx)
	bottom := lerp(h01, h11, tx)
	return lerp(top, bottom, ty)
}

// FBm sums octaves (<=6) of value noise at doubling frequency and halving
// amplitude, normalized by total amplitude used.
func FBm(x, y float64, seed uint32, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	if octaves > 6 {
		octaves = 6
	}
	var sum, amp, freq, total float64
	amp = 1
	freq = 1
	for o := 0; o < octaves; o++ {
		// each octave draws from an independently seeded lattice so octaves
		// don't simply resample the same corners at different frequencies
		octSeed := seed + uint32(o)*101910091
		sum += valueNoise2D(x*freq, y*freq, octSeed) * amp
		total += amp
		amp *= 0.5
		freq *= 2
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// DomainWarp produces an offset (dx, dy) from two independent fBm fields
// and returns the warped coordinate x+dx, y+dy. Used only by the
// island-shape predicate (C4), per spec.
func DomainWarp(x, y float64, seed uint32, octaves int, scale, strength float64) (float64, float64) {
	dx := (FBm(x*scale, y*scale, seed^0x9e3779b9, octaves)*2 - 1) * strength
	dy := (FBm(x*scale, y*scale, seed^0x85ebca6b, octaves)*2 - 1) * strength
	return x + dx, y + dy
}
