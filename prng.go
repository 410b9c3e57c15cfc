package usershader

import "math/bits"

// prngSeed is the fixed xoshiro256+ seed every hook starts from, so a
// shader's `random` sequence is reproducible across runs.
var prngSeed = [4]uint64{
	0xb76d71f9443c228a,
	0x93a02092fc4807e8,
	0x06d81748f838bd07,
	0x9381ee129dddce6c,
}

// prngStep advances the xoshiro256+ state and returns a uniform value
// in [0, 1), using the canonical 53-bit double conversion.
func prngStep(s *[4]uint64) float64 {
	result := s[0] + s[3]
	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)

	return float64(result>>11) * 0x1p-53
}
