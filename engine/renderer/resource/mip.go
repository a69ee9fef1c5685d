package resource

import "math/bits"

// MipLevels returns the length of the mip chain for a width x height image:
// floor(log2(max(width, height))) + 1 when generate is set, 1 otherwise.
func MipLevels(width, height uint32, generate bool) uint32 {
	if !generate {
		return 1
	}
	largest := max(width, height)
	if largest == 0 {
		return 1
	}
	return uint32(bits.Len32(largest))
}

// MipExtent returns the size of the given mip level, never below 1x1.
func MipExtent(width, height, level uint32) (uint32, uint32) {
	return max(width>>level, 1), max(height>>level, 1)
}
