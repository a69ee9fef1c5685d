package resource

// Format is the texel format of a device image. Only the 8-bit sRGB formats
// produced by FormatForChannels are supported.
type Format uint8

const (
	FormatUndefined Format = iota
	FormatR8G8SRGB
	FormatR8G8B8SRGB
	FormatR8G8B8A8SRGB
)

// FormatForChannels picks the device format for a source with the given
// channel count. Counts other than 2, 3 and 4 fall back to the three channel
// format; single channel sources are expanded to grey RGB on decode.
func FormatForChannels(channels int) Format {
	switch channels {
	case 4:
		return FormatR8G8B8A8SRGB
	case 3:
		return FormatR8G8B8SRGB
	case 2:
		return FormatR8G8SRGB
	default:
		return FormatR8G8B8SRGB
	}
}

// Channels returns the number of 8-bit channels of a texel.
func (f Format) Channels() int {
	switch f {
	case FormatR8G8SRGB:
		return 2
	case FormatR8G8B8SRGB:
		return 3
	case FormatR8G8B8A8SRGB:
		return 4
	default:
		return 0
	}
}

// TexelSize returns the size of a texel in bytes.
func (f Format) TexelSize() int {
	return f.Channels()
}

func (f Format) String() string {
	switch f {
	case FormatR8G8SRGB:
		return "R8G8_SRGB"
	case FormatR8G8B8SRGB:
		return "R8G8B8_SRGB"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8_SRGB"
	default:
		return "UNDEFINED"
	}
}
