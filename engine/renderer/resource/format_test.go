package resource

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestFormatForChannels(t *testing.T) {
	g := NewWithT(t)

	g.Expect(FormatForChannels(4)).To(Equal(FormatR8G8B8A8SRGB))
	g.Expect(FormatForChannels(3)).To(Equal(FormatR8G8B8SRGB))
	g.Expect(FormatForChannels(2)).To(Equal(FormatR8G8SRGB))
	for _, other := range []int{0, 1, 5, -1} {
		g.Expect(FormatForChannels(other)).To(Equal(FormatR8G8B8SRGB), "channels=%d", other)
	}
}

func TestFormatTexelSize(t *testing.T) {
	g := NewWithT(t)
	g.Expect(FormatR8G8SRGB.TexelSize()).To(Equal(2))
	g.Expect(FormatR8G8B8SRGB.TexelSize()).To(Equal(3))
	g.Expect(FormatR8G8B8A8SRGB.TexelSize()).To(Equal(4))
	g.Expect(FormatUndefined.TexelSize()).To(Equal(0))
}

func TestMipLevels(t *testing.T) {
	g := NewWithT(t)

	g.Expect(MipLevels(257, 100, true)).To(BeEquivalentTo(9))
	g.Expect(MipLevels(257, 100, false)).To(BeEquivalentTo(1))
	g.Expect(MipLevels(1, 1, true)).To(BeEquivalentTo(1))
	g.Expect(MipLevels(64, 64, true)).To(BeEquivalentTo(7))
	g.Expect(MipLevels(100, 1024, true)).To(BeEquivalentTo(11))
	g.Expect(MipLevels(1023, 3, true)).To(BeEquivalentTo(10))

	// floor(log2(m)) + 1 over a spread of sizes.
	for m := uint32(1); m < 5000; m += 7 {
		want := uint32(0)
		for v := m; v > 1; v >>= 1 {
			want++
		}
		g.Expect(MipLevels(m, m/2, true)).To(Equal(want+1), "max=%d", m)
	}
}

func TestMipExtent(t *testing.T) {
	g := NewWithT(t)
	w, h := MipExtent(257, 100, 3)
	g.Expect(w).To(BeEquivalentTo(32))
	g.Expect(h).To(BeEquivalentTo(12))
	w, h = MipExtent(257, 100, 8)
	g.Expect(w).To(BeEquivalentTo(1))
	g.Expect(h).To(BeEquivalentTo(1))
}
