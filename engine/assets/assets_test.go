package assets

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/spaghettifunk/lovevk/engine/core"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestInitializeIndexesImages(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	g.Expect(os.MkdirAll(filepath.Join(root, "textures"), 0o755)).To(Succeed())
	writeImage(t, filepath.Join(root, "a.png"), 4, 4)
	writeImage(t, filepath.Join(root, "textures", "b.png"), 8, 2)
	g.Expect(os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644)).To(Succeed())

	am := NewAssetManager(root)
	g.Expect(am.Initialize(false)).To(Succeed())
	defer am.Close()

	images := am.List(AssetKindImage)
	g.Expect(images).To(HaveLen(2))
	g.Expect(images[0].Path).To(Equal(filepath.Join(root, "a.png")))
	g.Expect(images[1].Path).To(Equal(filepath.Join(root, "textures", "b.png")))

	_, ok := am.Lookup("notes.txt")
	g.Expect(ok).To(BeFalse())
	_, ok = am.Lookup("textures/b.png")
	g.Expect(ok).To(BeTrue())

	// The initial scan does not report changes.
	g.Consistently(am.Images(), 50*time.Millisecond).ShouldNot(Receive())
}

func TestPixelSourceResolvesAgainstRoot(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "tile.png"), 8, 2)

	am := NewAssetManager(root)
	g.Expect(am.Initialize(false)).To(Succeed())

	info, err := am.Inspect("tile.png")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Width).To(BeEquivalentTo(8))
	g.Expect(info.Height).To(BeEquivalentTo(2))

	pixels, err := am.Decode(filepath.Join(root, "tile.png"), 4)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(pixels).To(HaveLen(8 * 2 * 4))

	_, err = am.Inspect("readme.md")
	g.Expect(errors.Is(err, core.ErrImageDecode)).To(BeTrue())
}

func TestWatcherReportsNewImages(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()

	am := NewAssetManager(root)
	g.Expect(am.Initialize(true)).To(Succeed())
	defer am.Close()

	path := filepath.Join(root, "dropped.png")
	writeImage(t, path, 2, 2)

	g.Eventually(am.Images(), 5*time.Second).Should(Receive(Equal(path)))
	g.Eventually(func() bool {
		_, ok := am.Lookup(path)
		return ok
	}, 5*time.Second).Should(BeTrue())

	g.Expect(os.Remove(path)).To(Succeed())
	g.Eventually(func() bool {
		_, ok := am.Lookup(path)
		return ok
	}, 5*time.Second).Should(BeFalse())
}

func TestCloseIsIdempotent(t *testing.T) {
	g := NewWithT(t)
	am := NewAssetManager(t.TempDir())
	g.Expect(am.Initialize(true)).To(Succeed())
	g.Expect(am.Close()).To(Succeed())
	g.Expect(am.Close()).To(Succeed())
}
