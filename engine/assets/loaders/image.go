package loaders

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

// ImageLoader reads image files from disk. It implements resource.PixelSource
// with the file path as locator.
type ImageLoader struct{}

func NewImageLoader() *ImageLoader {
	return &ImageLoader{}
}

// Inspect reads only the header of the file.
func (il *ImageLoader) Inspect(path string) (resource.SourceInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return resource.SourceInfo{}, fmt.Errorf("%w: %w", core.ErrImageDecode, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, _ := br.Peek(pngHeaderLen)
	colourType := pngColourType(header)

	cfg, format, err := image.DecodeConfig(br)
	if err != nil {
		return resource.SourceInfo{}, fmt.Errorf("%w: %s: %w", core.ErrImageDecode, path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return resource.SourceInfo{}, fmt.Errorf("%w: %s has an empty extent", core.ErrImageDecode, path)
	}

	info := resource.SourceInfo{
		Width:    uint32(cfg.Width),
		Height:   uint32(cfg.Height),
		Channels: channelCount(cfg.ColorModel),
	}
	// The png decoder widens grey+alpha to NRGBA, so the header is the only
	// place the stored channel count survives.
	if format == "png" && colourType == pngGreyAlpha {
		info.Channels = 2
	}
	core.LogDebug("Inspected %s image `%s`: %dx%d, %d channels.", format, path, info.Width, info.Height, info.Channels)
	return info, nil
}

// Decode decodes the whole file and repacks it to channels bytes per pixel
// (1 to 4). Missing channels are synthesised: grey is replicated into RGB and
// alpha is opaque.
func (il *ImageLoader) Decode(path string, channels int) ([]byte, error) {
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", core.ErrImageDecode, channels)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrImageDecode, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrImageDecode, path, err)
	}

	return pack(toNRGBA(src), channels), nil
}

// toNRGBA returns src as a tightly packed, straight alpha image.
func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && bounds.Min == (image.Point{}) && n.Stride == 4*bounds.Dx() {
		return n
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	return rgba
}

func pack(img *image.NRGBA, channels int) []byte {
	if channels == 4 {
		return img.Pix
	}

	pixelCount := len(img.Pix) / 4
	out := make([]byte, 0, pixelCount*channels)
	for i := 0; i < pixelCount; i++ {
		r, g, b, a := img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3]
		switch channels {
		case 3:
			out = append(out, r, g, b)
		case 2:
			out = append(out, luminance(r, g, b), a)
		case 1:
			out = append(out, luminance(r, g, b))
		}
	}
	return out
}

func luminance(r, g, b uint8) uint8 {
	return color.GrayModel.Convert(color.NRGBA{R: r, G: g, B: b, A: 0xff}).(color.Gray).Y
}

const (
	// signature, IHDR length and type, width, height, bit depth, colour type
	pngHeaderLen = 8 + 8 + 4 + 4 + 1 + 1
	pngGreyAlpha = 4
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngColourType returns the IHDR colour type, or -1 when header is not the
// start of a png file.
func pngColourType(header []byte) int {
	if len(header) < pngHeaderLen || !bytes.HasPrefix(header, pngSignature) || string(header[12:16]) != "IHDR" {
		return -1
	}
	return int(header[pngHeaderLen-1])
}

// channelCount reports how many channels the file stores, the way the editor
// picks a device format for it.
func channelCount(model color.Model) int {
	if palette, ok := model.(color.Palette); ok {
		for _, c := range palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}

	switch model {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.YCbCrModel, color.CMYKModel, color.RGBAModel, color.RGBA64Model:
		// Opaque true colour: decoders only pick the non-premultiplied
		// models when the file carries an alpha channel.
		return 3
	default:
		return 4
	}
}
