package device

import (
	"context"
	"time"
)

// frameHz is the display backend's target refresh rate.
const frameHz = 60

// Renderer is the windowing layer's contract: given a snapshot already
// resolved from indexed pixels to RGB through the 3-3-2 palette, scale
// and push them to a window. The renderer never writes to memory.
type Renderer interface {
	Present(pixels []RGB, width, height, scale int)
	Close()
}

// NullRenderer is the headless stub used for --no-video and for any
// host without a real windowing layer available; it satisfies Renderer
// by discarding every frame.
type NullRenderer struct{}

func (NullRenderer) Present([]RGB, int, int, int) {}
func (NullRenderer) Close()                       {}

// Backend runs the display's periodic snapshot-and-present loop; the
// window+input backend runs on a second goroutine/thread from the
// executor.
type Backend struct {
	mmio     *MMIO
	renderer Renderer
	scale    int
	palette  [256]RGB
}

// NewBackend pairs an MMIO region with a Renderer. scale is the
// integer pixel-scale factor from --scale/-s (default 2).
func NewBackend(mmio *MMIO, renderer Renderer, scale int) *Backend {
	return &Backend{mmio: mmio, renderer: renderer, scale: scale, palette: Palette332()}
}

// Run snapshots the selected framebuffer at frameHz and presents it
// until ctx is cancelled; device goroutines drain and exit on the
// termination signal.
func (b *Backend) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / frameHz)
	defer ticker.Stop()
	defer b.renderer.Close()

	width, height := b.mmio.Dimensions()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := b.mmio.SelectedFrame()
			indexed := b.mmio.Snapshot(frame & 1)
			pixels := make([]RGB, len(indexed))
			for i, idx := range indexed {
				pixels[i] = b.palette[idx]
			}
			b.renderer.Present(pixels, width, height, b.scale)
		}
	}
}

// RGB is a resolved 8-bit color, what Palette332 maps an indexed pixel
// byte to.
type RGB struct{ R, G, B byte }

// Palette332 builds the standard 3-3-2 RRRGGGBB palette: 3 bits of
// red, 3 of green, 2 of blue, each channel scaled to fill the 0-255
// range.
func Palette332() [256]RGB {
	var p [256]RGB
	for i := 0; i < 256; i++ {
		r := (i >> 5) & 0x7
		g := (i >> 2) & 0x7
		bl := i & 0x3
		p[i] = RGB{
			R: scaleChannel(r, 7),
			G: scaleChannel(g, 7),
			B: scaleChannel(bl, 3),
		}
	}
	return p
}

func scaleChannel(v, max int) byte {
	return byte(v * 255 / max)
}
