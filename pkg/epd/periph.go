package epd

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/inky"
	"periph.io/x/host/v3"

	"github.com/menta2k/eink-frame/pkg/display"
)

// Raspberry Pi wiring used by the stock e-paper HATs.
const (
	spiPort  = "SPI0.0"
	pinDC    = "22"
	pinReset = "27"
	pinBusy  = "17"
)

type hardwareDriver struct {
	port  spi.PortCloser
	dev   *inky.DevImpression
	panel display.Panel
}

// Open connects to the panel hardware for the given model over SPI and
// GPIO. Any transport failure is reported as ErrDriverUnavailable; an
// unknown model is reported as such.
func Open(model string) (Driver, error) {
	panel, err := display.Lookup(model)
	if err != nil {
		return nil, err
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %v", ErrDriverUnavailable, err)
	}

	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDriverUnavailable, spiPort, err)
	}

	dc := gpioreg.ByName(pinDC)
	reset := gpioreg.ByName(pinReset)
	busy := gpioreg.ByName(pinBusy)
	if dc == nil || reset == nil || busy == nil {
		port.Close()
		return nil, fmt.Errorf("%w: control pins not available", ErrDriverUnavailable)
	}

	dev, err := newImpression(port, dc, reset, busy, panel)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}

	return &hardwareDriver{port: port, dev: dev, panel: panel}, nil
}

func newImpression(port spi.Port, dc, reset, busy gpio.PinIO, panel display.Panel) (*inky.DevImpression, error) {
	model := inky.IMPRESSION73
	if panel.Name == "epd5in65f" {
		model = inky.IMPRESSION57
	}
	return inky.NewImpression(port, dc, reset, busy, &inky.Opts{
		Model:       model,
		ModelColor:  inky.Multi,
		BorderColor: inky.White,
	})
}

// Render transfers the buffer to the panel and triggers a refresh.
// Portrait buffers are rotated to the panel's landscape wiring first.
func (d *hardwareDriver) Render(buf *image.Paletted) error {
	if buf.Bounds().Dy() > buf.Bounds().Dx() {
		buf = Rotate90(buf)
	}

	b := buf.Bounds()
	if b.Dx() != d.panel.Width || b.Dy() != d.panel.Height {
		return fmt.Errorf("buffer %dx%d does not fit panel %s (%dx%d)",
			b.Dx(), b.Dy(), d.panel.Name, d.panel.Width, d.panel.Height)
	}

	if err := d.dev.Draw(buf.Bounds(), buf, image.Point{}); err != nil {
		return fmt.Errorf("panel refresh: %w", err)
	}
	return nil
}

// Close releases the SPI bus.
func (d *hardwareDriver) Close() error {
	return d.port.Close()
}
