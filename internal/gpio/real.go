//go:build linux

package gpio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// RealSampler reads the shifter from actual hardware: axes from an IIO ADC
// (in_voltageN_raw) and the button from the Linux GPIO character device.
// Lines and files are acquired by ConfigureInput, not by the constructor.
type RealSampler struct {
	chipName string
	iioDir   string
	adcBits  int

	chip   *gpiocdev.Chip
	lines  map[int]*gpiocdev.Line
	analog map[int]*os.File
}

// NewRealSampler creates a sampler for the given GPIO chip and IIO device
// directory. adcBits is the ADC resolution; readings are scaled to 10 bits.
func NewRealSampler(chipName, iioDir string, adcBits int) *RealSampler {
	return &RealSampler{
		chipName: chipName,
		iioDir:   iioDir,
		adcBits:  adcBits,
		lines:    make(map[int]*gpiocdev.Line),
		analog:   make(map[int]*os.File),
	}
}

// ConfigureInput opens an analog channel or requests a digital line as input.
// Pull-ups on the axes must be fitted on the board: an unplugged shifter then
// reads full scale on both axes. For digital lines the bias is applied by
// the kernel.
func (r *RealSampler) ConfigureInput(ch logic.Channel, mode logic.InputMode) error {
	if ch.Kind == logic.Analog {
		return r.openAnalog(ch.Line)
	}

	if r.chip == nil {
		chip, err := gpiocdev.NewChip(r.chipName)
		if err != nil {
			return fmt.Errorf("open gpio chip: %w", err)
		}
		r.chip = chip
	}

	bias := gpiocdev.WithBiasDisabled
	if mode == logic.InputPullUp {
		bias = gpiocdev.WithPullUp
	}

	if l, ok := r.lines[ch.Line]; ok {
		if err := l.Reconfigure(gpiocdev.AsInput, bias); err != nil {
			return fmt.Errorf("reconfigure line %d: %w", ch.Line, err)
		}
		return nil
	}

	l, err := r.chip.RequestLine(ch.Line, gpiocdev.AsInput, bias, gpiocdev.WithConsumer("gearshift-keyboard"))
	if err != nil {
		return fmt.Errorf("request line %d: %w", ch.Line, err)
	}
	r.lines[ch.Line] = l
	return nil
}

func (r *RealSampler) openAnalog(n int) error {
	if _, ok := r.analog[n]; ok {
		return nil
	}
	path := filepath.Join(r.iioDir, fmt.Sprintf("in_voltage%d_raw", n))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open adc channel %d: %w", n, err)
	}
	r.analog[n] = f
	return nil
}

// ReadAnalog reads one conversion from the ADC channel, scaled to 0..1023.
func (r *RealSampler) ReadAnalog(ch logic.Channel) (uint16, error) {
	f, ok := r.analog[ch.Line]
	if !ok {
		return 0, fmt.Errorf("adc channel %d not configured", ch.Line)
	}

	// Each read of an IIO raw attribute from offset 0 triggers a new conversion.
	var buf [16]byte
	n, err := f.ReadAt(buf[:], 0)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("read adc channel %d: %w", ch.Line, err)
	}

	raw, err := strconv.ParseUint(strings.TrimSpace(string(buf[:n])), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse adc channel %d: %w", ch.Line, err)
	}
	return scaleTo10Bit(uint32(raw), r.adcBits), nil
}

// ReadDigital returns true when the line is high.
func (r *RealSampler) ReadDigital(ch logic.Channel) (bool, error) {
	l, ok := r.lines[ch.Line]
	if !ok {
		return false, fmt.Errorf("gpio line %d not configured", ch.Line)
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read line %d: %w", ch.Line, err)
	}
	return v == 1, nil
}

// Close releases GPIO lines and ADC files.
// Lines are left as inputs with bias disabled.
func (r *RealSampler) Close() error {
	var errs []error

	for n, l := range r.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", n, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", n, err))
		}
	}
	r.lines = make(map[int]*gpiocdev.Line)

	for n, f := range r.analog {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close adc channel %d: %w", n, err))
		}
	}
	r.analog = make(map[int]*os.File)

	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
