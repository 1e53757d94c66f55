package welcomecard

import "math"

// EMU (English Metric Units) conversion helpers.
// 1 inch = 914400 EMU, 1 point = 12700 EMU, 1 inch = 72 points.

const (
	emuPerInch    = 914400
	emuPerPoint   = 12700
	pointsPerInch = 72

	// DefaultDPI is the pixel density every slide is rasterized at unless
	// RenderOptions says otherwise.
	DefaultDPI = 96

	// maxEMU is the maximum safe EMU value to prevent overflow.
	maxEMU = math.MaxInt64 / 2
)

// Inch converts inches to EMU. Clamps to safe range.
func Inch(n float64) int64 {
	return clampEMU(n * emuPerInch)
}

// Point converts points to EMU.
func Point(n float64) int64 {
	return clampEMU(n * emuPerPoint)
}

// EMUToPoint converts EMU to points.
func EMUToPoint(emu int64) float64 {
	return float64(emu) / emuPerPoint
}

// EMUToPixel converts a length in EMU to whole pixels at dpi.
// The result is truncated toward zero, so 72pt (914400 EMU) at 96 DPI is
// exactly 96 pixels.
func EMUToPixel(emu int64, dpi int) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if emu > math.MaxInt64/int64(dpi) || emu < math.MinInt64/int64(dpi) {
		return int(float64(emu) * float64(dpi) / emuPerInch)
	}
	return int(emu * int64(dpi) / emuPerInch)
}

// PointToPixel converts points to whole pixels at dpi, truncating.
func PointToPixel(pt float64, dpi int) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return int(pt * float64(dpi) / pointsPerInch)
}

// clampEMU converts a float64 to int64, clamping to prevent overflow.
func clampEMU(v float64) int64 {
	if v > float64(maxEMU) {
		return maxEMU
	}
	if v < -float64(maxEMU) {
		return -maxEMU
	}
	return int64(v)
}
