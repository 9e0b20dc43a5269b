package colors

import (
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Harmony is a fixed-order set of colors derived from one base color:
// base, complementary, analogous +30°, analogous -30°, triadic +120°,
// triadic +240°. Consumers index into it.
type Harmony [6]string

// Indexes into a Harmony
const (
	HarmonyBase = iota
	HarmonyComplementary
	HarmonyAnalogousPlus
	HarmonyAnalogousMinus
	HarmonyTriadicFirst
	HarmonyTriadicSecond
)

// hue offsets in degrees for the rotated entries, in Harmony order
var hueOffsets = [4]float64{30, 330, 120, 240}

// Slice returns the harmony as a plain slice for serialization
func (h Harmony) Slice() []string {
	return h[:]
}

// Normalize validates a #rrggbb color and returns it in lowercase
func Normalize(hex string) (string, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return "", fmt.Errorf("invalid color %q: expected #rrggbb", hex)
	}
	for _, ch := range hex[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", ch) {
			return "", fmt.Errorf("invalid color %q: bad hex digit %q", hex, ch)
		}
	}
	return strings.ToLower(hex), nil
}

// Complement inverts each RGB channel of a #rrggbb color
func Complement(hex string) (string, error) {
	c, err := parse(hex)
	if err != nil {
		return "", err
	}
	r, g, b := c.RGB255()
	return toHex(255-r, 255-g, 255-b), nil
}

// DeriveHarmony computes the harmony set for base.
//
// The rotated entries convert to HSL (lightness = (max+min)/2, saturation
// piecewise on lightness, hue by max channel in degrees), add the offset
// modulo 360 and convert back with saturation and lightness unchanged.
// Channels round half up. Achromatic colors have hue 0 and saturation 0, so
// every rotated entry equals the base.
func DeriveHarmony(base string) (Harmony, error) {
	var h Harmony

	norm, err := Normalize(base)
	if err != nil {
		return h, err
	}
	comp, err := Complement(norm)
	if err != nil {
		return h, err
	}
	c, err := parse(norm)
	if err != nil {
		return h, err
	}

	hue, sat, light := rgbToHSL(c.RGB255())

	h[HarmonyBase] = norm
	h[HarmonyComplementary] = comp
	for i, offset := range hueOffsets {
		h[HarmonyAnalogousPlus+i] = toHex(hslToRGB(math.Mod(hue+offset, 360), sat, light))
	}

	return h, nil
}

// rgbToHSL returns hue in degrees, saturation and lightness in [0, 1]
func rgbToHSL(r8, g8, b8 uint8) (h, s, l float64) {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2
	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, l
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	if s == 0 {
		v := round255(l)
		return v, v, v
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - float64(l*s)
	}
	p := 2*l - q
	t := h / 360

	return round255(hueToRGB(p, q, t+1.0/3)),
		round255(hueToRGB(p, q, t)),
		round255(hueToRGB(p, q, t-1.0/3))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + float64((q-p)*6*t)
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + float64((q-p)*(2.0/3-t)*6)
	}
	return p
}

func round255(x float64) uint8 {
	v := math.Floor(float64(x*255) + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func parse(hex string) (colorful.Color, error) {
	norm, err := Normalize(hex)
	if err != nil {
		return colorful.Color{}, err
	}
	c, err := colorful.Hex(norm)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}
