package colors

import (
	"fmt"
	"testing"
)

// sampleColors walks the RGB cube on a coarse grid
func sampleColors() []string {
	var out []string
	for r := 0; r <= 255; r += 51 {
		for g := 0; g <= 255; g += 51 {
			for b := 0; b <= 255; b += 51 {
				out = append(out, fmt.Sprintf("#%02x%02x%02x", r, g, b))
			}
		}
	}
	return append(out, "#123456", "#abcdef", "#7f7f7f", "#010203")
}

func TestDeriveHarmonyPrimaryRed(t *testing.T) {
	h, err := DeriveHarmony("#ff0000")
	if err != nil {
		t.Fatalf("DeriveHarmony failed: %v", err)
	}

	exact := map[int]string{
		HarmonyBase:          "#ff0000",
		HarmonyComplementary: "#00ffff",
		HarmonyTriadicFirst:  "#00ff00",
		HarmonyTriadicSecond: "#0000ff",
	}
	for i, expected := range exact {
		if h[i] != expected {
			t.Errorf("harmony[%d]: expected %s, got %s", i, expected, h[i])
		}
	}

	if h[HarmonyAnalogousPlus] != "#ff8000" {
		t.Errorf("Expected analogous +30 #ff8000, got %s", h[HarmonyAnalogousPlus])
	}
	if h[HarmonyAnalogousMinus] != "#ff0080" {
		t.Errorf("Expected analogous -30 #ff0080, got %s", h[HarmonyAnalogousMinus])
	}
}

// Channels landing exactly on .5 round up, e.g. the green of #001e31 at -30
// is 43.5 and becomes 0x2c.
func TestDeriveHarmonyKnownColors(t *testing.T) {
	tests := []struct {
		base string
		want Harmony
	}{
		{"#001e31", Harmony{"#001e31", "#ffe1ce", "#000531", "#00312c", "#31001e", "#1e3100"}},
		{"#002d0e", Harmony{"#002d0e", "#ffd2f1", "#002d25", "#092d00", "#0e002d", "#2d0e00"}},
		{"#5b7c99", Harmony{"#5b7c99", "#a48366", "#5b5d99", "#5b9997", "#995b7c", "#7c995b"}},
		{"#c08552", Harmony{"#c08552", "#3f7aad", "#c0bc52", "#c05256", "#52c085", "#8552c0"}},
		{"#8e44ad", Harmony{"#8e44ad", "#71bb52", "#ad4497", "#5944ad", "#ad8e44", "#44ad8e"}},
		{"#3a5f0b", Harmony{"#3a5f0b", "#c5a0f4", "#105f0b", "#5f5a0b", "#0b3a5f", "#5f0b3a"}},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			h, err := DeriveHarmony(tt.base)
			if err != nil {
				t.Fatalf("DeriveHarmony failed: %v", err)
			}
			if h != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, h)
			}
		})
	}
}

func TestDeriveHarmonyProperties(t *testing.T) {
	for _, c := range sampleColors() {
		h, err := DeriveHarmony(c)
		if err != nil {
			t.Fatalf("DeriveHarmony(%s) failed: %v", c, err)
		}

		if len(h.Slice()) != 6 {
			t.Errorf("Expected 6 colors for %s, got %d", c, len(h.Slice()))
		}
		if h[HarmonyBase] != c {
			t.Errorf("Expected base %s, got %s", c, h[HarmonyBase])
		}

		again, err := DeriveHarmony(h[HarmonyBase])
		if err != nil {
			t.Fatalf("DeriveHarmony(%s) failed: %v", h[HarmonyBase], err)
		}
		if again != h {
			t.Errorf("Harmony of base is not stable for %s: %v vs %v", c, h, again)
		}
	}
}

func TestComplementRoundTrip(t *testing.T) {
	for _, c := range sampleColors() {
		once, err := Complement(c)
		if err != nil {
			t.Fatalf("Complement(%s) failed: %v", c, err)
		}
		twice, err := Complement(once)
		if err != nil {
			t.Fatalf("Complement(%s) failed: %v", once, err)
		}
		if twice != c {
			t.Errorf("Expected %s after double complement, got %s", c, twice)
		}
	}
}

func TestDeriveHarmonyAchromatic(t *testing.T) {
	for _, c := range []string{"#000000", "#808080", "#ffffff", "#3c3c3c"} {
		h, err := DeriveHarmony(c)
		if err != nil {
			t.Fatalf("DeriveHarmony(%s) failed: %v", c, err)
		}
		for i := HarmonyAnalogousPlus; i <= HarmonyTriadicSecond; i++ {
			if h[i] != c {
				t.Errorf("Expected rotated entry %d of %s to equal base, got %s", i, c, h[i])
			}
		}
	}
}

func TestDeriveHarmonyNormalizesCase(t *testing.T) {
	h, err := DeriveHarmony("#ABCDEF")
	if err != nil {
		t.Fatalf("DeriveHarmony failed: %v", err)
	}
	if h[HarmonyBase] != "#abcdef" {
		t.Errorf("Expected lowercase base, got %s", h[HarmonyBase])
	}
}

func TestDeriveHarmonyInvalid(t *testing.T) {
	for _, c := range []string{"", "ff0000", "#fff", "#gg0000", "#12345 ", "#1234567"} {
		if _, err := DeriveHarmony(c); err == nil {
			t.Errorf("Expected error for %q", c)
		}
	}
}
