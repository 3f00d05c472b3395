package database

import "testing"

func TestAtoiDefaultClampsToDefault(t *testing.T) {
	// A misconfigured retry/pool knob must never zero out the dial loop.
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"7", 5, 7},
		{"0", 5, 5},
		{"-1", 5, 5},
		{"garbage", 5, 5},
		{"", 5, 5},
	}
	for _, c := range cases {
		if got := atoiDefault(c.in, c.def); got != c.want {
			t.Fatalf("atoiDefault(%q, %d) = %d, want %d", c.in, c.def, got, c.want)
		}
	}
}
