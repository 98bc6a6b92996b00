package main

import (
	"math"
	"testing"

	"github.com/mkrigman/scnav/internal/hw/spacectl"
)

// ---------- validateCLIOverrides ----------

func TestValidateCLIOverrides_AllZero(t *testing.T) {
	if err := validateCLIOverrides(0, 0); err != nil {
		t.Errorf("all zeros should be valid (use config defaults), got: %v", err)
	}
}

func TestValidateCLIOverrides_ValidBoundary(t *testing.T) {
	cases := []struct {
		name         string
		move, rotate float64
	}{
		{"min_move", 0.00001, 0},
		{"max_move", 0.1, 0},
		{"min_rotate", 0, 0.00001},
		{"max_rotate", 0, 0.1},
		{"both_defaults", 0.001, 0.0005},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.move, tc.rotate); err != nil {
				t.Errorf("expected valid, got: %v", err)
			}
		})
	}
}

func TestValidateCLIOverrides_OutOfRange(t *testing.T) {
	cases := []struct {
		name         string
		move, rotate float64
	}{
		{"move_too_large", 0.2, 0},
		{"rotate_too_large", 0, 0.2},
		{"move_too_small", 0.000001, 0},
		{"rotate_too_small", 0, 0.000001},
		{"move_negative", -0.001, 0},
		{"rotate_negative", 0, -0.001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.move, tc.rotate); err == nil {
				t.Error("expected error for out-of-range value, got nil")
			}
		})
	}
}

func TestValidateCLIOverrides_NonFinite(t *testing.T) {
	cases := []struct {
		name         string
		move, rotate float64
	}{
		{"move_NaN", math.NaN(), 0},
		{"rotate_NaN", 0, math.NaN()},
		{"move_+Inf", math.Inf(1), 0},
		{"move_-Inf", math.Inf(-1), 0},
		{"rotate_+Inf", 0, math.Inf(1)},
		{"rotate_-Inf", 0, math.Inf(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.move, tc.rotate); err == nil {
				t.Error("expected error for non-finite value, got nil")
			}
		})
	}
}

// ---------- webPortFlag ----------

func TestWebPortFlag_EmptyString(t *testing.T) {
	w := &webPortFlag{defaultPort: 8080}
	if err := w.Set(""); err != nil {
		t.Fatalf("Set(\"\") error: %v", err)
	}
	if w.port() != 8080 {
		t.Errorf("expected default port 8080, got %d", w.port())
	}
}

func TestWebPortFlag_ValidPorts(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"8080", 8080},
		{"1", 1},
		{"65535", 65535},
		{"3000", 3000},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			if err := w.Set(tc.input); err != nil {
				t.Fatalf("Set(%q) error: %v", tc.input, err)
			}
			if w.port() != tc.want {
				t.Errorf("port() = %d, want %d", w.port(), tc.want)
			}
		})
	}
}

func TestWebPortFlag_InvalidPorts(t *testing.T) {
	cases := []string{"0", "65536", "-1", "abc", "8080.5"}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			if err := w.Set(input); err == nil {
				t.Errorf("Set(%q) should fail, got nil", input)
			}
		})
	}
}

func TestWebPortFlag_String(t *testing.T) {
	w := &webPortFlag{val: 0}
	if s := w.String(); s != "0" {
		t.Errorf("String() = %q, want \"0\"", s)
	}
	w.val = 9090
	if s := w.String(); s != "9090" {
		t.Errorf("String() = %q, want \"9090\"", s)
	}
}

// ---------- mockOpener ----------

func TestMockOpener_OpensAndReplays(t *testing.T) {
	open := mockOpener("scnav-test")
	ch, err := open()
	if err != nil {
		t.Fatalf("mock opener failed: %v", err)
	}
	defer ch.Close()

	// The scripted sweep loops forever, so a handful of fetches must all
	// succeed and at least one must carry data.
	var got *spacectl.Sample
	for i := 0; i < 10; i++ {
		s, err := ch.FetchSample()
		if err != nil {
			t.Fatalf("FetchSample: %v", err)
		}
		if s != nil {
			got = s
		}
	}
	if got == nil {
		t.Error("expected at least one sample from the scripted sweep")
	}
}
