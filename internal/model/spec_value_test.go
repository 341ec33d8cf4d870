package model

import "testing"

func TestParseSIMagnitude(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10000", 10000},
		{"10k", 10000},
		{"10K", 10000},
		{"1M", 1_000_000},
		{"1m", 1e-3},
		{"4.7u", 4.7e-6},
		{"4.7µ", 4.7e-6},
		{"100n", 100e-9},
		{"22p", 22e-12},
	}
	for _, c := range cases {
		got, err := ParseSIMagnitude(c.in)
		if err != nil {
			t.Fatalf("ParseSIMagnitude(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseSIMagnitude(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseSIMagnitudeError(t *testing.T) {
	if _, err := ParseSIMagnitude(""); err == nil {
		t.Error("expected error on empty input")
	}
	if _, err := ParseSIMagnitude("abc"); err == nil {
		t.Error("expected error on non-numeric input")
	}
}

func TestSpecLookupCaseInsensitive(t *testing.T) {
	c := &Component{Specifications: map[string]SpecValue{
		"Resistance": NewNumberSpec(10000),
	}}
	if _, ok := c.SpecLookup("resistance"); !ok {
		t.Error("expected case-insensitive lookup to find Resistance")
	}
	if _, ok := c.SpecLookup("RESISTANCE"); !ok {
		t.Error("expected case-insensitive lookup to find Resistance")
	}
	if _, ok := c.SpecLookup("tolerance"); ok {
		t.Error("expected lookup miss for unknown key")
	}
}

func TestParseCategoryFallback(t *testing.T) {
	if ParseCategory("resistor") != CategoryResistor {
		t.Error("expected case-insensitive category match")
	}
	if ParseCategory("thingamajig") != CategoryOther {
		t.Error("expected unknown category to fall back to Other")
	}
}
