package output

import (
	"bytes"
	"testing"
)

type cellFixture struct {
	Row     string  `json:"row"`
	Col     string  `json:"col"`
	Intent  float64 `json:"intentValue"`
	Reality float64 `json:"realityValue"`
	Drift   float64 `json:"driftUnits"`
	Notes   string  `json:"notes,omitempty"`
}

func TestDeterministicEncodeRepeatable(t *testing.T) {
	v := map[string]interface{}{
		"cells": []cellFixture{
			{Row: "A", Col: "B", Intent: 1.2345678, Reality: 0.1, Drift: 1.2857142857},
			{Row: "B", Col: "A", Intent: 0.5, Reality: 0.5, Drift: 0},
		},
		"total": 42.0,
	}

	first, err := DeterministicEncode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	for i := 0; i < 10; i++ {
		next, err := DeterministicEncode(v)
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, next)
		}
	}
}

func TestDeterministicEncodeOmitsNil(t *testing.T) {
	type payload struct {
		Name  string   `json:"name"`
		Empty []string `json:"empty"`
	}

	data, err := DeterministicEncode(payload{Name: "taxonomy"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bytes.Contains(data, []byte("empty")) {
		t.Errorf("nil slice should be omitted: %s", data)
	}
}

func TestDeterministicEncodeRoundsFloats(t *testing.T) {
	data, err := DeterministicEncode(map[string]interface{}{"x": 0.123456789})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Contains(data, []byte("0.123457")) {
		t.Errorf("float not rounded to 6 places: %s", data)
	}
}

func TestOmitEmptyTag(t *testing.T) {
	data, err := DeterministicEncode(cellFixture{Row: "A", Col: "A"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bytes.Contains(data, []byte("notes")) {
		t.Errorf("omitempty field should be dropped: %s", data)
	}
}
