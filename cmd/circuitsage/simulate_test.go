package main

import (
	"testing"

	"github.com/kallenvale/circuitsage/internal/simulate"
)

func TestBuildRunRequestOperatingPoint(t *testing.T) {
	req, err := buildRunRequest("op", "", 0, 0, 0, "dec", 10, 1, 1e6, 1e-6, 1e-3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != simulate.OperatingPoint {
		t.Errorf("want OperatingPoint, got %s", req.Kind)
	}
	if req.DC != nil || req.AC != nil || req.Transient != nil {
		t.Errorf("operating point request should carry no analysis params, got %+v", req)
	}
}

func TestBuildRunRequestDCRequiresSource(t *testing.T) {
	_, err := buildRunRequest("dc", "", 0, 5, 0.1, "dec", 10, 1, 1e6, 1e-6, 1e-3)
	if err == nil {
		t.Fatal("expected an error when --dc-source is missing")
	}
}

func TestBuildRunRequestDC(t *testing.T) {
	req, err := buildRunRequest("dc", "V1", 0, 5, 0.5, "dec", 10, 1, 1e6, 1e-6, 1e-3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != simulate.DC || req.DC == nil {
		t.Fatalf("expected a populated DC request, got %+v", req)
	}
	if req.DC.Source != "V1" || req.DC.Stop != 5 || req.DC.Step != 0.5 {
		t.Errorf("unexpected DC params: %+v", req.DC)
	}
}

func TestBuildRunRequestAC(t *testing.T) {
	req, err := buildRunRequest("ac", "", 0, 0, 0, "oct", 20, 10, 1e5, 1e-6, 1e-3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != simulate.AC || req.AC == nil {
		t.Fatalf("expected a populated AC request, got %+v", req)
	}
	if req.AC.Sweep != simulate.SweepOctave || req.AC.Points != 20 {
		t.Errorf("unexpected AC params: %+v", req.AC)
	}
}

func TestBuildRunRequestTransient(t *testing.T) {
	req, err := buildRunRequest("tran", "", 0, 0, 0, "dec", 10, 1, 1e6, 1e-9, 2e-3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != simulate.Transient || req.Transient == nil {
		t.Fatalf("expected a populated transient request, got %+v", req)
	}
	if req.Transient.TStep != 1e-9 || req.Transient.TStop != 2e-3 {
		t.Errorf("unexpected transient params: %+v", req.Transient)
	}
}

func TestBuildRunRequestUnknownKind(t *testing.T) {
	_, err := buildRunRequest("bogus", "", 0, 0, 0, "dec", 10, 1, 1e6, 1e-6, 1e-3)
	if err == nil {
		t.Fatal("expected an error for an unrecognized analysis kind")
	}
}
