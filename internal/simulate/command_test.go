package simulate

import "testing"

func TestAnalysisCommandRendersEachKind(t *testing.T) {
	tmax := 1e-6
	tests := []struct {
		name string
		req  RunRequest
		want string
	}{
		{"op", RunRequest{Kind: OperatingPoint}, ".op"},
		{"dc", RunRequest{Kind: DC, DC: &DCParams{Source: "V1", Start: 0, Stop: 5, Step: 1}}, ".dc V1 0 5 1"},
		{"ac", RunRequest{Kind: AC, AC: &ACParams{Sweep: SweepDecade, Points: 10, FStart: 1, FStop: 1e6}}, ".ac dec 10 1 1e+06"},
		{"tran", RunRequest{Kind: Transient, Transient: &TransientParams{TStep: 1e-6, TStop: 1e-3, TMax: &tmax}}, ".tran 1e-06 0.001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := analysisCommand(tt.req)
			if err != nil {
				t.Fatalf("analysisCommand: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalysisCommandMissingParamsIsError(t *testing.T) {
	if _, err := analysisCommand(RunRequest{Kind: DC}); err == nil {
		t.Error("expected an error for DC analysis with nil DCParams")
	}
}

func TestSweepVectorNameByKind(t *testing.T) {
	if got := sweepVectorName(RunRequest{Kind: DC, DC: &DCParams{Source: "V1"}}); got != "V1" {
		t.Errorf("DC sweep name = %q, want V1", got)
	}
	if got := sweepVectorName(RunRequest{Kind: AC}); got != "frequency" {
		t.Errorf("AC sweep name = %q, want frequency", got)
	}
	if got := sweepVectorName(RunRequest{Kind: Transient}); got != "time" {
		t.Errorf("Transient sweep name = %q, want time", got)
	}
}
