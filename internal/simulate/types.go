package simulate

// AnalysisKind is one of the four analyses spec.md §4.8 supports.
type AnalysisKind string

const (
	OperatingPoint AnalysisKind = "OperatingPoint"
	DC             AnalysisKind = "DC"
	AC             AnalysisKind = "AC"
	Transient      AnalysisKind = "Transient"
)

// SweepKind is an AC sweep's point distribution.
type SweepKind string

const (
	SweepDecade SweepKind = "dec"
	SweepOctave SweepKind = "oct"
	SweepLinear SweepKind = "lin"
)

// DCParams parameterizes a DC sweep: step source from Start to Stop in
// increments of Step.
type DCParams struct {
	Source string
	Start  float64
	Stop   float64
	Step   float64
}

// ACParams parameterizes an AC sweep.
type ACParams struct {
	Sweep  SweepKind
	Points int
	FStart float64
	FStop  float64
}

// TransientParams parameterizes a transient analysis. TStart and TMax are
// optional (nil means "let the engine choose").
type TransientParams struct {
	TStep  float64
	TStop  float64
	TStart *float64
	TMax   *float64
}

// RunRequest selects an analysis kind and carries its parameters. Exactly
// one of the pointer fields is populated, matching Kind; OperatingPoint
// takes no params.
type RunRequest struct {
	Kind      AnalysisKind
	DC        *DCParams
	AC        *ACParams
	Transient *TransientParams
}

// Result is a simulation's extracted output vectors, each copied into an
// owned Go slice before Run returns (spec.md §4.8 memory discipline).
type Result struct {
	NodeVoltages   map[string][]float64
	BranchCurrents map[string][]float64
	TimeOrFreq     []float64
}
