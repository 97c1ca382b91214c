package laserball

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BinParams configures the binning of one aggregation. Exactly one of the
// fields must be set.
type BinParams struct {
	Edges   []float64
	Arange  *Arange
	Uniform *Uniform
}

// Arange generates edges start, start+step, ... excluding stop, like
// numpy.arange.
type Arange struct {
	Start float64
	Stop  float64
	Step  float64
}

// MaxBinEdges bounds generated binnings so a mistyped step fails as a
// configuration error instead of exhausting memory.
const MaxBinEdges = 1 << 24

// Uniform generates N equal-width bins between Min and Max.
type Uniform struct {
	N   int
	Min float64
	Max float64
}

// ChannelBins returns unit-width bins centered on the integers 0..maxChannel.
func ChannelBins(maxChannel int) BinParams {
	return BinParams{Arange: &Arange{Start: -0.5, Stop: float64(maxChannel) + 1, Step: 1}}
}

// BinEdges validates the parameters and returns the edges.
func (b BinParams) BinEdges() ([]float64, error) {
	set := 0
	if b.Edges != nil {
		set++
	}
	if b.Arange != nil {
		set++
	}
	if b.Uniform != nil {
		set++
	}
	if set != 1 {
		return nil, &ConfigurationError{
			Param:  "bins",
			Reason: fmt.Sprintf("exactly one of edges, arange or uniform must be set, got %d", set),
		}
	}

	var edges []float64
	switch {
	case b.Edges != nil:
		edges = b.Edges
	case b.Arange != nil:
		var err error
		edges, err = b.Arange.edges()
		if err != nil {
			return nil, err
		}
	case b.Uniform != nil:
		var err error
		edges, err = b.Uniform.edges()
		if err != nil {
			return nil, err
		}
	}
	if err := validateEdges(edges); err != nil {
		return nil, err
	}
	out := make([]float64, len(edges))
	copy(out, edges)
	return out, nil
}

func (a *Arange) edges() ([]float64, error) {
	if a.Step <= 0 || math.IsNaN(a.Step) || math.IsInf(a.Step, 0) {
		return nil, &ConfigurationError{Param: "bins", Reason: fmt.Sprintf("arange step must be positive, got %v", a.Step)}
	}
	span := math.Ceil((a.Stop - a.Start) / a.Step)
	if math.IsNaN(span) || math.IsInf(span, 0) || span > MaxBinEdges {
		return nil, &ConfigurationError{
			Param:  "bins",
			Reason: fmt.Sprintf("arange(%v, %v, %v) yields more than %d edges", a.Start, a.Stop, a.Step, MaxBinEdges),
		}
	}
	n := int(span)
	if n < 2 {
		return nil, &ConfigurationError{
			Param:  "bins",
			Reason: fmt.Sprintf("arange(%v, %v, %v) yields %d edges", a.Start, a.Stop, a.Step, max(n, 0)),
		}
	}
	edges := make([]float64, n)
	for i := range edges {
		edges[i] = a.Start + float64(i)*a.Step
	}
	return edges, nil
}

func (u *Uniform) edges() ([]float64, error) {
	if u.N < 1 {
		return nil, &ConfigurationError{Param: "bins", Reason: fmt.Sprintf("uniform binning needs at least one bin, got %d", u.N)}
	}
	if u.N >= MaxBinEdges {
		return nil, &ConfigurationError{Param: "bins", Reason: fmt.Sprintf("uniform binning with %d bins exceeds %d edges", u.N, MaxBinEdges)}
	}
	if !(u.Max > u.Min) {
		return nil, &ConfigurationError{Param: "bins", Reason: fmt.Sprintf("uniform range [%v, %v] is empty", u.Min, u.Max)}
	}
	return floats.Span(make([]float64, u.N+1), u.Min, u.Max), nil
}
