package laserball

import (
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"
)

// Histogram holds integer bin counts over fixed edges. Bins are half open
// [e_i, e_i+1) except the last one, which also contains its upper edge.
// Values outside the edges and NaNs are not counted.
type Histogram struct {
	Counts []int64
	Edges  []float64
}

func NewHistogram(edges []float64) (*Histogram, error) {
	if err := validateEdges(edges); err != nil {
		return nil, err
	}
	e := make([]float64, len(edges))
	copy(e, edges)
	return &Histogram{
		Counts: make([]int64, len(edges)-1),
		Edges:  e,
	}, nil
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 {
		return &ConfigurationError{
			Param:  "bins",
			Reason: fmt.Sprintf("at least 2 edges are needed, got %d", len(edges)),
		}
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return &ConfigurationError{Param: "bins", Reason: fmt.Sprintf("edge %d is not finite", i)}
		}
		if i > 0 && e <= edges[i-1] {
			return &ConfigurationError{
				Param:  "bins",
				Reason: fmt.Sprintf("edges are not strictly increasing at index %d (%v <= %v)", i, e, edges[i-1]),
			}
		}
	}
	return nil
}

func (h *Histogram) NBins() int {
	return len(h.Counts)
}

// Bin returns the index of the bin containing x, or -1.
func (h *Histogram) Bin(x float64) int {
	n := len(h.Edges)
	if math.IsNaN(x) || x < h.Edges[0] || x > h.Edges[n-1] {
		return -1
	}
	if x == h.Edges[n-1] {
		return n - 2
	}
	return sort.Search(n, func(i int) bool { return h.Edges[i] > x }) - 1
}

func (h *Histogram) Fill(values []float64) {
	for _, v := range values {
		if i := h.Bin(v); i >= 0 {
			h.Counts[i]++
		}
	}
}

// SameEdges compares edges bit for bit.
func (h *Histogram) SameEdges(other *Histogram) bool {
	if len(h.Edges) != len(other.Edges) {
		return false
	}
	for i := range h.Edges {
		if math.Float64bits(h.Edges[i]) != math.Float64bits(other.Edges[i]) {
			return false
		}
	}
	return true
}

// Merge adds the counts of other into h. Histograms with different edges
// are never merged.
func (h *Histogram) Merge(other *Histogram) error {
	if !h.SameEdges(other) {
		return &DataMismatchError{What: fmt.Sprintf("histogram bin edges differ: %v vs %v", h.Edges, other.Edges)}
	}
	for i, c := range other.Counts {
		h.Counts[i] += c
	}
	return nil
}

func (h *Histogram) Entries() int64 {
	var total int64
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// CountAt returns the count of the bin containing x.
func (h *Histogram) CountAt(x float64) (int64, error) {
	i := h.Bin(x)
	if i < 0 {
		return 0, &LookupError{Kind: "histogram bin", Key: x}
	}
	return h.Counts[i], nil
}

func (h *Histogram) Centers() []float64 {
	centers := make([]float64, len(h.Counts))
	for i := range centers {
		centers[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return centers
}

func (h *Histogram) Clone() *Histogram {
	c := &Histogram{
		Counts: make([]int64, len(h.Counts)),
		Edges:  make([]float64, len(h.Edges)),
	}
	copy(c.Counts, h.Counts)
	copy(c.Edges, h.Edges)
	return c
}

// H1D converts the histogram to an hbook histogram for plotting and
// persistence. Each bin is filled once at its center with its count as
// weight.
func (h *Histogram) H1D() *hbook.H1D {
	hh := hbook.NewH1DFromEdges(h.Edges)
	for i, x := range h.Centers() {
		if h.Counts[i] == 0 {
			continue
		}
		hh.Fill(x, float64(h.Counts[i]))
	}
	return hh
}
