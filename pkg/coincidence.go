package laserball

import (
	"context"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Dichroicon channels occupy board 7, 16 channels per board.
const channelsPerBoard = 16

func IsDichroicon(lcn int) bool {
	return lcn/channelsPerBoard == 7
}

func IsBarrel(lcn int) bool {
	board := lcn / channelsPerBoard
	return board < 7 || (board >= 8 && board <= 10)
}

type CoincidenceOptions struct {
	Geometry        *Geometry
	Source          r3.Vec
	RefractiveIndex float64
	LCNField        string
	TimeField       string
	// Hits are kept when PromptMin < t < PromptMax after cable delay and
	// time of flight corrections.
	PromptMin float64
	PromptMax float64
	// CableDelays must cover every logical channel of Geometry.
	CableDelays []float64
	BadChannels []int
	// RateCut is the minimum coincidence rate for a channel to enter the
	// light yield means.
	RateCut    float64
	StepSize   StepSize
	NumWorkers int
	Progress   ProgressSink
}

type CoincidenceResult struct {
	LCNs   []int
	Hits   []int64
	Rates  []float64
	Events int64

	DichroiconRate     float64
	BarrelRate         float64
	RelativeLightYield float64
}

type eventCounter struct {
	ProgressSink
	events int64
}

func (c *eventCounter) Update(events int) {
	c.events += int64(events)
	c.ProgressSink.Update(events)
}

// Coincidence computes the per-channel coincidence rate of one laserball
// run and the dichroicon light yield relative to the barrel.
func Coincidence(ctx context.Context, source Source, opts CoincidenceOptions) (*CoincidenceResult, error) {
	if opts.Geometry == nil {
		return nil, &ConfigurationError{Param: "coincidence", Reason: "no geometry"}
	}
	if !(opts.PromptMax > opts.PromptMin) {
		return nil, &ConfigurationError{Param: "coincidence", Reason: fmt.Sprintf("empty prompt window [%v, %v]", opts.PromptMin, opts.PromptMax)}
	}
	if len(opts.CableDelays) <= opts.Geometry.MaxLCN() {
		return nil, &ConfigurationError{
			Param:  "cable_delays",
			Reason: fmt.Sprintf("%d cable delays do not cover logical channels 0..%d", len(opts.CableDelays), opts.Geometry.MaxLCN()),
		}
	}
	if opts.LCNField == "" {
		opts.LCNField = "lcn"
	}
	if opts.TimeField == "" {
		opts.TimeField = "fitted_time"
	}
	if opts.RefractiveIndex == 0 {
		opts.RefractiveIndex = DefaultRefractiveIndex
	}

	cut, err := PromptCut{
		Geometry:        opts.Geometry,
		Source:          opts.Source,
		RefractiveIndex: opts.RefractiveIndex,
		Offset:          0.5 * (opts.PromptMax + opts.PromptMin),
		Window:          0.5 * (opts.PromptMax - opts.PromptMin),
		IDField:         opts.LCNField,
		TimeField:       opts.TimeField,
		ByLCN:           true,
		CableDelays:     opts.CableDelays,
	}.Func()
	if err != nil {
		return nil, err
	}

	progress := opts.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	counter := &eventCounter{ProgressSink: progress}

	maxLCN := opts.Geometry.MaxLCN()
	hist, err := Aggregate(ctx, source, AggregateOptions{
		Target:      ByFieldName(opts.LCNField),
		Expressions: []string{opts.LCNField, opts.TimeField},
		Bins:        ChannelBins(maxLCN),
		Cut:         cut,
		StepSize:    opts.StepSize,
		NumWorkers:  opts.NumWorkers,
		Progress:    counter,
	})
	if err != nil {
		return nil, err
	}

	res := &CoincidenceResult{
		LCNs:   make([]int, maxLCN+1),
		Hits:   make([]int64, maxLCN+1),
		Rates:  make([]float64, maxLCN+1),
		Events: counter.events,
	}
	var dichroicon, barrel []float64
	for lcn := range res.LCNs {
		res.LCNs[lcn] = lcn
		if !slices.Contains(opts.BadChannels, lcn) {
			res.Hits[lcn] = hist.Counts[lcn]
		}
		if res.Events > 0 {
			res.Rates[lcn] = float64(res.Hits[lcn]) / float64(res.Events)
		}
		if res.Rates[lcn] < opts.RateCut {
			continue
		}
		switch {
		case IsDichroicon(lcn):
			dichroicon = append(dichroicon, res.Rates[lcn])
		case IsBarrel(lcn):
			barrel = append(barrel, res.Rates[lcn])
		}
	}
	res.DichroiconRate, res.BarrelRate = math.NaN(), math.NaN()
	if len(dichroicon) > 0 {
		res.DichroiconRate = stat.Mean(dichroicon, nil)
	}
	if len(barrel) > 0 {
		res.BarrelRate = stat.Mean(barrel, nil)
	}
	res.RelativeLightYield = res.DichroiconRate / res.BarrelRate
	return res, nil
}
