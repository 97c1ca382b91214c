package laserball

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// PromptCut keeps hits whose time-of-flight corrected time lies within
// Window of Offset:
//
//	|t - tof(id) - delay(id) - Offset| < Window
//
// When CrossingsField is set the hit must also have exactly one threshold
// crossing. Both conditions are combined with a logical AND.
type PromptCut struct {
	Geometry        *Geometry
	Source          r3.Vec
	RefractiveIndex float64
	Offset          float64
	Window          float64

	IDField        string
	TimeField      string
	CrossingsField string

	// ByLCN interprets IDField as logical channel numbers instead of
	// channel ids.
	ByLCN bool
	// CableDelays are indexed by logical channel number. Nil applies no
	// correction; otherwise every hit channel must have an entry.
	CableDelays []float64
}

func (c PromptCut) validate() error {
	switch {
	case c.Geometry == nil:
		return &ConfigurationError{Param: "prompt cut", Reason: "no geometry"}
	case c.IDField == "" || c.TimeField == "":
		return &ConfigurationError{Param: "prompt cut", Reason: "id and time fields are required"}
	case !(c.Window > 0):
		return &ConfigurationError{Param: "prompt cut", Reason: fmt.Sprintf("window must be positive, got %v", c.Window)}
	case !(c.RefractiveIndex > 0):
		return &ConfigurationError{Param: "prompt cut", Reason: fmt.Sprintf("refractive index must be positive, got %v", c.RefractiveIndex)}
	}
	return nil
}

// Fields lists the fields the cut reads.
func (c PromptCut) Fields() []string {
	fields := []string{c.IDField, c.TimeField}
	if c.CrossingsField != "" {
		fields = append(fields, c.CrossingsField)
	}
	return fields
}

// Func builds the cut. Time of flight is computed once per channel.
func (c PromptCut) Func() (CutFunc, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	tof := c.Geometry.TimeOfFlight(c.Source, c.RefractiveIndex)

	return func(batch *EventBatch) (Mask, error) {
		ids, err := batch.Field(c.IDField)
		if err != nil {
			return Mask{}, err
		}
		times, err := batch.Field(c.TimeField)
		if err != nil {
			return Mask{}, err
		}
		var crossings Jagged
		if c.CrossingsField != "" {
			if crossings, err = batch.Field(c.CrossingsField); err != nil {
				return Mask{}, err
			}
		}

		keep := make([][]bool, len(ids))
		for i, ev := range ids {
			if len(times[i]) != len(ev) {
				return Mask{}, &DataMismatchError{What: fmt.Sprintf("%s length", c.TimeField), Expected: len(ev), Got: len(times[i]), Entry: batch.Entry + int64(i)}
			}
			if crossings != nil && len(crossings[i]) != len(ev) {
				return Mask{}, &DataMismatchError{What: fmt.Sprintf("%s length", c.CrossingsField), Expected: len(ev), Got: len(crossings[i]), Entry: batch.Entry + int64(i)}
			}
			keep[i] = make([]bool, len(ev))
			for j, v := range ev {
				row, lcn, err := c.lookup(v)
				if err != nil {
					return Mask{}, err
				}
				delay, err := c.delay(lcn)
				if err != nil {
					return Mask{}, err
				}
				t := times[i][j] - tof[row] - delay - c.Offset
				single := crossings == nil || crossings[i][j] == 1
				keep[i][j] = single && math.Abs(t) < c.Window
			}
		}
		return HitMask(keep), nil
	}, nil
}

func (c PromptCut) lookup(v float64) (row int, lcn int, err error) {
	if c.ByLCN {
		if lcn, err = channelKey("logical channel", v); err != nil {
			return 0, 0, err
		}
		row, err = c.Geometry.LCNIndex(lcn)
		return row, lcn, err
	}
	id, err := channelKey("channel id", v)
	if err != nil {
		return 0, 0, err
	}
	if row, err = c.Geometry.Index(id); err != nil {
		return 0, 0, err
	}
	return row, c.Geometry.Channel(row).LCN, nil
}

func (c PromptCut) delay(lcn int) (float64, error) {
	if c.CableDelays == nil {
		return 0, nil
	}
	if lcn < 0 || lcn >= len(c.CableDelays) {
		return 0, &LookupError{Kind: "cable delay for logical channel", Key: float64(lcn)}
	}
	return c.CableDelays[lcn], nil
}

// TimeWindow keeps hits of field with min < t < max.
func TimeWindow(field string, minT, maxT float64) CutFunc {
	return func(batch *EventBatch) (Mask, error) {
		times, err := batch.Field(field)
		if err != nil {
			return Mask{}, err
		}
		keep := make([][]bool, len(times))
		for i, ev := range times {
			keep[i] = make([]bool, len(ev))
			for j, t := range ev {
				keep[i][j] = t > minT && t < maxT
			}
		}
		return HitMask(keep), nil
	}
}
