package laserball

import "fmt"

// Mask selects data from a per-event array before it is flattened. It is
// either an event mask, one flag per event, or a hit mask, one flag per
// element of every event.
type Mask struct {
	events []bool
	hits   [][]bool
}

func EventMask(keep []bool) Mask {
	if keep == nil {
		keep = []bool{}
	}
	return Mask{events: keep}
}

func HitMask(keep [][]bool) Mask {
	if keep == nil {
		keep = [][]bool{}
	}
	return Mask{hits: keep}
}

func (m Mask) IsZero() bool {
	return m.events == nil && m.hits == nil
}

// Apply filters target. Any length disagreement is a DataMismatchError.
func (m Mask) Apply(target Jagged, entry int64) (Jagged, error) {
	switch {
	case m.events != nil:
		if len(m.events) != len(target) {
			return nil, &DataMismatchError{What: "event mask length", Expected: len(target), Got: len(m.events), Entry: entry}
		}
		out := make(Jagged, 0, len(target))
		for i, keep := range m.events {
			if keep {
				out = append(out, target[i])
			}
		}
		return out, nil
	case m.hits != nil:
		if len(m.hits) != len(target) {
			return nil, &DataMismatchError{What: "hit mask event count", Expected: len(target), Got: len(m.hits), Entry: entry}
		}
		out := make(Jagged, len(target))
		for i, ev := range target {
			if len(m.hits[i]) != len(ev) {
				return nil, &DataMismatchError{
					What:     fmt.Sprintf("hit mask length of event %d", i),
					Expected: len(ev),
					Got:      len(m.hits[i]),
					Entry:    entry + int64(i),
				}
			}
			kept := make([]float64, 0, len(ev))
			for j, v := range ev {
				if m.hits[i][j] {
					kept = append(kept, v)
				}
			}
			out[i] = kept
		}
		return out, nil
	}
	if len(target) == 0 {
		return target, nil
	}
	return nil, &DataMismatchError{What: "cut returned an empty mask", Expected: len(target), Got: 0, Entry: entry}
}
