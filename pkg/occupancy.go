package laserball

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Channel types of the scan tables.
const (
	TypeBarrel     = 0
	TypeDichroicon = 1
)

// OccupancyRow is the number of prompt hits of one channel at one source
// position.
type OccupancyRow struct {
	ID     int     `json:"id"`
	LCN    int     `json:"lcn"`
	Type   int     `json:"type"`
	ZPos   float64 `json:"zpos"`
	Degree int     `json:"degree"`
	NHits  int64   `json:"nhits"`
}

// OccupancyRows turns a histogram of channel ids with unit bins into one
// row per channel with at least one hit, ordered by id. Every non-empty bin
// center must be a channel id of g.
func OccupancyRows(h *Histogram, g *Geometry, zpos float64, degree int) ([]OccupancyRow, error) {
	centers := h.Centers()
	var rows []OccupancyRow
	for i, n := range h.Counts {
		if n == 0 {
			continue
		}
		id, err := channelKey("channel id", centers[i])
		if err != nil {
			return nil, err
		}
		idx, err := g.Index(id)
		if err != nil {
			return nil, err
		}
		ch := g.Channel(idx)
		rows = append(rows, OccupancyRow{
			ID:     ch.ID,
			LCN:    ch.LCN,
			Type:   ch.Type,
			ZPos:   zpos,
			Degree: degree,
			NHits:  n,
		})
	}
	return rows, nil
}

type groupKey struct {
	Type   int
	ZPos   float64
	Degree int
}

func meanByGroup(rows []OccupancyRow) map[groupKey]float64 {
	sums := make(map[groupKey][]float64)
	for _, r := range rows {
		k := groupKey{r.Type, r.ZPos, r.Degree}
		sums[k] = append(sums[k], float64(r.NHits))
	}
	means := make(map[groupKey]float64, len(sums))
	for k, v := range sums {
		means[k] = stat.Mean(v, nil)
	}
	return means
}

// OnlineMask flags the rows whose hit count exceeds fraction times the mean
// of their (type, zpos, degree) group.
func OnlineMask(rows []OccupancyRow, fraction float64) []bool {
	means := meanByGroup(rows)
	mask := make([]bool, len(rows))
	for i, r := range rows {
		mask[i] = float64(r.NHits) > fraction*means[groupKey{r.Type, r.ZPos, r.Degree}]
	}
	return mask
}

func FilterRows(rows []OccupancyRow, mask []bool) ([]OccupancyRow, error) {
	if len(mask) != len(rows) {
		return nil, &DataMismatchError{What: "row mask length", Expected: len(rows), Got: len(mask)}
	}
	var out []OccupancyRow
	for i, keep := range mask {
		if keep {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

type RatioPoint struct {
	ZPos  float64
	Ratio float64
}

type RatioSeries struct {
	Label  string
	Degree int
	Points []RatioPoint
}

// NormalizedRatio returns, for each degree, the mean hits of numType over
// the mean hits of denType at every z position where both are present.
// Series are ordered by degree and points by z position.
func NormalizedRatio(rows []OccupancyRow, numType, denType int) []RatioSeries {
	means := meanByGroup(rows)

	byDegree := make(map[int]map[float64]struct{})
	for k := range means {
		if byDegree[k.Degree] == nil {
			byDegree[k.Degree] = make(map[float64]struct{})
		}
		byDegree[k.Degree][k.ZPos] = struct{}{}
	}

	var series []RatioSeries
	for degree, zs := range byDegree {
		s := RatioSeries{Label: DegreeLabel(degree), Degree: degree}
		for z := range zs {
			num, ok1 := means[groupKey{numType, z, degree}]
			den, ok2 := means[groupKey{denType, z, degree}]
			if !ok1 || !ok2 {
				continue
			}
			s.Points = append(s.Points, RatioPoint{ZPos: z, Ratio: num / den})
		}
		if len(s.Points) == 0 {
			continue
		}
		slices.SortFunc(s.Points, func(a, b RatioPoint) int { return cmp.Compare(a.ZPos, b.ZPos) })
		series = append(series, s)
	}
	slices.SortFunc(series, func(a, b RatioSeries) int { return cmp.Compare(a.Degree, b.Degree) })
	return series
}

// BaselineDegree marks scans taken without the dichroic filter.
const BaselineDegree = -1

func DegreeLabel(degree int) string {
	if degree == BaselineDegree {
		return "no dichroic filter"
	}
	return fmt.Sprintf("%d deg", degree)
}

// MeanCounts averages the counts of h at the given bin positions, used to
// normalise a channel histogram by a reference group. Positions outside the
// histogram are an error.
func MeanCounts(h *Histogram, positions []int) (float64, error) {
	if len(positions) == 0 {
		return math.NaN(), nil
	}
	values := make([]float64, len(positions))
	for i, p := range positions {
		n, err := h.CountAt(float64(p))
		if err != nil {
			return 0, err
		}
		values[i] = float64(n)
	}
	return stat.Mean(values, nil), nil
}
