package laserball

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// SpeedOfLight in vacuum, in mm/ns.
const SpeedOfLight = 299.792458

const DefaultRefractiveIndex = 1.34

// Channel is one photodetector of the detector.
type Channel struct {
	ID        int
	LCN       int
	Type      int
	Position  r3.Vec
	Direction r3.Vec
}

// Geometry is the read-only channel table. It is loaded once and shared by
// every aggregation; none of its methods mutate it.
type Geometry struct {
	channels []Channel
	byID     map[int]int
	byLCN    map[int]int
}

func NewGeometry(channels []Channel) (*Geometry, error) {
	g := &Geometry{
		channels: make([]Channel, len(channels)),
		byID:     make(map[int]int, len(channels)),
		byLCN:    make(map[int]int, len(channels)),
	}
	copy(g.channels, channels)
	for i, ch := range g.channels {
		if _, ok := g.byID[ch.ID]; ok {
			return nil, fmt.Errorf("duplicated channel id %d", ch.ID)
		}
		g.byID[ch.ID] = i
		if _, ok := g.byLCN[ch.LCN]; !ok {
			g.byLCN[ch.LCN] = i
		}
	}
	return g, nil
}

func (g *Geometry) Len() int {
	return len(g.channels)
}

func (g *Geometry) Channel(i int) Channel {
	return g.channels[i]
}

func (g *Geometry) Channels() []Channel {
	out := make([]Channel, len(g.channels))
	copy(out, g.channels)
	return out
}

// Index returns the row of the channel with the given id.
func (g *Geometry) Index(id int) (int, error) {
	i, ok := g.byID[id]
	if !ok {
		return 0, &LookupError{Kind: "channel id", Key: float64(id)}
	}
	return i, nil
}

// LCNIndex returns the row of the first channel with the given LCN.
func (g *Geometry) LCNIndex(lcn int) (int, error) {
	i, ok := g.byLCN[lcn]
	if !ok {
		return 0, &LookupError{Kind: "logical channel", Key: float64(lcn)}
	}
	return i, nil
}

func (g *Geometry) IDToLCN(id int) (int, error) {
	i, err := g.Index(id)
	if err != nil {
		return 0, err
	}
	return g.channels[i].LCN, nil
}

func (g *Geometry) LCNToID(lcn int) (int, error) {
	i, err := g.LCNIndex(lcn)
	if err != nil {
		return 0, err
	}
	return g.channels[i].ID, nil
}

func (g *Geometry) LCNsByType(channelType int) []int {
	var lcns []int
	for _, ch := range g.channels {
		if ch.Type == channelType {
			lcns = append(lcns, ch.LCN)
		}
	}
	return lcns
}

func (g *Geometry) MaxLCN() int {
	maxLCN := -1
	for _, ch := range g.channels {
		maxLCN = max(maxLCN, ch.LCN)
	}
	return maxLCN
}

func (g *Geometry) MaxID() int {
	maxID := -1
	for _, ch := range g.channels {
		maxID = max(maxID, ch.ID)
	}
	return maxID
}

// MeanZ is the mean z position of the channels of a type, NaN if none.
func (g *Geometry) MeanZ(channelType int) float64 {
	var z []float64
	for _, ch := range g.channels {
		if ch.Type == channelType {
			z = append(z, ch.Position.Z)
		}
	}
	if len(z) == 0 {
		return math.NaN()
	}
	return stat.Mean(z, nil)
}

// TimeOfFlight returns the light travel time in ns from source to every
// channel, in row order, for a medium of the given refractive index.
func (g *Geometry) TimeOfFlight(source r3.Vec, refractiveIndex float64) []float64 {
	v := SpeedOfLight / refractiveIndex
	tof := make([]float64, len(g.channels))
	for i, ch := range g.channels {
		tof[i] = r3.Norm(r3.Sub(ch.Position, source)) / v
	}
	return tof
}

func (g *Geometry) TimeOfFlightByID(id int, source r3.Vec, refractiveIndex float64) (float64, error) {
	i, err := g.Index(id)
	if err != nil {
		return 0, err
	}
	return r3.Norm(r3.Sub(g.channels[i].Position, source)) / (SpeedOfLight / refractiveIndex), nil
}

// channelKey converts a stored identifier to an int. Non-integral values
// are never valid identifiers.
func channelKey(kind string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, &LookupError{Kind: kind, Key: v}
	}
	return int(v), nil
}

// LCNTransform maps raw channel ids to logical channel numbers. Unknown
// ids fail with a LookupError.
func (g *Geometry) LCNTransform() Transform {
	return func(values []float64) ([]float64, error) {
		out := make([]float64, len(values))
		for i, v := range values {
			id, err := channelKey("channel id", v)
			if err != nil {
				return nil, err
			}
			lcn, err := g.IDToLCN(id)
			if err != nil {
				return nil, err
			}
			out[i] = float64(lcn)
		}
		return out, nil
	}
}
