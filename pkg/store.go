package laserball

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ResultsExt is the extension of result store files.
const ResultsExt = ".msgpack.zst"

// MCEntry is the aggregated channel histogram of one simulated
// wavelength at one source position.
type MCEntry struct {
	ZPos       float64 `msgpack:"zpos"`
	Wavelength int     `msgpack:"wavelength"`
	NHits      []int64 `msgpack:"nhits"`
	// Norm is the mean hit count of the bottom 8 inch channels.
	Norm float64 `msgpack:"norm"`
}

type MCResults struct {
	Index   int       `msgpack:"index"`
	Edges   []float64 `msgpack:"edges"`
	Entries []MCEntry `msgpack:"entries"`
}

// Lookup returns the entry for a position and wavelength.
func (r *MCResults) Lookup(zpos float64, wavelength int) (MCEntry, bool) {
	for _, e := range r.Entries {
		if e.ZPos == zpos && e.Wavelength == wavelength {
			return e, true
		}
	}
	return MCEntry{}, false
}

// WriteResults encodes v with msgpack into a zstd stream.
func WriteResults(w io.Writer, v any) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(enc).Encode(v); err != nil {
		enc.Close()
		return fmt.Errorf("error encoding results: %w", err)
	}
	return enc.Close()
}

func ReadResults(r io.Reader, v any) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()
	if err := msgpack.NewDecoder(dec).Decode(v); err != nil {
		return fmt.Errorf("error decoding results: %w", err)
	}
	return nil
}

func SaveResults(fname string, v any) error {
	f, err := os.Create(fname)
	if err != nil {
		return &ErrOpenFile{Filename: fname, Err: err}
	}
	return errors.Join(WriteResults(f, v), f.Close())
}

func LoadResults(fname string, v any) error {
	f, err := os.Open(fname)
	if err != nil {
		return &ErrOpenFile{Filename: fname, Err: err}
	}
	defer f.Close()
	return ReadResults(f, v)
}
