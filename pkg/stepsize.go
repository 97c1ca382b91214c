package laserball

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const DefaultStepSize = "100 MB"

// StepSize bounds a batch either by a number of entries or by an
// approximate number of bytes.
type StepSize struct {
	Entries int64
	Bytes   int64
}

// ParseStepSize accepts a plain entry count ("5000") or a byte size
// ("100 MB", "1GiB"). An empty string selects DefaultStepSize.
func ParseStepSize(s string) (StepSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultStepSize
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return StepSize{}, &ConfigurationError{Param: "step_size", Reason: fmt.Sprintf("entry count must be positive, got %d", n)}
		}
		return StepSize{Entries: n}, nil
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return StepSize{}, &ConfigurationError{Param: "step_size", Reason: err.Error()}
	}
	if b == 0 {
		return StepSize{}, &ConfigurationError{Param: "step_size", Reason: "byte size must be positive"}
	}
	if b > math.MaxInt64 {
		return StepSize{}, &ConfigurationError{Param: "step_size", Reason: fmt.Sprintf("byte size %s is too large", s)}
	}
	return StepSize{Bytes: int64(b)}, nil
}

func (s StepSize) IsZero() bool {
	return s.Entries <= 0 && s.Bytes <= 0
}

// EntriesFor converts the step to a number of entries given the estimated
// size of one entry. The result is at least 1.
func (s StepSize) EntriesFor(bytesPerEntry int64) int64 {
	if s.Entries > 0 {
		return s.Entries
	}
	if bytesPerEntry <= 0 {
		bytesPerEntry = 1
	}
	n := s.Bytes / bytesPerEntry
	if n < 1 {
		n = 1
	}
	return n
}

func (s StepSize) String() string {
	if s.Entries > 0 {
		return fmt.Sprintf("%d entries", s.Entries)
	}
	return humanize.Bytes(uint64(s.Bytes))
}
