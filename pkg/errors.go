package laserball

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// ConfigurationError reports invalid aggregation parameters: bad binning,
// an ambiguous target selector, a malformed step size. It is raised before
// any data is read whenever possible.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Param, e.Reason)
}

// DataMismatchError reports data that disagrees with itself while
// aggregating: a cut mask that does not line up with the target array, or
// histograms with different bin edges. It always aborts the aggregation.
type DataMismatchError struct {
	What     string
	Expected int
	Got      int
	Entry    int64
}

func (e *DataMismatchError) Error() string {
	if e.Expected == 0 && e.Got == 0 {
		return fmt.Sprintf("data mismatch at entry %d: %s", e.Entry, e.What)
	}
	return fmt.Sprintf("data mismatch at entry %d: %s (expected %d, got %d)", e.Entry, e.What, e.Expected, e.Got)
}

// LookupError reports a channel identifier missing from the geometry table.
type LookupError struct {
	Kind string
	Key  float64
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup error: unknown %s %v", e.Kind, e.Key)
}
