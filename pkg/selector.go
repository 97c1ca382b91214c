package laserball

import "fmt"

// TargetSelector picks the per-event array to histogram, either by field
// name or with a function of the batch. Build it with ByFieldName or
// ByFunction; the zero value is invalid.
type TargetSelector struct {
	field string
	fn    func(*EventBatch) (Jagged, error)
}

func ByFieldName(name string) TargetSelector {
	return TargetSelector{field: name}
}

func ByFunction(fn func(*EventBatch) (Jagged, error)) TargetSelector {
	return TargetSelector{fn: fn}
}

func (s TargetSelector) validate() error {
	switch {
	case s.field != "" && s.fn != nil:
		return &ConfigurationError{Param: "target", Reason: "both a field name and a function are set"}
	case s.field == "" && s.fn == nil:
		return &ConfigurationError{Param: "target", Reason: "neither a field name nor a function is set"}
	}
	return nil
}

// FieldName returns the selected field, or "" for function selectors.
func (s TargetSelector) FieldName() string {
	return s.field
}

func (s TargetSelector) Select(batch *EventBatch) (Jagged, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.fn != nil {
		return s.fn(batch)
	}
	return batch.Field(s.field)
}

func (s TargetSelector) String() string {
	if s.fn != nil {
		return "func"
	}
	return fmt.Sprintf("field(%s)", s.field)
}
