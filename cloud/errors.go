package cloud

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCloud is returned when a cloud with no points reaches an
	// index or the metric.
	ErrEmptyCloud = errors.New("point cloud is empty")

	// ErrStaleIndex is returned when an index was not built from the cloud
	// it is being queried for.
	ErrStaleIndex = errors.New("spatial index does not match cloud")

	// ErrConfiguration matches every *ConfigurationError via errors.Is
	ErrConfiguration = errors.New("invalid configuration")
)

// ConfigurationError reports an unknown mode or an out-of-range option
type ConfigurationError struct {
	Option string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Option, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Option, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
