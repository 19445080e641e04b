package importer

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/padraicbc/f1picks/openf1"
)

var (
	ErrRaceNotFound           = errors.New("race not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrImportInProgress       = errors.New("import already running for race")
	ErrUnmappedDrivers        = errors.New("unmapped drivers")
	ErrAmbiguousDriverMapping = errors.New("ambiguous driver mapping")

	ErrNoPositionData      = openf1.ErrNoPositionData
	ErrUpstreamUnavailable = openf1.ErrUpstreamUnavailable
)

// UnmappedDriversError lists OpenF1 driver numbers with no internal driver.
type UnmappedDriversError struct {
	Numbers []int
}

func (e *UnmappedDriversError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnmappedDrivers, joinInts(e.Numbers))
}

func (e *UnmappedDriversError) Is(target error) bool {
	return target == ErrUnmappedDrivers
}

// AmbiguousDriverMappingError is raised when more than one driver claims the
// same OpenF1 number.
type AmbiguousDriverMappingError struct {
	Number    int
	DriverIDs []int
}

func (e *AmbiguousDriverMappingError) Error() string {
	return fmt.Sprintf("%v: number %d claimed by drivers %s", ErrAmbiguousDriverMapping, e.Number, joinInts(e.DriverIDs))
}

func (e *AmbiguousDriverMappingError) Is(target error) bool {
	return target == ErrAmbiguousDriverMapping
}

func joinInts(v []int) string {
	s := slices.Clone(v)
	slices.Sort(s)
	parts := make([]string, len(s))
	for i, n := range s {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
