package importer

import (
	"github.com/padraicbc/f1picks/models"
)

// DriverRef identifies an internal driver.
type DriverRef struct {
	ID   int
	Name string
}

// DriverMap resolves OpenF1 driver numbers to internal drivers.
type DriverMap map[int]DriverRef

// lookupNumber is the number OpenF1 knows the driver by.
func lookupNumber(d *models.Driver) int {
	if d.OpenF1Number != nil && *d.OpenF1Number > 0 {
		return *d.OpenF1Number
	}
	return d.Number
}

// BuildDriverMap keys every driver by its OpenF1 number, falling back to the
// car number. Drivers without either are left out. Two drivers on the same
// number fail with *AmbiguousDriverMappingError.
func BuildDriverMap(drivers []models.Driver) (DriverMap, error) {
	m := make(DriverMap, len(drivers))
	for i := range drivers {
		d := &drivers[i]
		num := lookupNumber(d)
		if num <= 0 {
			continue
		}
		if prev, ok := m[num]; ok {
			return nil, &AmbiguousDriverMappingError{Number: num, DriverIDs: []int{prev.ID, d.ID}}
		}
		m[num] = DriverRef{ID: d.ID, Name: d.FullName}
	}
	return m, nil
}

// Missing returns the numbers that do not resolve, in input order.
func (m DriverMap) Missing(numbers []int) []int {
	var out []int
	for _, n := range numbers {
		if _, ok := m[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
