package entities

import "fmt"

// Station represents a hydrological monitoring station.
type Station struct {
	Code string // 1-4 digit station code
	Name string // Human-readable station name, may be empty
}

func (s Station) String() string {
	return fmt.Sprintf("Station(%s)", s.Code)
}
