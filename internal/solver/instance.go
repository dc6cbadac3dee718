package solver

import (
	"fmt"

	"routesolve/internal/geo"
	"routesolve/internal/model"
)

// Hard input limits. Exceeding them is a BadInput error, never a silent
// truncation.
const (
	MaxLocations    = 100
	MaxVehicleTypes = 20
)

// Instance is one validated problem: the locations (depot included), the
// fleet, and the shared distance matrix.
type Instance struct {
	Locations []model.Location
	Vehicles  []model.VehicleType
	Depot     model.Location
	Customers []model.Location // non-depot locations, caller order
	Matrix    *Matrix
}

// NewInstance validates the raw problem and builds the distance matrix.
func NewInstance(locations []model.Location, vehicles []model.VehicleType) (*Instance, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: locations list is empty", ErrBadInput)
	}
	if len(vehicles) == 0 {
		return nil, fmt.Errorf("%w: vehicle list is empty", ErrBadInput)
	}
	if len(locations) > MaxLocations {
		return nil, fmt.Errorf("%w: %d locations exceeds limit of %d", ErrBadInput, len(locations), MaxLocations)
	}
	if len(vehicles) > MaxVehicleTypes {
		return nil, fmt.Errorf("%w: %d vehicle types exceeds limit of %d", ErrBadInput, len(vehicles), MaxVehicleTypes)
	}

	in := &Instance{Locations: locations, Vehicles: vehicles}
	depotCount := 0
	for _, l := range locations {
		if !geo.Finite(l.Latitude, l.Longitude) {
			return nil, fmt.Errorf("%w: location %q has non-finite coordinates", ErrBadInput, l.ID)
		}
		if l.Demand < 0 {
			return nil, fmt.Errorf("%w: location %q has negative demand", ErrBadInput, l.ID)
		}
		if l.IsDepot {
			depotCount++
			l.Demand = 0 // depot demand never counts toward capacity
			in.Depot = l
		} else {
			in.Customers = append(in.Customers, l)
		}
	}
	if depotCount == 0 {
		return nil, fmt.Errorf("%w: no depot location", ErrBadInput)
	}
	if depotCount > 1 {
		return nil, fmt.Errorf("%w: %d depot locations, want exactly 1", ErrBadInput, depotCount)
	}
	for _, v := range vehicles {
		if v.Capacity <= 0 {
			return nil, fmt.Errorf("%w: vehicle type %q has non-positive capacity", ErrBadInput, v.ID)
		}
		if v.Count <= 0 {
			return nil, fmt.Errorf("%w: vehicle type %q has non-positive count", ErrBadInput, v.ID)
		}
	}

	in.Matrix = NewMatrix(locations)
	return in, nil
}

// MaxCapacity is the largest single-vehicle capacity in the fleet. The
// savings merge gate checks against it.
func (in *Instance) MaxCapacity() int {
	max := 0
	for _, v := range in.Vehicles {
		if v.Capacity > max {
			max = v.Capacity
		}
	}
	return max
}

// TotalSlots is the number of physical vehicles across all types.
func (in *Instance) TotalSlots() int {
	total := 0
	for _, v := range in.Vehicles {
		total += v.Count
	}
	return total
}

// FleetCapacity is the summed capacity of every slot.
func (in *Instance) FleetCapacity() int {
	total := 0
	for _, v := range in.Vehicles {
		total += v.Capacity * v.Count
	}
	return total
}

// slot is one physical vehicle during assignment.
type slot struct {
	ID          string
	TypeID      string
	Name        string
	Capacity    int
	Used        bool
	CurrentLoad int
}

// expandSlots flattens vehicle types into per-vehicle slots, in caller
// order. Slot ids are stable within a solve.
func expandSlots(vehicles []model.VehicleType) []*slot {
	var slots []*slot
	for _, v := range vehicles {
		for k := 0; k < v.Count; k++ {
			slots = append(slots, &slot{
				ID:       fmt.Sprintf("%s-%d", v.ID, k+1),
				TypeID:   v.ID,
				Name:     v.Name,
				Capacity: v.Capacity,
			})
		}
	}
	return slots
}
