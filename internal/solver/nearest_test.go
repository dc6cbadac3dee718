package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"routesolve/internal/model"
)

func TestNearestNeighborVisitsClosestFirst(t *testing.T) {
	locs := []model.Location{
		depotAt(0, 0),
		customer("far", 0, 3, 2),
		customer("near", 0, 1, 2),
		customer("mid", 0, 2, 2),
	}
	in := mustInstance(t, locs, fleet(10, 1))

	routes := NearestNeighbor(in)
	require.Len(t, routes, 1)
	require.Equal(t, []string{"depot", "near", "mid", "far", "depot"}, stopIDs(routes[0]))
	require.NotNil(t, routes[0].Vehicle)
}

func TestNearestNeighborRespectsCapacity(t *testing.T) {
	locs := []model.Location{
		depotAt(0, 0),
		customer("A", 0, 1, 7),
		customer("B", 0, 2, 7),
	}
	in := mustInstance(t, locs, fleet(10, 2))

	routes := NearestNeighbor(in)
	require.Len(t, routes, 2)
	checkAtMostOnce(t, routes, "depot")
	for _, r := range routes {
		require.LessOrEqual(t, r.TotalCapacity, 10)
	}
}

func TestNearestNeighborSingletonFallback(t *testing.T) {
	// B cannot ride with A (7+7 > 10) and there is no second slot, so the
	// singleton pass must put B on a round-trip of its own on the first
	// slot that can carry it.
	locs := []model.Location{
		depotAt(0, 0),
		customer("A", 0, 1, 7),
		customer("B", 0, 5, 7),
	}
	in := mustInstance(t, locs, []model.VehicleType{
		{ID: "van", Name: "Van", Capacity: 10, Count: 1},
	})

	routes := NearestNeighbor(in)
	served := servedIDs(routes, "depot")
	require.Len(t, served, 2)
}

func TestSweepOrdersByPolarAngle(t *testing.T) {
	locs := []model.Location{
		depotAt(0, 0),
		customer("east", 0, 1, 2),
		customer("north", 1, 0, 2),
		customer("west", 0, -1, 2),
	}
	in := mustInstance(t, locs, fleet(10, 1))

	routes := Sweep(in)
	require.Len(t, routes, 1)
	// atan2 ordering: east (0), north (pi/2), west (pi).
	ids := stopIDs(routes[0])
	require.Equal(t, "depot", ids[0])
	require.Equal(t, "depot", ids[len(ids)-1])
	require.ElementsMatch(t, []string{"east", "north", "west"}, ids[1:len(ids)-1])
}

func TestSweepAdvancesSlots(t *testing.T) {
	locs := []model.Location{
		depotAt(0, 0),
		customer("A", 0, 1, 6),
		customer("B", 0.1, 1, 6),
		customer("C", 0.2, 1, 6),
	}
	in := mustInstance(t, locs, fleet(10, 3))

	routes := Sweep(in)
	require.Len(t, routes, 3, "6+6 never fits one 10-capacity slot")
	checkAtMostOnce(t, routes, "depot")
	for _, r := range routes {
		require.LessOrEqual(t, r.TotalCapacity, 10)
	}
}

func TestSweepNotInRegistry(t *testing.T) {
	for _, key := range Registry {
		require.NotEqual(t, "sweep", key)
	}
	require.Len(t, Registry, 8)
}
