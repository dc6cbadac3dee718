package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRouteJSONRoundTrip(t *testing.T) {
	veh := "truck-1"
	in := Route{
		ID: "rt_1",
		Stops: []Stop{
			{LocationID: "d", Name: "Depot", Order: 0},
			{LocationID: "a", Name: "A", Latitude: 0, Longitude: 1, Demand: 5, Order: 1},
			{LocationID: "d", Name: "Depot", Order: 2},
		},
		Vehicle:       &veh,
		VehicleName:   "Truck",
		Distance:      222.39,
		Duration:      334,
		TotalCapacity: 5,
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Route
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(out.Stops) != len(in.Stops) {
		t.Fatalf("stops: %d vs %d", len(out.Stops), len(in.Stops))
	}
	for i := range in.Stops {
		if out.Stops[i].LocationID != in.Stops[i].LocationID || out.Stops[i].Order != in.Stops[i].Order {
			t.Fatalf("stop %d differs: %+v vs %+v", i, out.Stops[i], in.Stops[i])
		}
	}
	if out.Vehicle == nil || *out.Vehicle != veh {
		t.Fatalf("vehicle lost: %+v", out.Vehicle)
	}
	if math.Abs(out.Distance-in.Distance) > 1e-9 || out.Duration != in.Duration {
		t.Fatalf("metrics differ: %+v", out)
	}
}

func TestRouteNullVehicleSerialization(t *testing.T) {
	r := Route{Stops: []Stop{}, VehicleName: "Unassigned — Insufficient Capacity", CapacityExceeded: true}
	data, _ := json.Marshal(r)

	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	v, ok := raw["vehicle"]
	if !ok {
		t.Fatal("vehicle key must always be present")
	}
	if v != nil {
		t.Fatalf("unassigned vehicle must serialize as null, got %v", v)
	}
	if raw["capacityExceeded"] != true {
		t.Fatal("capacityExceeded flag lost")
	}
}

func TestInteriorExcludesSentinels(t *testing.T) {
	r := Route{Stops: []Stop{
		{LocationID: "d"}, {LocationID: "a"}, {LocationID: "b"}, {LocationID: "d"},
	}}
	interior := r.Interior()
	if len(interior) != 2 || interior[0].LocationID != "a" || interior[1].LocationID != "b" {
		t.Fatalf("interior = %+v", interior)
	}

	empty := Route{Stops: []Stop{{LocationID: "d"}}}
	if got := empty.Interior(); len(got) != 0 {
		t.Fatalf("short route interior = %+v", got)
	}
}
