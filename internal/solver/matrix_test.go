package solver

import (
	"testing"

	"routesolve/internal/model"
)

func TestMatrixSymmetricZeroDiagonal(t *testing.T) {
	locs := []model.Location{
		{ID: "d", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "a", Latitude: 0, Longitude: 1},
		{ID: "b", Latitude: 1, Longitude: 1},
	}
	m := NewMatrix(locs)

	for _, l := range locs {
		if d := m.Dist(l.ID, l.ID); d != 0 {
			t.Errorf("diagonal %s = %v, want 0", l.ID, d)
		}
	}
	for _, a := range locs {
		for _, b := range locs {
			if m.Dist(a.ID, b.ID) != m.Dist(b.ID, a.ID) {
				t.Errorf("asymmetric pair %s,%s", a.ID, b.ID)
			}
		}
	}
	if m.Size() != 3 {
		t.Errorf("Size = %d, want 3", m.Size())
	}
}

func TestMatrixUnknownPair(t *testing.T) {
	m := NewMatrix([]model.Location{{ID: "a", Latitude: 0, Longitude: 0}})
	if d := m.Dist("a", "ghost"); d != 0 {
		t.Errorf("unknown pair = %v, want 0", d)
	}
}

func TestRecomputeRouteMetricsIdempotent(t *testing.T) {
	locs := []model.Location{
		{ID: "d", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "a", Latitude: 0, Longitude: 1, Demand: 4},
		{ID: "b", Latitude: 0, Longitude: 2, Demand: 6},
	}
	m := NewMatrix(locs)
	r := newRoute(m, locs[0], locs[1], locs[2])

	d1, t1, c1 := r.Distance, r.Duration, r.TotalCapacity
	RecomputeRouteMetrics(m, &r)
	if r.Distance != d1 || r.Duration != t1 || r.TotalCapacity != c1 {
		t.Errorf("metrics changed on recompute: (%v,%v,%v) vs (%v,%v,%v)",
			d1, t1, c1, r.Distance, r.Duration, r.TotalCapacity)
	}
	if c1 != 10 {
		t.Errorf("TotalCapacity = %d, want 10", c1)
	}
}

func TestSolutionKeyCanonical(t *testing.T) {
	locs := []model.Location{
		{ID: "d", IsDepot: true},
		{ID: "a", Demand: 1},
		{ID: "b", Demand: 1},
	}
	m := NewMatrix(locs)
	r1 := newRoute(m, locs[0], locs[1])
	r2 := newRoute(m, locs[0], locs[2])

	k1 := SolutionKey([]model.Route{r1, r2})
	k2 := SolutionKey([]model.Route{r2, r1})
	if k1 != k2 {
		t.Errorf("solution key depends on route order: %q vs %q", k1, k2)
	}
	if k1 != "d-a-d|d-b-d" {
		t.Errorf("unexpected key %q", k1)
	}
}
