package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"routesolve/internal/model"
)

func externalInstance(t *testing.T) *Instance {
	t.Helper()
	locs := []model.Location{
		depotAt(0, 0),
		customer("A", 0, 1, 3),
		customer("B", 0, 2, 4),
	}
	return mustInstance(t, locs, fleet(10, 1))
}

func TestExternalSolverDecodesRoutes(t *testing.T) {
	in := externalInstance(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req externalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Locations, 3)
		require.Equal(t, 0, req.Demands[0], "depot demand must be sent as 0")
		require.Len(t, req.Vehicles, 1)

		resp := externalResponse{Result: []externalRouteResult{{
			VehicleID:    "truck-1",
			RouteIndices: []int{0, 2, 1, 0},
			DistanceKm:   330.0,
			LoadCarried:  7,
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ext := NewExternalSolver(srv.URL)
	routes, err := ext.Solve(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Equal(t, []string{"depot", "B", "A", "depot"}, stopIDs(routes[0]))
	require.NotNil(t, routes[0].Vehicle)
	require.Equal(t, "truck-1", *routes[0].Vehicle)
	require.Equal(t, 7, routes[0].TotalCapacity)
}

func TestExternalSolverFailuresMapToSentinel(t *testing.T) {
	in := externalInstance(t)

	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		},
		"empty result": func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(externalResponse{})
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			ext := NewExternalSolver(srv.URL)
			_, err := ext.Solve(context.Background(), in)
			require.ErrorIs(t, err, ErrExternalSolver)
		})
	}
}

func TestExternalSolverUnconfigured(t *testing.T) {
	var ext *ExternalSolver
	_, err := ext.Solve(context.Background(), externalInstance(t))
	require.ErrorIs(t, err, ErrExternalSolver)
}

func TestORToolsFallsBackToEnhancedClarkeWright(t *testing.T) {
	// No endpoint configured: the or-tools tag must still produce routes.
	in := externalInstance(t)
	e := NewEngine(nil)
	res, err := e.Run(context.Background(), AlgoORTools, in, newRNG(1))
	require.NoError(t, err)
	require.Empty(t, res.Error)
	require.NotEmpty(t, res.Routes)
	require.InDelta(t, 100.0, res.CoveragePercent, 1e-9)
}
