package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"routesolve/internal/auth"
	"routesolve/internal/config"
	"routesolve/internal/model"
	"routesolve/internal/solver"
	"routesolve/internal/store"
	"routesolve/internal/webhooks"
)

func testServer() *Server {
	cfg := config.Config{Port: "0", Solver: config.SolverConfig{DefaultMode: "compare", DefaultAlgorithm: "enhanced-clarke-wright"}}
	mem := store.NewMemory()
	return &Server{
		Cfg:    cfg,
		Store:  mem,
		Engine: solver.NewEngine(nil),
		Pub:    webhooks.NewPublisher(mem),
		Auth:   auth.NewVerifier(""),
		Broker: NewBroker(),
	}
}

func solveBody(mode, algorithm string) []byte {
	req := model.SolveRequest{
		Locations: []model.Location{
			{ID: "d", Name: "Depot", Latitude: 0, Longitude: 0, IsDepot: true},
			{ID: "a", Name: "A", Latitude: 0, Longitude: 1, Demand: 3},
			{ID: "b", Name: "B", Latitude: 0, Longitude: 2, Demand: 3},
		},
		Vehicles:  []model.VehicleType{{ID: "truck", Name: "Truck", Capacity: 10, Count: 2}},
		Mode:      mode,
		Algorithm: algorithm,
		Seed:      7,
	}
	body, _ := json.Marshal(req)
	return body
}

func TestSolveHandlerSingle(t *testing.T) {
	s := testServer()
	r := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody("single", "clarke-wright")))
	w := httptest.NewRecorder()
	s.SolveHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var res model.SolveResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SelectedAlgorithm != "clarke-wright" || res.ComparisonRun {
		t.Fatalf("unexpected envelope %+v", res)
	}
	if res.ID == "" {
		t.Fatal("expected persisted solution id")
	}
	if len(res.Routes) == 0 {
		t.Fatal("expected routes")
	}
}

func TestSolveHandlerCompare(t *testing.T) {
	s := testServer()
	r := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody("compare", "")))
	w := httptest.NewRecorder()
	s.SolveHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var res model.SolveResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.ComparisonRun {
		t.Fatal("comparisonRun must be true")
	}
	if len(res.AlgorithmResults) != 8 {
		t.Fatalf("want 8 algorithm results, got %d", len(res.AlgorithmResults))
	}
}

func TestSolveHandlerRejectsBadRequests(t *testing.T) {
	s := testServer()

	cases := map[string][]byte{
		"empty body":    []byte(`{}`),
		"not json":      []byte(`{`),
		"missing depot": mustJSON(model.SolveRequest{Locations: []model.Location{{ID: "a"}}, Vehicles: []model.VehicleType{{ID: "v", Capacity: 1, Count: 1}}}),
		"two depots": mustJSON(model.SolveRequest{
			Locations: []model.Location{{ID: "a", IsDepot: true}, {ID: "b", IsDepot: true}},
			Vehicles:  []model.VehicleType{{ID: "v", Capacity: 1, Count: 1}},
		}),
		"single without algorithm": mustJSON(model.SolveRequest{
			Locations: []model.Location{{ID: "a", IsDepot: true}, {ID: "b"}},
			Vehicles:  []model.VehicleType{{ID: "v", Capacity: 1, Count: 1}},
			Mode:      "single",
		}),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
			w := httptest.NewRecorder()
			s.SolveHandler(w, r)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSolveHandlerAuthRequired(t *testing.T) {
	s := testServer()
	s.Auth = auth.NewVerifier("k1:planner")

	r := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody("single", "clarke-wright")))
	w := httptest.NewRecorder()
	s.SolveHandler(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody("single", "clarke-wright")))
	r.Header.Set("X-API-Key", "k1")
	w = httptest.NewRecorder()
	s.SolveHandler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("with key: status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestSolutionsListAndGet(t *testing.T) {
	s := testServer()
	r := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody("single", "nearest-neighbor")))
	w := httptest.NewRecorder()
	s.SolveHandler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("solve: %d", w.Code)
	}
	var saved model.SolveResult
	_ = json.Unmarshal(w.Body.Bytes(), &saved)

	w = httptest.NewRecorder()
	s.SolutionsHandler(w, httptest.NewRequest(http.MethodGet, "/v1/solutions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var list struct {
		Items []model.SolveResult `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Items) != 1 {
		t.Fatalf("want 1 item, got %d", len(list.Items))
	}

	w = httptest.NewRecorder()
	s.SolutionByIDHandler(w, httptest.NewRequest(http.MethodGet, "/v1/solutions/"+saved.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.SolutionByIDHandler(w, httptest.NewRequest(http.MethodGet, "/v1/solutions/sol_missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}
}

func TestSubscriptionsHandlerRoles(t *testing.T) {
	s := testServer()
	s.Auth = auth.NewVerifier("admin-key:admin,plan-key:planner")

	body := mustJSON(model.SubscriptionRequest{URL: "http://hook", Events: []string{"solve.completed"}, Secret: "s"})

	r := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body))
	r.Header.Set("X-API-Key", "plan-key")
	w := httptest.NewRecorder()
	s.SubscriptionsHandler(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("planner should be forbidden, got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body))
	r.Header.Set("X-API-Key", "admin-key")
	w = httptest.NewRecorder()
	s.SubscriptionsHandler(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("admin create: %d body=%s", w.Code, w.Body.String())
	}
	var sub model.Subscription
	_ = json.Unmarshal(w.Body.Bytes(), &sub)
	if sub.Secret != "" {
		t.Fatal("secret must not be echoed")
	}
}

func TestSerializedRouteShapeStable(t *testing.T) {
	// Exports bind to these field names; a rename is a breaking change.
	s := testServer()
	r := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody("single", "clarke-wright")))
	w := httptest.NewRecorder()
	s.SolveHandler(w, r)

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"selectedAlgorithm", "routes", "totalDistance", "totalDuration", "algorithmResults", "comparisonRun"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("envelope missing %q", key)
		}
	}
	routes := raw["routes"].([]any)
	route := routes[0].(map[string]any)
	for _, key := range []string{"stops", "vehicle", "distance", "duration", "totalCapacity"} {
		if _, ok := route[key]; !ok {
			t.Fatalf("route missing %q", key)
		}
	}
	stop := route["stops"].([]any)[0].(map[string]any)
	for _, key := range []string{"locationId", "name", "latitude", "longitude", "demand", "order"} {
		if _, ok := stop[key]; !ok {
			t.Fatalf("stop missing %q", key)
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
