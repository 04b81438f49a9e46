package resolvers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carlosbarrancotena/practica5/graph/model"
	"github.com/carlosbarrancotena/practica5/internal/clients"
	gatewayerrors "github.com/carlosbarrancotena/practica5/internal/errors"
	pkgclients "github.com/carlosbarrancotena/practica5/pkg/clients"
	"github.com/carlosbarrancotena/practica5/pkg/clients/pokeapi"
	"github.com/carlosbarrancotena/practica5/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeUpstream serves canned bodies by path and counts every request.
type fakeUpstream struct {
	mu     sync.Mutex
	routes map[string]fakeRoute
	hits   []string
	calls  atomic.Int32
}

type fakeRoute struct {
	status int
	body   string
	delay  time.Duration
}

func newFakeUpstream(t *testing.T, routes map[string]fakeRoute) (*fakeUpstream, *httptest.Server) {
	t.Helper()
	f := &fakeUpstream{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.mu.Lock()
		f.hits = append(f.hits, r.URL.Path)
		route, ok := f.routes[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("Not Found"))
			return
		}
		if route.delay > 0 {
			time.Sleep(route.delay)
		}
		status := route.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(route.body))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeUpstream) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

func newTestResolver(t *testing.T, baseURL string) *Resolver {
	t.Helper()
	sc, err := clients.NewServiceClients(clients.Config{PokeAPIBaseURL: baseURL})
	if err != nil {
		t.Fatalf("failed to create clients: %v", err)
	}
	return NewResolver(sc, nil, nil)
}

func intPtr(v int) *int { return &v }

func TestDoGetPokemonMissingSelector(t *testing.T) {
	f, srv := newFakeUpstream(t, nil)
	r := newTestResolver(t, srv.URL)

	_, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{})
	if !errors.Is(err, gatewayerrors.ErrMissingSelector) {
		t.Fatalf("expected missing selector, got %v", err)
	}
	if err.Error() != "Debes proporcionar un ID o nombre del Pokémon." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if f.calls.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", f.calls.Load())
	}
}

func TestDoGetPokemonIDWinsOverName(t *testing.T) {
	f, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/pokemon/25": {body: `{"id":25,"name":"pikachu","abilities":[],"moves":[]}`},
	})
	r := newTestResolver(t, srv.URL)

	res, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{ID: intPtr(25), Name: "bulbasaur"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 25 || res.Name != "pikachu" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := f.paths(); len(got) != 1 || got[0] != "/pokemon/25" {
		t.Fatalf("expected only the by-id endpoint, got %v", got)
	}
}

func TestDoGetPokemonByNameLowercases(t *testing.T) {
	f, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/pokemon/pikachu": {body: `{"id":25,"name":"pikachu"}`},
	})
	r := newTestResolver(t, srv.URL)

	res, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{Name: "Pikachu"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 25 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.AbilityRefs) != 0 || len(res.MoveRefs) != 0 {
		t.Fatalf("expected empty refs, got %+v", res)
	}
	if got := f.paths(); got[0] != "/pokemon/pikachu" {
		t.Fatalf("unexpected path %v", got)
	}
}

func TestDoGetPokemonNonSuccessIsNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			f, srv := newFakeUpstream(t, map[string]fakeRoute{
				"/pokemon/missingno": {status: status, body: "nope"},
			})
			r := newTestResolver(t, srv.URL)

			_, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{Name: "missingno"})
			if !errors.Is(err, gatewayerrors.ErrPokemonNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
			if err.Error() != "Pokémon no encontrado." {
				t.Fatalf("unexpected message %q", err.Error())
			}
			var statusErr *pokeapi.StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != status {
				t.Fatalf("expected upstream status %d to be kept as cause, got %v", status, err)
			}
			if f.calls.Load() != 1 {
				t.Fatalf("expected exactly one upstream call, got %d", f.calls.Load())
			}
		})
	}
}

func TestDoGetPokemonMalformed(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/pokemon/25": {body: `{"id":`},
	})
	r := newTestResolver(t, srv.URL)

	_, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{ID: intPtr(25)})
	if !errors.Is(err, pokeapi.ErrUpstreamMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if errors.Is(err, gatewayerrors.ErrPokemonNotFound) {
		t.Fatal("malformed body must not be reported as not found")
	}
}

func TestDoGetPokemonKeepsRefOrder(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/pokemon/1": {body: `{"id":1,"name":"bulbasaur",
			"abilities":[{"ability":{"name":"overgrow","url":"u1"}},{"ability":{"name":"chlorophyll","url":"u2"}}],
			"moves":[{"move":{"name":"razor-wind","url":"m1"}},{"move":{"name":"swords-dance","url":"m2"}},{"move":{"name":"cut","url":"m3"}}]}`},
	})
	r := newTestResolver(t, srv.URL)

	res, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{ID: intPtr(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantAbilities := []model.AbilityRef{{Name: "overgrow", URL: "u1"}, {Name: "chlorophyll", URL: "u2"}}
	for i, ref := range res.AbilityRefs {
		if ref != wantAbilities[i] {
			t.Fatalf("ability %d: got %+v want %+v", i, ref, wantAbilities[i])
		}
	}
	names := make([]string, 0, len(res.MoveRefs))
	for _, ref := range res.MoveRefs {
		names = append(names, ref.Name)
	}
	if strings.Join(names, ",") != "razor-wind,swords-dance,cut" {
		t.Fatalf("unexpected move order %v", names)
	}
}

func TestDoResolveAbilitiesOrderAndFallback(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/ability/9":  {delay: 50 * time.Millisecond, body: `{"effect_entries":[{"effect":"Peut paralyser","language":{"name":"fr"}},{"effect":"May paralyze","language":{"name":"en"}}]}`},
		"/ability/31": {body: `{"effect_entries":[{"effect":"Solo en español","language":{"name":"es"}}]}`},
	})
	r := newTestResolver(t, srv.URL)

	refs := []model.AbilityRef{
		{Name: "static", URL: srv.URL + "/ability/9"},
		{Name: "lightning-rod", URL: srv.URL + "/ability/31"},
	}
	got, err := r.DoResolveAbilities(context.Background(), refs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.AbilityResult{
		{Name: "static", Effect: "May paralyze"},
		{Name: "lightning-rod", Effect: NoDescription},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d abilities, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ability %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestDoResolveAbilitiesAllOrNothing(t *testing.T) {
	f, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/ability/1": {body: `{"effect_entries":[]}`},
		"/ability/2": {status: http.StatusInternalServerError, body: "boom"},
	})
	r := newTestResolver(t, srv.URL)

	refs := []model.AbilityRef{
		{Name: "ok", URL: srv.URL + "/ability/1"},
		{Name: "broken", URL: srv.URL + "/ability/2"},
	}
	got, err := r.DoResolveAbilities(context.Background(), refs)
	if err == nil {
		t.Fatal("expected error")
	}
	if got != nil {
		t.Fatalf("expected no partial results, got %+v", got)
	}
	if !errors.Is(err, pokeapi.ErrUpstreamUnavailable) || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("unexpected error %v", err)
	}
	if f.calls.Load() != 2 {
		t.Fatalf("expected every fetch to be launched, got %d", f.calls.Load())
	}
}

func TestDoResolveMovesFirstFailureInLaunchOrder(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/move/1": {status: http.StatusBadGateway, delay: 60 * time.Millisecond},
		"/move/2": {body: `{"power":40}`},
		"/move/3": {status: http.StatusInternalServerError},
	})
	r := newTestResolver(t, srv.URL)

	refs := []model.MoveRef{
		{Name: "slow-fail", URL: srv.URL + "/move/1"},
		{Name: "ok", URL: srv.URL + "/move/2"},
		{Name: "fast-fail", URL: srv.URL + "/move/3"},
	}
	_, err := r.DoResolveMoves(context.Background(), refs)
	var statusErr *pokeapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway || !strings.HasPrefix(err.Error(), "move slow-fail") {
		t.Fatalf("expected the first launched failure, got %v", err)
	}
}

func TestDoResolveMovesPowerFallback(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/move/5":  {delay: 30 * time.Millisecond, body: `{"power":80}`},
		"/move/45": {body: `{"power":null}`},
		"/move/86": {body: `{"name":"thunder-wave"}`},
	})
	r := newTestResolver(t, srv.URL)
	r.FanOutLimit = 2

	refs := []model.MoveRef{
		{Name: "mega-punch", URL: srv.URL + "/move/5"},
		{Name: "growl", URL: srv.URL + "/move/45"},
		{Name: "thunder-wave", URL: srv.URL + "/move/86"},
	}
	got, err := r.DoResolveMoves(context.Background(), refs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.MoveResult{{Name: "mega-punch", Power: 80}, {Name: "growl", Power: 0}, {Name: "thunder-wave", Power: 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("move %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestDoResolveEmptyRefs(t *testing.T) {
	f, srv := newFakeUpstream(t, nil)
	r := newTestResolver(t, srv.URL)

	abilities, err := r.DoResolveAbilities(context.Background(), nil)
	if err != nil || len(abilities) != 0 {
		t.Fatalf("unexpected result %v %v", abilities, err)
	}
	moves, err := r.DoResolveMoves(context.Background(), []model.MoveRef{})
	if err != nil || len(moves) != 0 {
		t.Fatalf("unexpected result %v %v", moves, err)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", f.calls.Load())
	}
}

func TestFanOutLimitBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 8)
	for i := range items {
		items[i] = i
	}

	got, err := fanOut(context.Background(), 3, items, func(_ context.Context, v int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return v * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent calls, saw %d", peak.Load())
	}
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("result %d out of order: %d", i, v)
		}
	}
}

func TestResolverMetrics(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/pokemon/25": {body: `{"id":25,"name":"pikachu"}`},
	})
	mc := monitoring.NewMetricsCollector("pokegraph-test", "test", "test")
	metrics := NewGraphQLMetrics(mc)

	sc, err := clients.NewServiceClients(clients.Config{
		PokeAPIBaseURL: srv.URL,
		Observer:       metrics.ObserveUpstream,
	})
	if err != nil {
		t.Fatalf("failed to create clients: %v", err)
	}
	r := NewResolver(sc, nil, metrics)

	if _, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{ID: intPtr(25)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = r.DoGetPokemon(context.Background(), model.PokemonQuery{})

	if v := testutil.ToFloat64(metrics.Operations.WithLabelValues("pokemon", "success")); v != 1 {
		t.Fatalf("expected 1 successful operation, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.Operations.WithLabelValues("pokemon", "error")); v != 1 {
		t.Fatalf("expected 1 failed operation, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("pokemon", "200")); v != 1 {
		t.Fatalf("expected 1 upstream request, got %v", v)
	}

	if _, err := r.DoResolveMoves(context.Background(), []model.MoveRef{{Name: "x", URL: srv.URL + "/move/1"}}); err == nil {
		t.Fatal("expected unknown move to fail")
	}
	if v := testutil.ToFloat64(metrics.FanOutInFlight.WithLabelValues("moves")); v != 0 {
		t.Fatalf("expected in-flight gauge back at 0, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("move", "404")); v != 1 {
		t.Fatalf("expected the failed move fetch to be counted, got %v", v)
	}
}

func TestDoGetPokemonOpenBreakerIsNotFound(t *testing.T) {
	f, srv := newFakeUpstream(t, map[string]fakeRoute{
		"/pokemon/999": {status: http.StatusInternalServerError},
	})
	client := pokeapi.NewClient(srv.URL, pokeapi.WithHTTPExecutorConfig(pkgclients.HTTPExecutorConfig{
		MaxRetries:       2,
		BaseDelay:        time.Millisecond,
		MaxDelay:         time.Millisecond,
		CircuitBreaker:   true,
		FailureThreshold: 1,
		FailureWindow:    1,
		BreakerDelay:     time.Minute,
	}))
	r := NewResolver(&clients.ServiceClients{PokeAPI: client}, nil, nil)

	_, err := r.DoGetPokemon(context.Background(), model.PokemonQuery{ID: intPtr(999)})
	if !errors.Is(err, gatewayerrors.ErrPokemonNotFound) {
		t.Fatalf("expected not found while tripping the breaker, got %v", err)
	}

	_, err = r.DoGetPokemon(context.Background(), model.PokemonQuery{Name: "nope"})
	if !errors.Is(err, gatewayerrors.ErrPokemonNotFound) {
		t.Fatalf("expected not found with the breaker open, got %v", err)
	}
	if msg := gatewayerrors.Present(context.Background(), nil, "pokemon", err).Error(); msg != "Pokémon no encontrado." {
		t.Fatalf("unexpected message %q", msg)
	}
	for _, path := range f.paths() {
		if path == "/pokemon/nope" {
			t.Fatal("open breaker should keep the request from reaching upstream")
		}
	}
}
