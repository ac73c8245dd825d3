package routes

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

type memoryStore struct {
	mu       sync.Mutex
	routes   map[uuid.UUID]Route
	stations map[uuid.UUID]FuelStation
	replaced int
}

func newMemoryStore() (*memoryStore, uuid.UUID, []uuid.UUID) {
	routeID := uuid.New()
	stations := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	store := &memoryStore{
		routes: map[uuid.UUID]Route{
			routeID: {
				ID:          routeID.String(),
				Name:        "Sinop - Santos",
				Origin:      Place{City: "Sinop", State: "MT"},
				Destination: Place{City: "Santos", State: "SP"},
				Stations:    []FuelStation{},
			},
		},
		stations: map[uuid.UUID]FuelStation{},
	}
	for i, id := range stations {
		store.stations[id] = FuelStation{ID: id.String(), Name: "Posto " + string(rune('A'+i))}
	}
	return store, routeID, stations
}

func (m *memoryStore) Get(ctx context.Context, routeID uuid.UUID) (Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	route, ok := m.routes[routeID]
	if !ok {
		return Route{}, ErrNotFound
	}
	return route, nil
}

func (m *memoryStore) ReplaceStations(ctx context.Context, routeID uuid.UUID, stationIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	route, ok := m.routes[routeID]
	if !ok {
		return ErrNotFound
	}
	next := make([]FuelStation, 0, len(stationIDs))
	for i, id := range stationIDs {
		st, ok := m.stations[id]
		if !ok {
			return ErrUnknownStation
		}
		st.Order = i
		next = append(next, st)
	}
	route.Stations = next
	m.routes[routeID] = route
	m.replaced++
	return nil
}

func TestSetStationsKeepsOrder(t *testing.T) {
	store, routeID, stations := newMemoryStore()
	svc := NewService(store)

	route, err := svc.SetStations(context.Background(), routeID.String(), StationsInput{
		StationIDs: []string{stations[2].String(), strings.ToUpper(stations[0].String())},
	})
	require.NoError(t, err)
	require.Len(t, route.Stations, 2)
	assert.Equal(t, stations[2].String(), route.Stations[0].ID)
	assert.Equal(t, 0, route.Stations[0].Order)
	assert.Equal(t, stations[0].String(), route.Stations[1].ID)
	assert.Equal(t, 1, route.Stations[1].Order)
}

func TestSetStationsEmptyClears(t *testing.T) {
	store, routeID, stations := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.SetStations(ctx, routeID.String(), StationsInput{StationIDs: []string{stations[0].String()}})
	require.NoError(t, err)

	route, err := svc.SetStations(ctx, routeID.String(), StationsInput{})
	require.NoError(t, err)
	assert.Empty(t, route.Stations)
	assert.Equal(t, 2, store.replaced)
}

func TestSetStationsValidation(t *testing.T) {
	store, routeID, stations := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	tooMany := make([]string, MaxStations+1)
	for i := range tooMany {
		tooMany[i] = uuid.NewString()
	}

	cases := map[string]StationsInput{
		"not a uuid": {StationIDs: []string{"posto-1"}},
		"duplicate":  {StationIDs: []string{stations[0].String(), stations[0].String()}},
		"blank":      {StationIDs: []string{" "}},
		"too many":   {StationIDs: tooMany},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SetStations(ctx, routeID.String(), in)
			assert.ErrorIs(t, err, ErrInvalidStation)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
	assert.Zero(t, store.replaced)
}

func TestSetStationsUnknownRouteOrStation(t *testing.T) {
	store, routeID, _ := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.SetStations(ctx, uuid.NewString(), StationsInput{})
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.SetStations(ctx, routeID.String(), StationsInput{StationIDs: []string{uuid.NewString()}})
	assert.ErrorIs(t, err, ErrUnknownStation)

	_, err = svc.Get(ctx, "rota-1")
	assert.ErrorIs(t, err, ErrInvalidID)
}
