package routes

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Store is the persistence contract behind Service.
type Store interface {
	Get(ctx context.Context, routeID uuid.UUID) (Route, error)
	ReplaceStations(ctx context.Context, routeID uuid.UUID, stationIDs []uuid.UUID) error
}

// StationsInput is the body accepted when editing a route's fuel stops.
type StationsInput struct {
	StationIDs []string `json:"station_ids" validate:"max=20,unique,dive,required,uuid"`
}

// Service validates route edits before handing them to the store.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService wraps store.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// Get returns the route with its stations in stop order.
func (s *Service) Get(ctx context.Context, routeID string) (Route, error) {
	id, err := parseID(routeID)
	if err != nil {
		return Route{}, err
	}
	return s.store.Get(ctx, id)
}

// SetStations replaces the ordered station list and returns the updated route.
// An empty list removes every stop.
func (s *Service) SetStations(ctx context.Context, routeID string, in StationsInput) (Route, error) {
	id, err := parseID(routeID)
	if err != nil {
		return Route{}, err
	}
	stations, err := s.stationIDs(in)
	if err != nil {
		return Route{}, err
	}
	if err := s.store.ReplaceStations(ctx, id, stations); err != nil {
		return Route{}, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) stationIDs(in StationsInput) ([]uuid.UUID, error) {
	for i := range in.StationIDs {
		in.StationIDs[i] = strings.ToLower(strings.TrimSpace(in.StationIDs[i]))
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStation, err)
	}
	out := make([]uuid.UUID, 0, len(in.StationIDs))
	for _, raw := range in.StationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStation, raw)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
