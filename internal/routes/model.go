// Package routes manages planned routes and their ordered fuel stations.
package routes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

// MaxStations caps how many fuel stops a route may list.
const MaxStations = 20

var (
	ErrNotFound       = fmt.Errorf("routes: route not found: %w", httpx.ErrNotFound)
	ErrInvalidID      = fmt.Errorf("routes: id must be a UUID: %w", httpx.ErrValidation)
	ErrInvalidStation = fmt.Errorf("routes: invalid station list: %w", httpx.ErrValidation)
	ErrUnknownStation = fmt.Errorf("routes: unknown fuel station: %w", httpx.ErrValidation)
)

// Place is a city/state pair.
type Place struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// FuelStation is a registered fuelling point, positioned by Order on a route.
type FuelStation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Reference string `json:"reference,omitempty"`
	Order     int    `json:"order"`
}

// Route is a planned origin/destination pair.
type Route struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Origin             Place               `json:"origin"`
	Destination        Place               `json:"destination"`
	PlannedKm          *float64            `json:"planned_km,omitempty"`
	PlannedToll        decimal.NullDecimal `json:"planned_toll"`
	ExpectedCycleHours *float64            `json:"expected_cycle_hours,omitempty"`
	Stations           []FuelStation       `json:"stations"`
}
