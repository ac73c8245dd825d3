package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

// Trip statuses. StatusPlanned doubles as the fallback for unknown values.
const (
	StatusPlanned    TripStatus = "Planned"
	StatusInProgress TripStatus = "InProgress"
	StatusCompleted  TripStatus = "Completed"
	StatusCancelled  TripStatus = "Cancelled"
)

// ParseTripStatus maps stored values (pt-BR or canonical) onto a TripStatus.
func ParseTripStatus(raw string) TripStatus {
	switch normalizeToken(raw) {
	case "emandamento", "inprogress":
		return StatusInProgress
	case "concluida", "completed":
		return StatusCompleted
	case "cancelada", "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusPlanned
	}
}

func (s TripStatus) orDefault() TripStatus {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return s
	default:
		return StatusPlanned
	}
}

// Label returns the pt-BR display text.
func (s TripStatus) Label() string {
	switch s {
	case StatusInProgress:
		return "Em andamento"
	case StatusCompleted:
		return "Concluída"
	case StatusCancelled:
		return "Cancelada"
	default:
		return "Planejada"
	}
}

// CostCategory classifies a cost entry. Values outside the canonical set are
// preserved as-is so they still show up in breakdowns.
type CostCategory string

// Canonical cost categories.
const (
	CategoryDiesel     CostCategory = "Diesel"
	CategoryToll       CostCategory = "Toll"
	CategoryPerDiem    CostCategory = "PerDiem"
	CategoryCommission CostCategory = "Commission"
	CategoryAdBlue     CostCategory = "AdBlue"
	CategoryOther      CostCategory = "Other"
)

// CanonicalCategories is the fixed display order for cost categories.
var CanonicalCategories = []CostCategory{
	CategoryDiesel,
	CategoryToll,
	CategoryPerDiem,
	CategoryCommission,
	CategoryAdBlue,
	CategoryOther,
}

// ParseCostCategory maps a stored category onto the canonical set. Empty input
// falls back to CategoryOther; unknown input is kept verbatim.
func ParseCostCategory(raw string) CostCategory {
	trimmed := strings.TrimSpace(raw)
	switch normalizeToken(trimmed) {
	case "":
		return CategoryOther
	case "diesel":
		return CategoryDiesel
	case "pedagio", "toll":
		return CategoryToll
	case "diarias", "perdiem":
		return CategoryPerDiem
	case "comissao", "commission":
		return CategoryCommission
	case "arla", "adblue":
		return CategoryAdBlue
	case "outros", "other":
		return CategoryOther
	default:
		return CostCategory(trimmed)
	}
}

// Canonical reports whether c belongs to CanonicalCategories.
func (c CostCategory) Canonical() bool {
	for _, known := range CanonicalCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the pt-BR display text.
func (c CostCategory) Label() string {
	switch c {
	case CategoryDiesel:
		return "Diesel"
	case CategoryToll:
		return "Pedágio"
	case CategoryPerDiem:
		return "Diárias"
	case CategoryCommission:
		return "Comissão"
	case CategoryAdBlue:
		return "Arla"
	case CategoryOther, "":
		return "Outros"
	default:
		return string(c)
	}
}

// Trip is a single freight movement as read from the store.
type Trip struct {
	ID           string
	StartDate    *time.Time
	ClientName   string
	RouteName    string
	VehiclePlate string
	DriverName   string
	FreightValue decimal.NullDecimal
	ActualKm     *float64
	VolumeTons   *float64
	Status       TripStatus
}

// CostEntry is a dated expense. Date is a calendar date; only its year, month
// and day are meaningful.
type CostEntry struct {
	ID       string
	TripID   string
	Date     *time.Time
	Category CostCategory
	Amount   decimal.NullDecimal
}

// Fueling is a fuel purchase for a vehicle.
type Fueling struct {
	ID        string
	VehicleID string
	Date      *time.Time
	Liters    float64
	Total     decimal.NullDecimal
}

// Receivable is an open amount owed by a client.
type Receivable struct {
	ID         string
	ClientName string
	DueDate    *time.Time
	Amount     decimal.NullDecimal
}

// Payable is an open amount owed to a supplier.
type Payable struct {
	ID       string
	Supplier string
	Category string
	DueDate  *time.Time
	Amount   decimal.NullDecimal
}

func normalizeToken(raw string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "", "á", "a", "ã", "a", "í", "i", "ç", "c", "ú", "u")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

func amountOf(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

func floatOf(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
