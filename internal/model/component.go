// Package model defines the data types shared across the component store,
// recommender, and embedding engine: Component, its identifier, category
// enum, and the specification value union described in spec.md §3.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ComponentId is an opaque 128-bit identifier for a Component.
type ComponentId uuid.UUID

// NewComponentId generates a fresh random ComponentId.
func NewComponentId() ComponentId {
	return ComponentId(uuid.New())
}

// ParseComponentId parses a canonical UUID string into a ComponentId.
func ParseComponentId(s string) (ComponentId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ComponentId{}, err
	}
	return ComponentId(u), nil
}

func (id ComponentId) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero-value identifier.
func (id ComponentId) IsZero() bool {
	return id == ComponentId{}
}

// Category is the closed set of component kinds from spec.md §3.
type Category string

const (
	CategoryResistor        Category = "Resistor"
	CategoryCapacitor       Category = "Capacitor"
	CategoryInductor        Category = "Inductor"
	CategoryDiode           Category = "Diode"
	CategoryTransistor      Category = "Transistor"
	CategoryIC              Category = "IC"
	CategoryConnector       Category = "Connector"
	CategorySwitch          Category = "Switch"
	CategorySensor          Category = "Sensor"
	CategoryPowerManagement Category = "PowerManagement"
	CategoryOther           Category = "Other"
)

// categories is the closed set, used for validation and classification
// fallback (spec.md §4.5 step 1: "reject + default to Other on failure").
var categories = map[Category]bool{
	CategoryResistor: true, CategoryCapacitor: true, CategoryInductor: true,
	CategoryDiode: true, CategoryTransistor: true, CategoryIC: true,
	CategoryConnector: true, CategorySwitch: true, CategorySensor: true,
	CategoryPowerManagement: true, CategoryOther: true,
}

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c Category) bool {
	return categories[c]
}

// ParseCategory parses a free-form string into a Category, falling back to
// CategoryOther when it does not match a known member (case-insensitive).
func ParseCategory(s string) Category {
	for c := range categories {
		if equalFold(string(c), s) {
			return c
		}
	}
	return CategoryOther
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// PriceInfo carries a known unit price for a component.
type PriceInfo struct {
	Currency  string  `json:"currency"`
	UnitPrice float64 `json:"unit_price"`
	Breaks    []PriceBreak `json:"breaks,omitempty"`
}

// PriceBreak is a quantity break in a supplier's pricing table.
type PriceBreak struct {
	MinQuantity int     `json:"min_quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Availability carries stock and lead-time data for a component.
type Availability struct {
	StockLevel    int       `json:"stock_level"`
	LeadTimeDays  int       `json:"lead_time_days"`
	LastSeen      time.Time `json:"last_seen"`
}

// Component is the catalog record described in spec.md §3.
type Component struct {
	ID             ComponentId           `json:"id"`
	PartNumber     string                `json:"part_number"`
	Manufacturer   string                `json:"manufacturer"`
	Category       Category              `json:"category"`
	Description    string                `json:"description"`
	DatasheetURL   string                `json:"datasheet_url,omitempty"`
	Specifications map[string]SpecValue  `json:"specifications"`
	Footprint      string                `json:"footprint,omitempty"`
	Price          *PriceInfo            `json:"price_info,omitempty"`
	Availability   *Availability         `json:"availability,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// SpecLookup returns the spec value for key, matched case-insensitively as
// required by spec.md §3 ("spec keys are case-preserving but
// case-insensitive on lookup").
func (c *Component) SpecLookup(key string) (SpecValue, bool) {
	if v, ok := c.Specifications[key]; ok {
		return v, true
	}
	for k, v := range c.Specifications {
		if equalFold(k, key) {
			return v, true
		}
	}
	return SpecValue{}, false
}
