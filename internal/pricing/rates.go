package pricing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// Rates holds the per-category charge components of a new connection.
// Installation and DGCC carry a PMUY-subsidy tier alongside the standard
// one; which tier applies is decided by the caller's PMUY flag.
type Rates struct {
	CylinderPrice              float64 `json:"cylinder_price"`
	SecurityDepositCylinder    float64 `json:"security_deposit_cylinder"`
	SecurityDepositRegulator   float64 `json:"security_deposit_pressure_regulator"`
	InstallationAndDemo        float64 `json:"installation_and_demo"`
	InstallationAndDemoPMUY    float64 `json:"installation_and_demo_pmuy"`
	DGCC                       float64 `json:"dgcc"`
	DGCCPMUY                   float64 `json:"dgcc_pmuy"`
	VisitCharge                float64 `json:"visit_charge"`
	AdditionalFixedCharge      float64 `json:"additional_fixed_charge"`
	ExtraCharge                float64 `json:"extra_charge"`
}

// RateTable maps a cylinder category to its rates.
type RateTable map[string]Rates

// defaultTable carries the published domestic/commercial tariffs.  It is
// the startup fallback when no RATE_TABLE_PATH is configured; it is never
// consulted ad hoc from call sites.
var defaultTable = RateTable{
	model.CategoryDomestic: {
		CylinderPrice:            850,
		SecurityDepositCylinder:  2200,
		SecurityDepositRegulator: 150,
		InstallationAndDemo:      118,
		InstallationAndDemoPMUY:  75,
		DGCC:                     59,
		DGCCPMUY:                 0,
		VisitCharge:              250,
		AdditionalFixedCharge:    60,
		ExtraCharge:              250,
	},
	model.CategoryCommercial: {
		CylinderPrice:            1850,
		SecurityDepositCylinder:  5700,
		SecurityDepositRegulator: 350,
		InstallationAndDemo:      236,
		InstallationAndDemoPMUY:  236,
		DGCC:                     118,
		DGCCPMUY:                 118,
		VisitCharge:              500,
		AdditionalFixedCharge:    120,
		ExtraCharge:              500,
	},
}

// DefaultTable returns a copy of the built-in rate table.
func DefaultTable() RateTable {
	out := make(RateTable, len(defaultTable))
	for k, v := range defaultTable {
		out[k] = v
	}
	return out
}

// LoadTable reads the rate table from a JSON file at path, or returns the
// built-in defaults when path is empty.  A present-but-unreadable or
// incomplete file is a startup error, not a silent fallback.
func LoadTable(path string) (RateTable, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rate table %s: %w", path, err)
	}
	var table RateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("rate table %s: %w", path, err)
	}
	for _, cat := range []string{model.CategoryDomestic, model.CategoryCommercial} {
		if _, ok := table[cat]; !ok {
			return nil, fmt.Errorf("rate table %s: missing category %s", path, cat)
		}
	}
	return table, nil
}
