// Package pricing computes connection cost breakdowns.  ComputeBreakdown is
// pure with respect to persistent state: it reads the agency and the rate
// table but persists nothing; callers decide whether to store the result.
package pricing

import (
	"errors"
	"fmt"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// ErrNoRateTable is returned when the engine is invoked without a loaded
// rate table.
var ErrNoRateTable = errors.New("pricing: rate table unavailable")

// ErrAgencyNotFound is returned when the referenced agency does not exist.
// The engine must fail rather than silently defaulting charges to zero.
var ErrAgencyNotFound = errors.New("pricing: agency not found")

// Breakdown itemizes the cost of a new connection.  TotalCost is the exact
// sum of all components.
type Breakdown struct {
	Category                 string  `json:"category"`
	CylinderCost             float64 `json:"cylinder_cost"`
	SecurityDepositCylinder  float64 `json:"security_deposit_cylinder"`
	SecurityDepositRegulator float64 `json:"security_deposit_pressure_regulator"`
	InstallationAndDemo      float64 `json:"installation_and_demo"`
	DGCC                     float64 `json:"dgcc"`
	VisitCharge              float64 `json:"visit_charge"`
	AdditionalFixedCharge    float64 `json:"additional_fixed_charge"`
	ExtraCharge              float64 `json:"extra_charge"`
	TotalCost                float64 `json:"total_cost"`
}

// CategoryFor maps a connection mode to a rate-table category.  "Regular"
// is Domestic; every other mode is priced as Commercial.
func CategoryFor(connectionMode string) string {
	if connectionMode == model.ConnectionModeRegular {
		return model.CategoryDomestic
	}
	return model.CategoryCommercial
}

// ComputeBreakdown calculates the itemized cost of connecting cylinderCount
// cylinders under the given mode for the given agency.  The PMUY subsidy
// tier is not applied for the default product type.
func ComputeBreakdown(table RateTable, connectionMode string, cylinderCount uint32, agency *model.Agency) (Breakdown, error) {
	if table == nil {
		return Breakdown{}, ErrNoRateTable
	}
	if agency == nil {
		return Breakdown{}, ErrAgencyNotFound
	}
	category := CategoryFor(connectionMode)
	rates, ok := table[category]
	if !ok {
		return Breakdown{}, fmt.Errorf("pricing: no rates for category %s", category)
	}

	// Default product type: PMUY tier always off.
	const pmuy = false
	installation := rates.InstallationAndDemo
	dgcc := rates.DGCC
	if pmuy {
		installation = rates.InstallationAndDemoPMUY
		dgcc = rates.DGCCPMUY
	}

	b := Breakdown{
		Category:                 category,
		CylinderCost:             rates.CylinderPrice * float64(cylinderCount),
		SecurityDepositCylinder:  rates.SecurityDepositCylinder,
		SecurityDepositRegulator: rates.SecurityDepositRegulator,
		InstallationAndDemo:      installation,
		DGCC:                     dgcc,
		VisitCharge:              rates.VisitCharge,
		AdditionalFixedCharge:    rates.AdditionalFixedCharge,
		ExtraCharge:              rates.ExtraCharge,
	}
	b.TotalCost = b.CylinderCost + b.SecurityDepositCylinder + b.SecurityDepositRegulator +
		b.InstallationAndDemo + b.DGCC + b.VisitCharge + b.AdditionalFixedCharge + b.ExtraCharge
	return b, nil
}

// RefillCost prices a refill booking: the cylinder price alone, no
// deposits or one-time charges.
func RefillCost(table RateTable, category string, qty uint32) (float64, error) {
	if table == nil {
		return 0, ErrNoRateTable
	}
	rates, ok := table[category]
	if !ok {
		return 0, fmt.Errorf("pricing: no rates for category %s", category)
	}
	return rates.CylinderPrice * float64(qty), nil
}
