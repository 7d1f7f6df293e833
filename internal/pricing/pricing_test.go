package pricing

import (
	"testing"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

func testAgency() *model.Agency {
	return &model.Agency{ID: 1, Name: "Bharat Gas Bangalore", State: "Karnataka", City: "Bangalore"}
}

// Published worked example for one Domestic cylinder at the default rates.
func TestComputeBreakdownRegularSingleCylinder(t *testing.T) {
	b, err := ComputeBreakdown(DefaultTable(), "Regular", 1, testAgency())
	if err != nil {
		t.Fatal(err)
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"cylinder_cost", b.CylinderCost, 850},
		{"security_deposit_cylinder", b.SecurityDepositCylinder, 2200},
		{"security_deposit_pressure_regulator", b.SecurityDepositRegulator, 150},
		{"installation_and_demo", b.InstallationAndDemo, 118},
		{"dgcc", b.DGCC, 59},
		{"visit_charge", b.VisitCharge, 250},
		{"additional_fixed_charge", b.AdditionalFixedCharge, 60},
		{"extra_charge", b.ExtraCharge, 250},
		{"total_cost", b.TotalCost, 3937},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s=%v, want %v", c.name, c.got, c.want)
		}
	}
	if b.Category != model.CategoryDomestic {
		t.Fatalf("category=%q, want Domestic", b.Category)
	}
}

func TestComputeBreakdownTwoCylinders(t *testing.T) {
	b, err := ComputeBreakdown(DefaultTable(), "Regular", 2, testAgency())
	if err != nil {
		t.Fatal(err)
	}
	if b.CylinderCost != 1700 {
		t.Fatalf("cylinder_cost=%v, want 1700", b.CylinderCost)
	}
	if b.TotalCost != 3937+850 {
		t.Fatalf("total_cost=%v, want %v", b.TotalCost, 3937+850)
	}
}

func TestComputeBreakdownCommercialMapping(t *testing.T) {
	// Anything other than "Regular" is priced as Commercial.
	for _, mode := range []string{"Commercial", "regular", "Hotel", ""} {
		b, err := ComputeBreakdown(DefaultTable(), mode, 1, testAgency())
		if err != nil {
			t.Fatal(err)
		}
		if b.Category != model.CategoryCommercial {
			t.Fatalf("mode %q: category=%q, want Commercial", mode, b.Category)
		}
	}
}

func TestComputeBreakdownTotalIsExactSum(t *testing.T) {
	b, err := ComputeBreakdown(DefaultTable(), "Commercial", 3, testAgency())
	if err != nil {
		t.Fatal(err)
	}
	sum := b.CylinderCost + b.SecurityDepositCylinder + b.SecurityDepositRegulator +
		b.InstallationAndDemo + b.DGCC + b.VisitCharge + b.AdditionalFixedCharge + b.ExtraCharge
	if b.TotalCost != sum {
		t.Fatalf("total_cost=%v, want exact sum %v", b.TotalCost, sum)
	}
}

func TestComputeBreakdownFailures(t *testing.T) {
	if _, err := ComputeBreakdown(nil, "Regular", 1, testAgency()); err != ErrNoRateTable {
		t.Fatalf("nil table: err=%v, want ErrNoRateTable", err)
	}
	if _, err := ComputeBreakdown(DefaultTable(), "Regular", 1, nil); err != ErrAgencyNotFound {
		t.Fatalf("nil agency: err=%v, want ErrAgencyNotFound", err)
	}
}

func TestRefillCost(t *testing.T) {
	table := DefaultTable()
	if got, err := RefillCost(table, model.CategoryDomestic, 2); err != nil || got != 1700 {
		t.Fatalf("domestic x2 = %v, %v; want 1700", got, err)
	}
	if got, err := RefillCost(table, model.CategoryCommercial, 1); err != nil || got != 1850 {
		t.Fatalf("commercial x1 = %v, %v; want 1850", got, err)
	}
	if _, err := RefillCost(nil, model.CategoryDomestic, 1); err != ErrNoRateTable {
		t.Fatalf("nil table: err=%v, want ErrNoRateTable", err)
	}
	if _, err := RefillCost(table, "LPG-XL", 1); err == nil {
		t.Fatal("unknown category must fail")
	}
}

func TestLoadTableDefaults(t *testing.T) {
	table, err := LoadTable("")
	if err != nil {
		t.Fatal(err)
	}
	if table[model.CategoryDomestic].CylinderPrice != 850 {
		t.Fatalf("default domestic price=%v", table[model.CategoryDomestic].CylinderPrice)
	}
	if _, err := LoadTable("/nonexistent/rates.json"); err == nil {
		t.Fatal("missing file must fail, not fall back")
	}
}
