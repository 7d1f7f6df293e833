package idgen

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// memSequence is an in-memory Sequence for tests.
type memSequence struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

func newMemSequence() *memSequence { return &memSequence{seqs: map[string]uint64{}} }

func (m *memSequence) Next(_ context.Context, key string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[key]++
	return m.seqs[key], nil
}

func TestSequenceDistinctValues(t *testing.T) {
	seq := newMemSequence()
	const n = 100
	seen := make(map[uint64]bool, n)
	for i := 0; i < n; i++ {
		v, err := seq.Next(context.Background(), "registration")
		if err != nil {
			t.Fatal(err)
		}
		if seen[v] {
			t.Fatalf("duplicate sequence value %d", v)
		}
		if v != uint64(i+1) {
			t.Fatalf("gap in sequence: got %d, want %d", v, i+1)
		}
		seen[v] = true
	}
	// A second key starts its own sequence at 1.
	if v, _ := seq.Next(context.Background(), "other"); v != 1 {
		t.Fatalf("new key started at %d, want 1", v)
	}
}

func TestRegistrationIDPattern(t *testing.T) {
	now := time.Date(2025, time.March, 9, 10, 0, 0, 0, time.UTC)
	got := RegistrationID(now, 42)
	want := "REG2503000000000042"
	if got != want {
		t.Fatalf("RegistrationID=%q, want %q", got, want)
	}
	re := regexp.MustCompile(`^REG\d{2}\d{2}\d{12}$`)
	if !re.MatchString(got) {
		t.Fatalf("RegistrationID %q does not match pattern", got)
	}
}

func TestAgencyRegistrationRef(t *testing.T) {
	now := time.Date(2025, time.March, 9, 10, 0, 0, 0, time.UTC)
	if got := AgencyRegistrationRef(now, 12); got != "25000012" {
		t.Fatalf("AgencyRegistrationRef=%q, want 25000012", got)
	}
}

func TestAgencyID(t *testing.T) {
	got, err := AgencyID("Karnataka", "Bangalore", 7)
	if err != nil {
		t.Fatal(err)
	}
	if got != "KABA000007" {
		t.Fatalf("AgencyID=%q, want KABA000007", got)
	}

	// Missing derivation inputs must fail loudly, never produce a malformed ID.
	var missing *model.MissingFieldError
	if _, err := AgencyID("", "Bangalore", 1); !errors.As(err, &missing) || missing.Field != "state" {
		t.Fatalf("blank state: err=%v", err)
	}
	if _, err := AgencyID("Karnataka", "B", 1); !errors.As(err, &missing) || missing.Field != "city" {
		t.Fatalf("short city: err=%v", err)
	}
}

func TestAgencyPrefixMultiByte(t *testing.T) {
	// Names starting with multi-byte runes must yield whole runes in the
	// prefix, never a split byte sequence.
	got, err := AgencyPrefix("Île-de-France", "Paris")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ÎLPA" {
		t.Fatalf("AgencyPrefix=%q, want ÎLPA", got)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("prefix %q contains a replacement rune", got)
		}
	}

	// A single multi-byte rune is still too short even though it spans
	// two bytes.
	var missing *model.MissingFieldError
	if _, err := AgencyPrefix("Î", "Paris"); !errors.As(err, &missing) || missing.Field != "state" {
		t.Fatalf("one-rune state: err=%v", err)
	}
}

func TestCustomerAndEmployeeID(t *testing.T) {
	cid, err := CustomerID("KABA000007", 15)
	if err != nil {
		t.Fatal(err)
	}
	if cid != "KABA000015" {
		t.Fatalf("CustomerID=%q, want KABA000015", cid)
	}

	eid, err := EmployeeID("KABA000007", 3)
	if err != nil {
		t.Fatal(err)
	}
	if eid != "KABAEMP000003" {
		t.Fatalf("EmployeeID=%q, want KABAEMP000003", eid)
	}
	if m := regexp.MustCompile(`^[A-Z]{4}EMP\d{6}$`); !m.MatchString(eid) {
		t.Fatalf("EmployeeID %q does not match format", eid)
	}

	var missing *model.MissingFieldError
	if _, err := CustomerID("", 1); !errors.As(err, &missing) {
		t.Fatalf("blank agency prefix: err=%v", err)
	}
	if _, err := EmployeeID("KA", 1); !errors.As(err, &missing) {
		t.Fatalf("short agency prefix: err=%v", err)
	}
}

// Customer IDs generated from a serialized sequence must be strictly
// increasing in the numeric suffix.
func TestCustomerIDsStrictlyIncreasing(t *testing.T) {
	seq := newMemSequence()
	key := CustomerKey("KABA000001")
	var last uint64
	for i := 0; i < 20; i++ {
		n, err := seq.Next(context.Background(), key)
		if err != nil {
			t.Fatal(err)
		}
		id, err := CustomerID("KABA000001", n)
		if err != nil {
			t.Fatal(err)
		}
		suffix, ok := NumericSuffix(id, "KABA")
		if !ok {
			t.Fatalf("cannot parse suffix of %q", id)
		}
		if suffix <= last {
			t.Fatalf("suffix not increasing: %d after %d", suffix, last)
		}
		last = suffix
	}
}

func TestBookingAndAssignmentID(t *testing.T) {
	now := time.Date(2025, time.July, 1, 14, 30, 5, 0, time.UTC)
	bid := BookingID(now, 12)
	if bid != "BK250701000012143005" {
		t.Fatalf("BookingID=%q", bid)
	}
	aid := AssignmentID(now, 3)
	if m := regexp.MustCompile(`^ASG\d+\d{4}$`); !m.MatchString(aid) {
		t.Fatalf("AssignmentID %q does not match format", aid)
	}
}

func TestNumericSuffix(t *testing.T) {
	cases := []struct {
		id, prefix string
		want       uint64
		ok         bool
	}{
		{"KABA000015", "KABA", 15, true},
		{"KABAEMP000003", "KABAEMP", 3, true},
		{"KABA000015", "MHPU", 0, false},
		{"KABA", "KABA", 0, false},
		{"KABAxyz", "KABA", 0, false},
	}
	for _, tt := range cases {
		got, ok := NumericSuffix(tt.id, tt.prefix)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("NumericSuffix(%q,%q)=(%d,%v), want (%d,%v)", tt.id, tt.prefix, got, ok, tt.want, tt.ok)
		}
	}
}
