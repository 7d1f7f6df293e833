// Package idgen formats the human-readable business identifiers used across
// the system.  Sequence numbers come from a durable counter store (see
// repository.CounterRepo); the functions here are pure and fail loudly when
// a derivation input is missing instead of emitting a malformed ID.
package idgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// Sequence is the atomic increment-and-fetch contract backing every
// generator.  Next returns 1 on the first call for a key and no two callers
// ever observe the same value for the same key.
type Sequence interface {
	Next(ctx context.Context, key string) (uint64, error)
}

// MaxAttempts bounds retry-after-duplicate-key during ID assignment.
// Exhausting it is a permanent generation failure; the surrounding approval
// must be rolled back, never left half-applied.
const MaxAttempts = 5

// Counter keys.  Per-scope keys carry the scope after a colon.
const (
	KeyRegistration       = "registration"
	KeyAgencyRegistration = "agency_registration"
	KeyAssignment         = "assignment"
	KeyBooking            = "booking"
)

// AgencyKey returns the counter key for agency IDs scoped to a
// state+city prefix, e.g. "agency:KABL".
func AgencyKey(prefix string) string { return "agency:" + prefix }

// CustomerKey returns the per-agency counter key for customer IDs.
func CustomerKey(agencyID string) string { return "customer:" + agencyID }

// EmployeeKey returns the per-agency counter key for employee IDs.
func EmployeeKey(agencyID string) string { return "employee:" + agencyID }

// RegistrationID formats the provisional ID assigned to every new
// application: REG + 2-digit year + 2-digit month + 12-digit sequence.
func RegistrationID(now time.Time, seq uint64) string {
	return fmt.Sprintf("REG%02d%02d%012d", now.Year()%100, int(now.Month()), seq)
}

// AgencyRegistrationRef formats the provisional reference an agency
// application carries before approval: 2-digit year + 6-digit sequence.
func AgencyRegistrationRef(now time.Time, seq uint64) string {
	return fmt.Sprintf("%02d%06d", now.Year()%100, seq)
}

// AgencyPrefix derives the 4-letter AgencyID prefix from free-text state
// and city names: first two runes of each, uppercased.  Collisions across
// similarly named cities are an accepted limitation.  Inputs shorter than
// two runes are a hard error.
func AgencyPrefix(state, city string) (string, error) {
	st := []rune(strings.TrimSpace(state))
	ct := []rune(strings.TrimSpace(city))
	if len(st) < 2 {
		return "", &model.MissingFieldError{Entity: "agency", Field: "state"}
	}
	if len(ct) < 2 {
		return "", &model.MissingFieldError{Entity: "agency", Field: "city"}
	}
	return strings.ToUpper(string(st[:2]) + string(ct[:2])), nil
}

// AgencyID formats a permanent agency ID: state+city prefix + 6-digit
// per-(state,city) sequence.
func AgencyID(state, city string, seq uint64) (string, error) {
	prefix, err := AgencyPrefix(state, city)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

// CustomerID formats a permanent customer ID from the owning agency's
// 4-letter prefix and a per-agency sequence.
func CustomerID(agencyID string, seq uint64) (string, error) {
	prefix, err := ownerPrefix(agencyID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

// EmployeeID formats a permanent employee ID:
// <4-letter agency prefix>EMP<6-digit sequence>.
func EmployeeID(agencyID string, seq uint64) (string, error) {
	prefix, err := ownerPrefix(agencyID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sEMP%06d", prefix, seq), nil
}

// BookingID formats a booking ID: BK + yymmdd + 6-digit sequence + hhmmss.
// The time-of-day suffix makes a retried sequence collide only if generated
// within the same second.
func BookingID(now time.Time, seq uint64) string {
	return fmt.Sprintf("BK%s%06d%s", now.Format("060102"), seq, now.Format("150405"))
}

// AssignmentID formats an assignment ID: ASG + unix timestamp + 4-digit
// sequence.  The sequence comes from the shared counter store, so the
// timestamp is informational rather than load-bearing for uniqueness.
func AssignmentID(now time.Time, seq uint64) string {
	return fmt.Sprintf("ASG%d%04d", now.Unix(), seq%10000)
}

// ownerPrefix extracts the 4-letter prefix from a generated AgencyID.
func ownerPrefix(agencyID string) (string, error) {
	id := []rune(strings.TrimSpace(agencyID))
	if len(id) < 4 {
		return "", &model.MissingFieldError{Entity: "customer", Field: "agency prefix"}
	}
	return strings.ToUpper(string(id[:4])), nil
}

// NumericSuffix parses the trailing digits of an ID after the given prefix.
// It is used to seed per-agency counters from the highest already-assigned
// ID when a counter key has no row yet.
func NumericSuffix(id, prefix string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	rest := id[len(prefix):]
	if rest == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
