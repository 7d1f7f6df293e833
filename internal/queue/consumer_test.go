package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func readLog(t *testing.T, dir string) string {
	t.Helper()
	bs, err := os.ReadFile(filepath.Join(dir, "logs", logFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(bs)
}

func TestHandleBookingCreated(t *testing.T) {
	dir := chdirTemp(t)

	ev := BookingCreatedEvent{
		BookingID:  "BK250701000012143005",
		CustomerID: "KABA000015",
		AgencyID:   "KABA000001",
		Category:   "Domestic",
		Quantity:   2,
		Amount:     1700,
		PaymentRef: "ref-1",
		CreatedAt:  "2025-07-01 14:30:05",
	}
	body, _ := json.Marshal(ev)
	if err := handleBookingCreated(body); err != nil {
		t.Fatalf("handleBookingCreated: %v", err)
	}

	line := readLog(t, dir)
	for _, want := range []string{"Booking created", ev.BookingID, ev.CustomerID, "qty=2", "amount=1700.00"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestHandleDeliveryCompleted(t *testing.T) {
	dir := chdirTemp(t)

	ev := DeliveryCompletedEvent{
		AssignmentID:     "ASG17514567890001",
		BookingID:        "BK250701000012143005",
		EmployeeID:       "KABAEMP000003",
		AgencyID:         "KABA000001",
		FilledDelivered:  2,
		EmptiesCollected: 2,
		PaymentStatus:    "COLLECTED",
		CompletedAt:      "2025-07-01 16:00:00",
	}
	body, _ := json.Marshal(ev)
	if err := handleDeliveryCompleted(body); err != nil {
		t.Fatalf("handleDeliveryCompleted: %v", err)
	}

	line := readLog(t, dir)
	for _, want := range []string{"Delivery completed", ev.AssignmentID, ev.EmployeeID, "empties=2", "payment=COLLECTED"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestHandleBookingCreatedBadPayload(t *testing.T) {
	chdirTemp(t)
	if err := handleBookingCreated([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
