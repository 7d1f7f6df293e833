package model

import "testing"

func TestStockBook(t *testing.T) {
	cases := []struct {
		name       string
		stock      CylinderStock
		qty        uint32
		wantErr    error
		wantFilled uint32
		wantEmpty  uint32
	}{
		{"simple", CylinderStock{Total: 10, Filled: 8, Empty: 2}, 3, nil, 5, 5},
		{"all filled", CylinderStock{Total: 10, Filled: 10, Empty: 0}, 10, nil, 0, 10},
		{"exceeds filled", CylinderStock{Total: 10, Filled: 2, Empty: 2}, 3, ErrInsufficientStock, 2, 2},
		{"zero qty", CylinderStock{Total: 10, Filled: 5, Empty: 0}, 0, errZeroQuantity, 5, 0},
	}
	for _, tt := range cases {
		s := tt.stock
		err := s.Book(tt.qty)
		if err != tt.wantErr {
			t.Fatalf("%s: Book(%d)=%v, want %v", tt.name, tt.qty, err, tt.wantErr)
		}
		if s.Filled != tt.wantFilled || s.Empty != tt.wantEmpty {
			t.Fatalf("%s: got filled=%d empty=%d, want %d/%d", tt.name, s.Filled, s.Empty, tt.wantFilled, tt.wantEmpty)
		}
		if err == nil && s.Status != StockOnTheWay {
			t.Fatalf("%s: status=%q, want %q", tt.name, s.Status, StockOnTheWay)
		}
	}
}

func TestStockReturn(t *testing.T) {
	cases := []struct {
		name       string
		stock      CylinderStock
		qty        uint32
		wantErr    error
		wantFilled uint32
		wantEmpty  uint32
	}{
		{"simple", CylinderStock{Total: 10, Filled: 5, Empty: 5}, 5, nil, 10, 0},
		{"exceeds empty", CylinderStock{Total: 10, Filled: 8, Empty: 2}, 3, ErrInsufficientStock, 8, 2},
	}
	for _, tt := range cases {
		s := tt.stock
		err := s.Return(tt.qty)
		if err != tt.wantErr {
			t.Fatalf("%s: Return(%d)=%v, want %v", tt.name, tt.qty, err, tt.wantErr)
		}
		if s.Filled != tt.wantFilled || s.Empty != tt.wantEmpty {
			t.Fatalf("%s: got filled=%d empty=%d, want %d/%d", tt.name, s.Filled, s.Empty, tt.wantFilled, tt.wantEmpty)
		}
	}
}

// The invariant must hold after every operation in any book/return sequence,
// and a violating operation must leave the record untouched.
func TestStockInvariantHeldAcrossSequence(t *testing.T) {
	s := CylinderStock{Total: 6, Filled: 6, Empty: 0}
	ops := []struct {
		book bool
		qty  uint32
		ok   bool
	}{
		{true, 2, true},
		{true, 4, true},
		{true, 1, false}, // nothing filled left
		{false, 6, true},
		{false, 1, false}, // nothing empty left
		{true, 6, true},
	}
	for i, op := range ops {
		before := s
		var err error
		if op.book {
			err = s.Book(op.qty)
		} else {
			err = s.Return(op.qty)
		}
		if (err == nil) != op.ok {
			t.Fatalf("op %d: err=%v, want ok=%v", i, err, op.ok)
		}
		if err != nil && s != before {
			t.Fatalf("op %d: failed operation mutated stock: %+v -> %+v", i, before, s)
		}
		if s.Filled+s.Empty > s.Total {
			t.Fatalf("op %d: invariant violated: %+v", i, s)
		}
	}
}

func TestStockValidate(t *testing.T) {
	bad := CylinderStock{Total: 4, Filled: 3, Empty: 2}
	if err := bad.Validate(); err != ErrStockInvariant {
		t.Fatalf("Validate()=%v, want ErrStockInvariant", err)
	}
}
