package model

import (
	"errors"
	"time"
)

// Cylinder stock categories.
const (
	CategoryDomestic   = "Domestic"
	CategoryCommercial = "Commercial"
)

// Stock status values reflecting the last mutation applied.
const (
	StockInStock   = "In-stock"
	StockOnTheWay  = "On-the-way"
	StockDelivered = "Delivered"
)

// ErrInsufficientStock is returned when a book/return requests more
// cylinders than the relevant bucket holds.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrStockInvariant is returned when a mutation would leave
// filled+empty > total.  It is a fatal save-time error, never a warning.
var ErrStockInvariant = errors.New("filled + empty exceeds total cylinders")

var errZeroQuantity = errors.New("quantity must be positive")

// CylinderStock is the per-agency, per-category inventory record.
// Filled + Empty <= Total is a standing invariant re-validated after every
// mutation.
type CylinderStock struct {
	ID        uint64    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	Category  string    `json:"category"`
	Total     uint32    `json:"total_cylinders"`
	Filled    uint32    `json:"filled_cylinders"`
	Empty     uint32    `json:"empty_cylinders"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the standing invariant.
func (s *CylinderStock) Validate() error {
	if s.Filled+s.Empty > s.Total {
		return ErrStockInvariant
	}
	return nil
}

// Book moves qty cylinders out for delivery: filled decreases, empty
// increases (the customer swaps empties).  The receiver is unchanged when
// an error is returned.
func (s *CylinderStock) Book(qty uint32) error {
	if qty == 0 {
		return errZeroQuantity
	}
	if qty > s.Filled {
		return ErrInsufficientStock
	}
	next := *s
	next.Filled -= qty
	next.Empty += qty
	next.Status = StockOnTheWay
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Return completes a delivery round: collected empties go back to filled
// after refilling.  The receiver is unchanged when an error is returned.
func (s *CylinderStock) Return(qty uint32) error {
	if qty == 0 {
		return errZeroQuantity
	}
	if qty > s.Empty {
		return ErrInsufficientStock
	}
	next := *s
	next.Empty -= qty
	next.Filled += qty
	next.Status = StockDelivered
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}
