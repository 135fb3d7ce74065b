package inventory

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyPatch        = errors.New("at least one of price, allotment, stop_sell is required")
	ErrNegativePrice     = errors.New("price must be >= 0")
	ErrNegativeAllotment = errors.New("allotment must be >= 0")
)

// Patch carries the fields a range update overwrites.  Nil fields are
// left untouched on existing days.  Days created by the update start with
// no price, zero allotment and stop-sell off before the patch applies.
type Patch struct {
	Price     *decimal.Decimal `json:"price"`
	Allotment *int             `json:"allotment"`
	StopSell  *bool            `json:"stop_sell"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Price == nil && p.Allotment == nil && p.StopSell == nil
}

// Validate checks the patch before it is applied.
func (p Patch) Validate() error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.Price != nil && p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Allotment != nil && *p.Allotment < 0 {
		return ErrNegativeAllotment
	}
	return nil
}
