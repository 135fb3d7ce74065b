package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay(" 2024-06-01 ")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDay("2024-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDay("01/06/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCheckRange(t *testing.T) {
	a := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, CheckRange(a, a))
	assert.NoError(t, CheckRange(a, a.AddDate(0, 0, 5)))
	assert.ErrorIs(t, CheckRange(a, a.AddDate(0, 0, -1)), ErrEndBeforeStart)
	assert.ErrorIs(t, CheckRange(a, a.AddDate(3, 0, 0)), ErrRangeTooLong)
}

func TestDaysIsHalfOpen(t *testing.T) {
	a := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	days := Days(a, a.AddDate(0, 0, 3))
	assert.Len(t, days, 3)
	assert.Equal(t, "2024-02-29", FormatDay(days[1]))
	assert.Empty(t, Days(a, a))
}

func TestPatchValidate(t *testing.T) {
	neg := -1
	zero := 0
	negPrice := decimal.RequireFromString("-0.01")
	yes := true

	assert.ErrorIs(t, Patch{}.Validate(), ErrEmptyPatch)
	assert.ErrorIs(t, Patch{Allotment: &neg}.Validate(), ErrNegativeAllotment)
	assert.ErrorIs(t, Patch{Price: &negPrice}.Validate(), ErrNegativePrice)
	assert.NoError(t, Patch{Allotment: &zero}.Validate())
	assert.NoError(t, Patch{StopSell: &yes}.Validate())
}
