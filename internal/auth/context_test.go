package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

func hotel(id uint64) *uint64 { return &id }

func TestReadScopeHotelBound(t *testing.T) {
	a := Context{UserID: 1, Role: model.RoleHotelStaff, HotelID: hotel(4)}
	s, err := a.ReadScope([]uint64{9})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, s.HotelIDs)
	assert.True(t, s.Allows(4))
	assert.False(t, s.Allows(9))

	_, err = Context{Role: model.RoleHotelAdmin}.ReadScope(nil)
	assert.ErrorIs(t, err, ErrNoHotel)
}

func TestReadScopeMaster(t *testing.T) {
	m := Context{UserID: 1, Role: model.RoleMasterAdmin}

	s, err := m.ReadScope(nil)
	require.NoError(t, err)
	assert.True(t, s.All)
	assert.True(t, s.Allows(123))

	s, err = m.ReadScope([]uint64{2, 3})
	require.NoError(t, err)
	assert.False(t, s.All)
	assert.True(t, s.Allows(3))
	_, single := s.Single()
	assert.False(t, single)

	m.HotelID = hotel(8)
	s, err = m.ReadScope([]uint64{2})
	require.NoError(t, err)
	id, ok := s.Single()
	assert.True(t, ok)
	assert.Equal(t, uint64(8), id)
}

func TestWriteHotel(t *testing.T) {
	staff := Context{Role: model.RoleHotelStaff, HotelID: hotel(4)}
	id, err := staff.WriteHotel(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)
	_, err = staff.WriteHotel(5)
	assert.ErrorIs(t, err, ErrOutOfScope)

	master := Context{Role: model.RoleMasterAdmin}
	_, err = master.WriteHotel(0)
	assert.ErrorIs(t, err, ErrHotelRequired)
	id, err = master.WriteHotel(6)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), id)
}

func TestParseHotelIDs(t *testing.T) {
	assert.Equal(t, []uint64{3, 7}, ParseHotelIDs(" 3, x ,7,,0"))
	assert.Nil(t, ParseHotelIDs(""))
}

func TestContextRoundTrip(t *testing.T) {
	a := Context{UserID: 5, Role: model.RoleHotelAdmin, HotelID: hotel(2)}
	got, ok := FromContext(WithContext(context.Background(), a))
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
