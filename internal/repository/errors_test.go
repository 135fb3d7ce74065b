package repository

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/auth"
)

func TestScopeClause(t *testing.T) {
	require := require.New(t)

	where, args := scopeClause("hotel_id", auth.Scope{All: true})
	require.Equal("1=1", where)
	require.Empty(args)

	where, args = scopeClause("hotel_id", auth.Scope{})
	require.Equal("1=0", where)
	require.Empty(args)

	where, args = scopeClause("r.hotel_id", auth.Scope{HotelIDs: []uint64{4, 9}})
	require.Equal("r.hotel_id IN (?,?)", where)
	require.Equal([]any{uint64(4), uint64(9)}, args)
}

func TestIsDuplicate(t *testing.T) {
	require := require.New(t)
	require.True(isDuplicate(&mysql.MySQLError{Number: 1062}))
	require.True(isDuplicate(errors.Join(errors.New("insert"), &mysql.MySQLError{Number: 1062})))
	require.False(isDuplicate(&mysql.MySQLError{Number: 1452}))
	require.False(isDuplicate(errors.New("boom")))
}

func TestPage(t *testing.T) {
	require := require.New(t)
	p, l := Page(0, 0)
	require.Equal(1, p)
	require.Equal(20, l)
	p, l = Page(3, 500)
	require.Equal(3, p)
	require.Equal(100, l)
}
