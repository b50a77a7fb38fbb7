package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudent_DerivedNames(t *testing.T) {
	t.Parallel()

	s := Student{FirstName: "Ann", LastName: "Lee", Address: "1 High St", Postcode: "SW1A 1AA"}
	assert.Equal(t, "Ann Lee", s.FullName())
	assert.Equal(t, "1 High St, SW1A 1AA", s.FullAddress())

	s.Postcode = ""
	assert.Equal(t, "1 High St", s.FullAddress())

	s.LastName = ""
	assert.Equal(t, "Ann", s.FullName())
}

func TestAccount_BackfillStudentIDs(t *testing.T) {
	t.Parallel()

	a := Account{Students: []Student{
		{FirstName: "A", LastName: "B", Email: "a@b.co"},
		{ID: "keep", FirstName: "C"},
	}}
	got := a.BackfillStudentIDs()

	require.Len(t, got.Students, 2)
	assert.Equal(t, LegacyStudentID(a.Students[0].Key()), got.Students[0].ID)
	assert.Equal(t, StudentID("keep"), got.Students[1].ID)
	assert.Empty(t, a.Students[0].ID, "input must not be mutated")
	assert.Equal(t, got.Students[0].ID, a.BackfillStudentIDs().Students[0].ID, "legacy ids are stable")
}

func TestValidAccountID(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidAccountID("abc_DEF-123"))
	assert.False(t, ValidAccountID(""))
	assert.False(t, ValidAccountID("auth0|123"))
	assert.False(t, ValidAccountID(AccountID(strings.Repeat("a", 129))))
}
