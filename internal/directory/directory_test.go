package directory

import (
	"testing"

	"cafeteria-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterCustomer(t *testing.T) {
	d := New(bcrypt.MinCost)

	c, err := d.RegisterCustomer("1001", "Ana", "555-0101")
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)

	_, err = d.RegisterCustomer("1001", "Other", "555-0102")
	assert.ErrorIs(t, err, models.ErrDuplicateID)

	found, ok := d.FindCustomer("1001")
	assert.True(t, ok)
	assert.Equal(t, "555-0101", found.Phone)

	_, ok = d.FindCustomer("2002")
	assert.False(t, ok)
}

func TestCustomerOrderHistory(t *testing.T) {
	d := New(bcrypt.MinCost)
	_, err := d.RegisterCustomer("1001", "Ana", "555-0101")
	require.NoError(t, err)

	require.NoError(t, d.AppendOrder("1001", 1))
	require.NoError(t, d.AppendOrder("1001", 2))
	require.NoError(t, d.AppendOrder("1001", 3))
	assert.ErrorIs(t, d.AppendOrder("9999", 4), models.ErrCustomerNotFound)

	before, _ := d.FindCustomer("1001")
	d.RemoveOrder("1001", 2)
	d.RemoveOrder("1001", 42)

	after, _ := d.FindCustomer("1001")
	assert.Equal(t, []int64{1, 3}, after.OrderNumbers)
	assert.Equal(t, []int64{1, 2, 3}, before.OrderNumbers)
}

func TestEmployeeCredentials(t *testing.T) {
	d := New(bcrypt.MinCost)

	e, err := d.RegisterEmployee("Amanda Sanchez", "555-1234", "Barista", "amanda", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("s3cret"), e.SecretHash)

	_, err = d.RegisterEmployee("Someone", "555-0000", "Cashier", "amanda", "x")
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)

	got, ok := d.FindEmployee("amanda")
	require.True(t, ok)
	assert.Equal(t, "Barista", got.Role)
	assert.True(t, CheckSecret(got, "s3cret"))
	assert.False(t, CheckSecret(got, "wrong"))

	_, ok = d.FindEmployee("ghost")
	assert.False(t, ok)
}

func TestRestoreKeepsHashes(t *testing.T) {
	src := New(bcrypt.MinCost)
	_, err := src.RegisterEmployee("Carlos", "555-5678", "Cashier", "carlos", "carlos")
	require.NoError(t, err)

	dst := New(bcrypt.MinCost)
	for _, e := range src.Employees() {
		require.NoError(t, dst.RestoreEmployee(e))
	}
	carlos, ok := dst.FindEmployee("carlos")
	require.True(t, ok)
	assert.True(t, CheckSecret(carlos, "carlos"))

	assert.ErrorIs(t, dst.RestoreEmployee(src.Employees()[0]), models.ErrDuplicateUsername)
}
