package validator

import (
	"context"
	"errors"
	"testing"

	"powerchip/internal/domain/model"
	"powerchip/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in validator tests")
}
func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	panic("not used in validator tests")
}
func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *UserRepoMock) Count(ctx context.Context) (int64, error) {
	panic("not used in validator tests")
}
func (m *UserRepoMock) ListAdmin(ctx context.Context, f repository.AdminUserListFilter) ([]model.User, int64, error) {
	panic("not used in validator tests")
}
func (m *UserRepoMock) UpdateRole(ctx context.Context, userID int64, role model.Role) error {
	panic("not used in validator tests")
}
func (m *UserRepoMock) Delete(ctx context.Context, userID int64) error {
	panic("not used in validator tests")
}
func (m *UserRepoMock) HasOrders(ctx context.Context, userID int64) (bool, error) {
	panic("not used in validator tests")
}

func TestIsCPF(t *testing.T) {
	assert.True(t, IsCPF("529.982.247-25"))
	assert.True(t, IsCPF("52998224725"))
	assert.False(t, IsCPF("529.982.247-26"))
	assert.False(t, IsCPF("111.111.111-11"))
	assert.False(t, IsCPF("1234"))
}

func TestIsCNPJ(t *testing.T) {
	assert.True(t, IsCNPJ("11.222.333/0001-81"))
	assert.False(t, IsCNPJ("11.222.333/0001-82"))
	assert.False(t, IsCNPJ("00000000000000"))
	assert.Equal(t, "CNPJ", TaxIDType("11.222.333/0001-81"))
	assert.Equal(t, "CPF", TaxIDType("529.982.247-25"))
}

func TestIsCEP(t *testing.T) {
	assert.True(t, IsCEP("01310-100"))
	assert.False(t, IsCEP("00000-000"))
	assert.False(t, IsCEP("0131010"))
}

func TestValidateShippingAddress(t *testing.T) {
	ok := model.ShippingAddress{Street: "Av. Paulista", Number: "1000", City: "São Paulo", State: "sp", ZipCode: "01310100"}
	require.NoError(t, ValidateShippingAddress(ok))

	bad := ok
	bad.State = "XX"
	err := ValidateShippingAddress(bad)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "shipping_address.state invalid", err.Error())

	n := NormalizeShippingAddress(ok)
	assert.Equal(t, "SP", n.State)
	assert.Equal(t, "01310-100", n.ZipCode)
	assert.Equal(t, "Brasil", n.Country)
}

func TestAuthValidator_ValidateRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid email", func(t *testing.T) {
		v := NewAuthValidator(new(UserRepoMock))
		err := v.ValidateRegister(ctx, "a..b@example.com", "password123", "Ana", "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("short password", func(t *testing.T) {
		v := NewAuthValidator(new(UserRepoMock))
		err := v.ValidateRegister(ctx, "ana@example.com", "short", "Ana", "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("invalid cpf", func(t *testing.T) {
		v := NewAuthValidator(new(UserRepoMock))
		err := v.ValidateRegister(ctx, "ana@example.com", "password123", "Ana", "123.456.789-00")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("email already used", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("FindByEmail", mock.Anything, "ana@example.com").Return(model.User{ID: 1}, nil)

		err := NewAuthValidator(users).ValidateRegister(ctx, "Ana@example.com", "password123", "Ana", "")
		require.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("ok", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("FindByEmail", mock.Anything, "ana@example.com").Return(model.User{}, repository.ErrNotFound)

		err := NewAuthValidator(users).ValidateRegister(ctx, "ana@example.com", "password123", "Ana Souza", "529.982.247-25")
		require.NoError(t, err)
	})

	t.Run("db error", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("FindByEmail", mock.Anything, "ana@example.com").Return(model.User{}, errors.New("boom"))

		err := NewAuthValidator(users).ValidateRegister(ctx, "ana@example.com", "password123", "Ana", "")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrInvalidInput))
	})
}
