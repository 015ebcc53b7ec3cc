package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type memUsers map[uuid.UUID]*domain.User

func (m memUsers) Create(_ context.Context, u *domain.User) error { m[u.ID] = u; return nil }
func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
func (m memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memMinoristas map[uuid.UUID]*domain.Minorista

func (m memMinoristas) Create(_ context.Context, x *domain.Minorista) error { m[x.ID] = x; return nil }
func (m memMinoristas) GetByID(_ context.Context, id uuid.UUID) (*domain.Minorista, error) {
	if x, ok := m[id]; ok {
		return x, nil
	}
	return nil, domain.ErrNotFound
}
func (m memMinoristas) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Minorista, error) {
	for _, x := range m {
		if x.UserID == userID {
			return x, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memAgents map[uuid.UUID]*domain.Transferencista

func (m memAgents) Create(_ context.Context, t *domain.Transferencista) error {
	m[t.ID] = t
	return nil
}
func (m memAgents) GetByID(_ context.Context, id uuid.UUID) (*domain.Transferencista, error) {
	if t, ok := m[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}
func (m memAgents) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Transferencista, error) {
	for _, t := range m {
		if t.UserID == userID {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m memAgents) SetAvailable(_ context.Context, id uuid.UUID, available bool) error {
	t, ok := m[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Available = available
	return nil
}

type memBanks map[uuid.UUID]*domain.Bank

func (m memBanks) Create(_ context.Context, b *domain.Bank) error { m[b.ID] = b; return nil }
func (m memBanks) GetByID(_ context.Context, id uuid.UUID) (*domain.Bank, error) {
	if b, ok := m[id]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}
func (m memBanks) List(context.Context) ([]domain.Bank, error) {
	out := make([]domain.Bank, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	return out, nil
}

type memAccounts map[uuid.UUID]*domain.BankAccount

func (m memAccounts) Create(_ context.Context, a *domain.BankAccount) error { m[a.ID] = a; return nil }
func (m memAccounts) GetByID(_ context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	if a, ok := m[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}
func (m memAccounts) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.BankAccount, error) {
	var out []domain.BankAccount
	for _, a := range m {
		if a.OwnerID != nil && *a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func newAccountService() *AccountService {
	return NewAccountService(AccountDeps{
		Users:            memUsers{},
		Minoristas:       memMinoristas{},
		Transferencistas: memAgents{},
		Banks:            memBanks{},
		BankAccounts:     memAccounts{},
	}, decimal.RequireFromString("0.05"))
}

func TestCreateUser(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, " Ana@Example.com ", "Ana", domain.RoleMinorista)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, domain.UserStatusActive, u.Status)

	_, err = svc.CreateUser(ctx, "ana@example.com", "Ana again", domain.RoleMinorista)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = svc.CreateUser(ctx, "not-an-email", "X", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	_, err = svc.CreateUser(ctx, "x@example.com", "X", "OWNER")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateMinorista(t *testing.T) {
	ctx := context.Background()

	t.Run("opens with full limit and default pct", func(t *testing.T) {
		svc := newAccountService()
		u, err := svc.CreateUser(ctx, "shop@example.com", "Shop", domain.RoleMinorista)
		require.NoError(t, err)

		m, err := svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: u.ID, CreditLimit: decimal.RequireFromString("500.00")})
		require.NoError(t, err)
		assert.True(t, m.AvailableCredit.Equal(m.CreditLimit))
		assert.True(t, m.CreditBalance.IsZero())
		assert.True(t, m.ExternalDebt.IsZero())
		assert.Equal(t, "0.05", m.ProfitPercentage.String())
		assert.Equal(t, "Shop", m.BusinessName)

		_, err = svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: u.ID, CreditLimit: decimal.Zero})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("custom pct", func(t *testing.T) {
		svc := newAccountService()
		u, _ := svc.CreateUser(ctx, "shop@example.com", "Shop", domain.RoleMinorista)
		pct := decimal.RequireFromString("0.0300")
		m, err := svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: u.ID, CreditLimit: decimal.Zero, ProfitPercentage: &pct})
		require.NoError(t, err)
		assert.True(t, m.ProfitPercentage.Equal(pct))
	})

	t.Run("rejects", func(t *testing.T) {
		svc := newAccountService()
		u, _ := svc.CreateUser(ctx, "shop@example.com", "Shop", domain.RoleMinorista)
		agent, _ := svc.CreateUser(ctx, "agent@example.com", "Agent", domain.RoleTransferencista)
		bad := decimal.RequireFromString("1.5")

		_, err := svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: agent.ID, CreditLimit: decimal.Zero})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		_, err = svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: u.ID, CreditLimit: decimal.RequireFromString("-1")})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: u.ID, CreditLimit: decimal.Zero, ProfitPercentage: &bad})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		_, err = svc.CreateMinorista(ctx, CreateMinoristaRequest{UserID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCreateBankAccount(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()

	bank, err := svc.CreateBank(ctx, "Banesco", 134, domain.CurrencyVES)
	require.NoError(t, err)
	u, _ := svc.CreateUser(ctx, "agent@example.com", "Agent", domain.RoleTransferencista)
	agent, err := svc.CreateTransferencista(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, agent.Available)

	acct, err := svc.CreateBankAccount(ctx, CreateBankAccountRequest{
		BankID:        bank.ID,
		OwnerType:     domain.BankAccountOwnerTransferencista,
		OwnerID:       &agent.ID,
		AccountHolder: "Agent",
		AccountType:   domain.BankAccountTypeCorriente,
	})
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
	assert.True(t, acct.OwnedBy(agent.ID))

	owned, err := svc.ListBankAccounts(ctx, agent.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	_, err = svc.CreateBankAccount(ctx, CreateBankAccountRequest{
		BankID:        bank.ID,
		OwnerType:     domain.BankAccountOwnerPlatform,
		OwnerID:       &agent.ID,
		AccountHolder: "Platform",
		AccountType:   domain.BankAccountTypeAhorros,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CreateBankAccount(ctx, CreateBankAccountRequest{
		BankID:        uuid.New(),
		OwnerType:     domain.BankAccountOwnerPlatform,
		AccountHolder: "Platform",
		AccountType:   domain.BankAccountTypeAhorros,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.SetAvailability(ctx, agent.ID, false))
	got, err := svc.GetTransferencista(ctx, agent.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}
