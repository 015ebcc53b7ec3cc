package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

// AccountService manages the parties a giro touches: users, minoristas,
// transferencistas, banks and bank accounts. Balances are never written here;
// they move only through the ledger recorder.
type AccountService struct {
	users            userRepository
	minoristas       minoristaRepository
	transferencistas transferencistaRepository
	banks            bankRepository
	accounts         bankAccountRepository
	defaultPct       decimal.Decimal
	now              func() time.Time
}

type AccountDeps struct {
	Users            userRepository
	Minoristas       minoristaRepository
	Transferencistas transferencistaRepository
	Banks            bankRepository
	BankAccounts     bankAccountRepository
}

func NewAccountService(d AccountDeps, defaultProfitPct decimal.Decimal) *AccountService {
	return &AccountService{
		users:            d.Users,
		minoristas:       d.Minoristas,
		transferencistas: d.Transferencistas,
		banks:            d.Banks,
		accounts:         d.BankAccounts,
		defaultPct:       defaultProfitPct,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) CreateUser(ctx context.Context, email, name string, role domain.Role) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("CreateUser: email: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("CreateUser: name: %w", domain.ErrInvalidRequest)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("CreateUser: role %q: %w", role, domain.ErrInvalidRequest)
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("CreateUser: %w", domain.ErrDuplicate)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("CreateUser: check existing: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		Status:    domain.UserStatusActive,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}

	logging.FromContext(ctx).Info("user created", "user_id", user.ID, "role", role)
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return user, nil
}

type CreateMinoristaRequest struct {
	UserID       uuid.UUID
	BusinessName string
	CreditLimit  decimal.Decimal
	// ProfitPercentage falls back to the configured default when nil.
	ProfitPercentage *decimal.Decimal
}

// CreateMinorista opens a credit account with the full limit available and
// no balance in favor or debt.
func (s *AccountService) CreateMinorista(ctx context.Context, req CreateMinoristaRequest) (*domain.Minorista, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("CreateMinorista: user: %w", err)
	}
	if user.Role != domain.RoleMinorista {
		return nil, fmt.Errorf("CreateMinorista: user role %s: %w", user.Role, domain.ErrInvalidRequest)
	}
	if req.CreditLimit.IsNegative() || !req.CreditLimit.Equal(domain.RoundMoney(req.CreditLimit)) {
		return nil, fmt.Errorf("CreateMinorista: credit limit: %w", domain.ErrInvalidAmount)
	}

	pct := s.defaultPct
	if req.ProfitPercentage != nil {
		pct = *req.ProfitPercentage
	}
	if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("CreateMinorista: profit percentage %s: %w", pct, domain.ErrInvalidRequest)
	}

	_, err = s.minoristas.GetByUserID(ctx, req.UserID)
	if err == nil {
		return nil, fmt.Errorf("CreateMinorista: %w", domain.ErrDuplicate)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("CreateMinorista: check existing: %w", err)
	}

	now := s.now()
	name := strings.TrimSpace(req.BusinessName)
	if name == "" {
		name = user.Name
	}
	m := &domain.Minorista{
		ID:               uuid.New(),
		UserID:           req.UserID,
		BusinessName:     name,
		CreditLimit:      req.CreditLimit,
		AvailableCredit:  req.CreditLimit,
		CreditBalance:    decimal.Zero,
		ExternalDebt:     decimal.Zero,
		ProfitPercentage: pct,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.minoristas.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("CreateMinorista: %w", err)
	}

	logging.FromContext(ctx).Info("minorista created",
		"minorista_id", m.ID,
		"user_id", m.UserID,
		"credit_limit", m.CreditLimit.String(),
		"profit_percentage", pct.String(),
	)
	return m, nil
}

func (s *AccountService) GetMinorista(ctx context.Context, id uuid.UUID) (*domain.Minorista, error) {
	m, err := s.minoristas.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetMinorista: %w", err)
	}
	return m, nil
}

func (s *AccountService) GetMinoristaByUser(ctx context.Context, userID uuid.UUID) (*domain.Minorista, error) {
	m, err := s.minoristas.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetMinoristaByUser: %w", err)
	}
	return m, nil
}

func (s *AccountService) CreateTransferencista(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransferencista: user: %w", err)
	}
	if user.Role != domain.RoleTransferencista {
		return nil, fmt.Errorf("CreateTransferencista: user role %s: %w", user.Role, domain.ErrInvalidRequest)
	}

	t := &domain.Transferencista{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      user.Name,
		Available: true,
		CreatedAt: s.now(),
	}
	if err := s.transferencistas.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateTransferencista: %w", err)
	}

	logging.FromContext(ctx).Info("transferencista created", "transferencista_id", t.ID, "user_id", userID)
	return t, nil
}

func (s *AccountService) GetTransferencista(ctx context.Context, id uuid.UUID) (*domain.Transferencista, error) {
	t, err := s.transferencistas.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransferencista: %w", err)
	}
	return t, nil
}

func (s *AccountService) GetTransferencistaByUser(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error) {
	t, err := s.transferencistas.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetTransferencistaByUser: %w", err)
	}
	return t, nil
}

// SetAvailability takes an agent in or out of the dispatch pool.
func (s *AccountService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	if err := s.transferencistas.SetAvailable(ctx, id, available); err != nil {
		return fmt.Errorf("SetAvailability: %w", err)
	}
	logging.FromContext(ctx).Info("transferencista availability changed", "transferencista_id", id, "available", available)
	return nil
}

func (s *AccountService) CreateBank(ctx context.Context, name string, code int, currency domain.Currency) (*domain.Bank, error) {
	if strings.TrimSpace(name) == "" || code <= 0 {
		return nil, fmt.Errorf("CreateBank: %w", domain.ErrInvalidRequest)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("CreateBank: %w", domain.ErrInvalidCurrency)
	}

	b := &domain.Bank{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Code:      code,
		Currency:  currency,
		CreatedAt: s.now(),
	}
	if err := s.banks.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("CreateBank: %w", err)
	}

	logging.FromContext(ctx).Info("bank created", "bank_id", b.ID, "code", code)
	return b, nil
}

func (s *AccountService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	banks, err := s.banks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBanks: %w", err)
	}
	return banks, nil
}

type CreateBankAccountRequest struct {
	BankID        uuid.UUID
	OwnerType     domain.BankAccountOwnerType
	OwnerID       *uuid.UUID
	AccountNumber *string
	AccountHolder string
	AccountType   domain.BankAccountType
}

// CreateBankAccount opens an account at zero. Funds arrive as DEPOSIT
// entries so the balance always matches the latest entry.
func (s *AccountService) CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*domain.BankAccount, error) {
	if !req.OwnerType.IsValid() || !req.AccountType.IsValid() {
		return nil, fmt.Errorf("CreateBankAccount: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.AccountHolder) == "" {
		return nil, fmt.Errorf("CreateBankAccount: account holder: %w", domain.ErrInvalidRequest)
	}

	switch req.OwnerType {
	case domain.BankAccountOwnerTransferencista:
		if req.OwnerID == nil {
			return nil, fmt.Errorf("CreateBankAccount: owner required: %w", domain.ErrInvalidRequest)
		}
		if _, err := s.transferencistas.GetByID(ctx, *req.OwnerID); err != nil {
			return nil, fmt.Errorf("CreateBankAccount: owner: %w", err)
		}
	case domain.BankAccountOwnerPlatform:
		if req.OwnerID != nil {
			return nil, fmt.Errorf("CreateBankAccount: platform accounts have no owner: %w", domain.ErrInvalidRequest)
		}
	}

	if _, err := s.banks.GetByID(ctx, req.BankID); err != nil {
		return nil, fmt.Errorf("CreateBankAccount: bank: %w", err)
	}

	now := s.now()
	a := &domain.BankAccount{
		ID:            uuid.New(),
		BankID:        req.BankID,
		OwnerType:     req.OwnerType,
		OwnerID:       req.OwnerID,
		AccountNumber: req.AccountNumber,
		AccountHolder: strings.TrimSpace(req.AccountHolder),
		AccountType:   req.AccountType,
		Balance:       decimal.Zero,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("CreateBankAccount: %w", err)
	}

	logging.FromContext(ctx).Info("bank account created",
		"bank_account_id", a.ID,
		"bank_id", a.BankID,
		"owner_type", a.OwnerType,
	)
	return a, nil
}

func (s *AccountService) GetBankAccount(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetBankAccount: %w", err)
	}
	return a, nil
}

func (s *AccountService) ListBankAccounts(ctx context.Context, ownerID uuid.UUID) ([]domain.BankAccount, error) {
	accounts, err := s.accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListBankAccounts: %w", err)
	}
	return accounts, nil
}
