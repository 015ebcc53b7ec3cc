package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type userRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type minoristaRepository interface {
	Create(ctx context.Context, m *domain.Minorista) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Minorista, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Minorista, error)
}

type transferencistaRepository interface {
	Create(ctx context.Context, t *domain.Transferencista) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transferencista, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error)
	SetAvailable(ctx context.Context, id uuid.UUID, available bool) error
}

type bankRepository interface {
	Create(ctx context.Context, b *domain.Bank) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bank, error)
	List(ctx context.Context) ([]domain.Bank, error)
}

type bankAccountRepository interface {
	Create(ctx context.Context, a *domain.BankAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.BankAccount, error)
}
