// Package giro drives a money-transfer order through its lifecycle and
// posts the ledger entries each transition requires.
package giro

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/notify"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
	"github.com/josh-kwaku/giro-backend/internal/service/ledger"
)

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type giroRepo interface {
	Create(ctx context.Context, tx *sql.Tx, g *domain.Giro) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Giro, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Giro, error)
	Update(ctx context.Context, tx *sql.Tx, g *domain.Giro) error
	List(ctx context.Context, f domain.GiroFilter) ([]domain.Giro, int, error)
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.GiroEvent) error
	GetByGiroID(ctx context.Context, giroID uuid.UUID) ([]domain.GiroEvent, error)
}

type minoristaRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Minorista, error)
}

type bankRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bank, error)
}

type bankAccountRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.BankAccount, error)
}

type transferencistaRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transferencista, error)
}

type rateBook interface {
	Current(ctx context.Context) (*domain.Rate, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Rate, error)
	AppendCustom(ctx context.Context, tx *sql.Tx, q ratebook.Quote, createdBy uuid.UUID) (*domain.Rate, error)
}

type dispatcher interface {
	Next(ctx context.Context, tx *sql.Tx, bankID uuid.UUID) (uuid.UUID, error)
}

type recorder interface {
	ReserveDiscount(ctx context.Context, tx *sql.Tx, minoristaID, giroID uuid.UUID, amount decimal.Decimal, createdBy uuid.UUID) (*domain.MinoristaTransaction, error)
	SettleDiscount(ctx context.Context, tx *sql.Tx, giroID uuid.UUID) (*domain.MinoristaTransaction, error)
	ReverseDiscount(ctx context.Context, tx *sql.Tx, giroID uuid.UUID, createdBy uuid.UUID, reason string) (*domain.MinoristaTransaction, error)
	PostBankAccountEntry(ctx context.Context, tx *sql.Tx, in ledger.BankAccountEntry) (*domain.BankAccountTransaction, error)
	PostBankTransaction(ctx context.Context, tx *sql.Tx, t *domain.BankTransaction) error
}

type Deps struct {
	DB               txBeginner
	Giros            giroRepo
	Events           eventRepo
	Minoristas       minoristaRepo
	Banks            bankRepo
	BankAccounts     bankAccountRepo
	Transferencistas transferencistaRepo
	Rates            rateBook
	Dispatcher       dispatcher
	Recorder         recorder
	Notifier         notify.Notifier
}

type Service struct {
	db               txBeginner
	giros            giroRepo
	events           eventRepo
	minoristas       minoristaRepo
	banks            bankRepo
	accounts         bankAccountRepo
	transferencistas transferencistaRepo
	rates            rateBook
	dispatcher       dispatcher
	recorder         recorder
	notifier         notify.Notifier
	commissionPct    decimal.Decimal
	now              func() time.Time
}

func NewService(d Deps, commissionPct decimal.Decimal) *Service {
	n := d.Notifier
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Service{
		db:               d.DB,
		giros:            d.Giros,
		events:           d.Events,
		minoristas:       d.Minoristas,
		banks:            d.Banks,
		accounts:         d.BankAccounts,
		transferencistas: d.Transferencistas,
		rates:            d.Rates,
		dispatcher:       d.Dispatcher,
		recorder:         d.Recorder,
		notifier:         n,
		commissionPct:    commissionPct,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Giro, error) {
	g, err := s.giros.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return g, nil
}

func (s *Service) History(ctx context.Context, id uuid.UUID) ([]domain.GiroEvent, error) {
	if _, err := s.giros.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	events, err := s.events.GetByGiroID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return events, nil
}

func (s *Service) List(ctx context.Context, f domain.GiroFilter) ([]domain.Giro, int, error) {
	giros, total, err := s.giros.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return giros, total, nil
}

func (s *Service) appendEvent(ctx context.Context, tx *sql.Tx, g *domain.Giro, from *domain.GiroStatus, typ domain.GiroEventType, actor uuid.UUID, payload map[string]any) error {
	var raw json.RawMessage
	if len(payload) > 0 {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("appendEvent: marshal: %w", err)
		}
		raw = b
	}
	event := &domain.GiroEvent{
		ID:         uuid.New(),
		GiroID:     g.ID,
		EventType:  typ,
		FromStatus: from,
		ToStatus:   g.Status,
		Actor:      actor.String(),
		Payload:    raw,
		CreatedAt:  g.UpdatedAt,
	}
	if err := s.events.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("appendEvent: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction and returns only after commit. Nothing fn
// wrote is visible if it fails.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
