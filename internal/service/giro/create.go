package giro

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/notify"
	"github.com/josh-kwaku/giro-backend/internal/profit"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
)

type CreateRequest struct {
	MinoristaID     *uuid.UUID
	BeneficiaryName string
	BeneficiaryID   string
	BankID          uuid.UUID
	AccountNumber   string
	Phone           *string
	AmountInput     decimal.Decimal
	CurrencyInput   domain.Currency
	ExecutionType   domain.ExecutionType
	// RateID prices the giro against a specific book entry. CustomRate
	// appends a one-off entry instead. With neither, the current rate is used.
	RateID     *uuid.UUID
	CustomRate *ratebook.Quote
	CreatedBy  uuid.UUID
	AutoAssign bool
}

func validateCreate(req CreateRequest) error {
	if req.CreatedBy == uuid.Nil {
		return domain.ErrActorRequired
	}
	if !req.AmountInput.IsPositive() || !req.AmountInput.Equal(domain.RoundMoney(req.AmountInput)) {
		return domain.ErrInvalidAmount
	}
	if !req.CurrencyInput.IsValid() {
		return domain.ErrInvalidCurrency
	}
	if !req.ExecutionType.IsValid() {
		return domain.ErrInvalidExecutionType
	}
	if strings.TrimSpace(req.BeneficiaryName) == "" || strings.TrimSpace(req.BeneficiaryID) == "" {
		return fmt.Errorf("beneficiary required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return fmt.Errorf("account number required: %w", domain.ErrInvalidRequest)
	}
	if req.BankID == uuid.Nil {
		return fmt.Errorf("destination bank required: %w", domain.ErrInvalidRequest)
	}
	if req.RateID != nil && req.CustomRate != nil {
		return fmt.Errorf("rate id and custom rate are exclusive: %w", domain.ErrInvalidRequest)
	}
	return nil
}

// Create prices and persists a PENDIENTE giro. A giro attributed to a
// minorista reserves its discount in the same transaction. With AutoAssign
// the dispatcher runs after commit; no eligible agent leaves the giro
// PENDIENTE without failing creation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Giro, error) {
	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	bank, err := s.banks.GetByID(ctx, req.BankID)
	if err != nil {
		return nil, fmt.Errorf("Create: bank: %w", err)
	}

	var g *domain.Giro
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		rate, err := s.resolveRate(ctx, tx, req)
		if err != nil {
			return err
		}

		amountBs, err := ratebook.ToBs(req.AmountInput, req.CurrencyInput, rate)
		if err != nil {
			return err
		}
		if !amountBs.IsPositive() {
			return fmt.Errorf("amount in bolivares rounds to zero: %w", domain.ErrInvalidAmount)
		}

		var minorista *domain.Minorista
		var pct *decimal.Decimal
		if req.MinoristaID != nil {
			minorista, err = s.minoristas.GetForUpdate(ctx, tx, *req.MinoristaID)
			if err != nil {
				return fmt.Errorf("minorista: %w", err)
			}
			pct = &minorista.ProfitPercentage
		}

		split, err := profit.Calculate(profit.Input{
			AmountInput:   req.AmountInput,
			Rate:          rate,
			ExecutionType: req.ExecutionType,
			MinoristaPct:  pct,
			CommissionPct: s.commissionPct,
		})
		if err != nil {
			return err
		}

		now := s.now()
		g = &domain.Giro{
			ID:              uuid.New(),
			MinoristaID:     req.MinoristaID,
			BeneficiaryName: strings.TrimSpace(req.BeneficiaryName),
			BeneficiaryID:   strings.TrimSpace(req.BeneficiaryID),
			BankID:          bank.ID,
			BankCode:        bank.Code,
			AccountNumber:   strings.TrimSpace(req.AccountNumber),
			Phone:           req.Phone,
			AmountInput:     req.AmountInput,
			CurrencyInput:   req.CurrencyInput,
			AmountBs:        amountBs,
			RateID:          rate.ID,
			BCVValueApplied: rate.BCV,
			Commission:      split.Commission,
			SystemProfit:    split.System,
			MinoristaProfit: split.Minorista,
			ExecutionType:   req.ExecutionType,
			Status:          domain.GiroStatusPendiente,
			CreatedBy:       req.CreatedBy,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.giros.Create(ctx, tx, g); err != nil {
			return err
		}

		if minorista != nil {
			if _, err := s.recorder.ReserveDiscount(ctx, tx, minorista.ID, g.ID, g.AmountInput, req.CreatedBy); err != nil {
				return err
			}
		}

		return s.appendEvent(ctx, tx, g, nil, domain.GiroEventTypeCreated, req.CreatedBy, map[string]any{
			"amount_input":   g.AmountInput.String(),
			"currency_input": g.CurrencyInput,
			"amount_bs":      g.AmountBs.String(),
			"rate_id":        g.RateID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	ctx = logging.WithGiro(ctx, g.ID)
	logging.FromContext(ctx).Info("giro created",
		"bank_id", g.BankID,
		"execution_type", g.ExecutionType,
		"amount_input", g.AmountInput.String(),
		"currency_input", g.CurrencyInput,
		"amount_bs", g.AmountBs.String(),
		"system_profit", g.SystemProfit.String(),
		"minorista_profit", g.MinoristaProfit.String(),
	)
	s.notifier.Notify(ctx, notify.EventFor(g, domain.GiroEventTypeCreated))

	if !req.AutoAssign {
		return g, nil
	}
	assigned, err := s.Assign(ctx, g.ID, req.CreatedBy)
	if err != nil {
		if errors.Is(err, domain.ErrNoEligibleAgent) {
			logging.FromContext(ctx).Info("giro left pending, no eligible agent", "bank_id", g.BankID)
		} else {
			logging.FromContext(ctx).Warn("auto assignment failed", "error", err)
		}
		return g, nil
	}
	return assigned, nil
}

func (s *Service) resolveRate(ctx context.Context, tx *sql.Tx, req CreateRequest) (*domain.Rate, error) {
	switch {
	case req.CustomRate != nil:
		return s.rates.AppendCustom(ctx, tx, *req.CustomRate, req.CreatedBy)
	case req.RateID != nil:
		rate, err := s.rates.Get(ctx, *req.RateID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("rate %s: %w", *req.RateID, domain.ErrRateNotFound)
		}
		return rate, err
	default:
		return s.rates.Current(ctx)
	}
}
