package giro

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/notify"
	"github.com/josh-kwaku/giro-backend/internal/service/ledger"
)

// Assign asks the dispatcher for the bank's next agent and moves the giro
// to ASIGNADO. The cursor advance and the giro update commit together.
func (s *Service) Assign(ctx context.Context, giroID, actor uuid.UUID) (*domain.Giro, error) {
	ctx = logging.WithGiro(ctx, giroID)

	g, err := s.transition(ctx, giroID, domain.GiroStatusAsignado, domain.GiroEventTypeAssigned, actor,
		func(tx *sql.Tx, g *domain.Giro) (map[string]any, error) {
			agentID, err := s.dispatcher.Next(ctx, tx, g.BankID)
			if err != nil {
				return nil, err
			}
			agent, err := s.transferencistas.GetByID(ctx, agentID)
			if err != nil {
				return nil, fmt.Errorf("transferencista: %w", err)
			}
			g.TransferencistaID = &agent.ID
			g.ExecutedBy = &agent.UserID
			return map[string]any{"transferencista_id": agent.ID}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("Assign: %w", err)
	}

	logging.FromContext(ctx).Info("giro assigned", "transferencista_id", *g.TransferencistaID)
	return g, nil
}

func (s *Service) StartExecution(ctx context.Context, giroID, actor uuid.UUID) (*domain.Giro, error) {
	ctx = logging.WithGiro(ctx, giroID)

	g, err := s.transition(ctx, giroID, domain.GiroStatusProcesando, domain.GiroEventTypeStarted, actor,
		func(_ *sql.Tx, g *domain.Giro) (map[string]any, error) {
			if g.TransferencistaID == nil {
				return nil, domain.ErrNoAssignedAgent
			}
			return nil, nil
		})
	if err != nil {
		return nil, fmt.Errorf("StartExecution: %w", err)
	}

	logging.FromContext(ctx).Info("giro execution started")
	return g, nil
}

type CompleteRequest struct {
	GiroID          uuid.UUID
	BankAccountID   uuid.UUID
	Fee             decimal.Decimal
	PaymentProofRef *string
	Actor           uuid.UUID
}

// Complete settles the minorista's discount, withdraws amountBs plus fee
// from the executing account and records the platform outflow. The account
// must belong to the assigned transferencista.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*domain.Giro, error) {
	ctx = logging.WithGiro(ctx, req.GiroID)

	// Input checks run inside apply so a terminal giro reports the state
	// error first.
	g, err := s.transition(ctx, req.GiroID, domain.GiroStatusCompletado, domain.GiroEventTypeCompleted, req.Actor,
		func(tx *sql.Tx, g *domain.Giro) (map[string]any, error) {
			if req.Fee.IsNegative() {
				return nil, fmt.Errorf("fee: %w", domain.ErrInvalidAmount)
			}
			if req.BankAccountID == uuid.Nil {
				return nil, fmt.Errorf("bank account required: %w", domain.ErrInvalidRequest)
			}
			if g.TransferencistaID == nil {
				return nil, domain.ErrNoAssignedAgent
			}
			if g.MinoristaID != nil {
				if _, err := s.recorder.SettleDiscount(ctx, tx, g.ID); err != nil {
					return nil, err
				}
			}

			account, err := s.accounts.GetForUpdate(ctx, tx, req.BankAccountID)
			if err != nil {
				return nil, fmt.Errorf("bank account: %w", err)
			}
			if !account.OwnedBy(*g.TransferencistaID) {
				return nil, domain.ErrAccountOwnerMismatch
			}

			entry, err := s.recorder.PostBankAccountEntry(ctx, tx, ledger.BankAccountEntry{
				BankAccountID: account.ID,
				GiroID:        &g.ID,
				Type:          domain.BankAccountWithdrawal,
				Amount:        g.AmountBs,
				Fee:           req.Fee,
				Reference:     req.PaymentProofRef,
				Description:   fmt.Sprintf("giro %s to %s", g.ID, g.BeneficiaryName),
				CreatedBy:     req.Actor,
			})
			if err != nil {
				return nil, err
			}
			err = s.recorder.PostBankTransaction(ctx, tx, &domain.BankTransaction{
				BankID:      account.BankID,
				GiroID:      &g.ID,
				Type:        domain.BankTransactionOutflow,
				Amount:      entry.Amount.Add(entry.Fee),
				Description: fmt.Sprintf("giro %s", g.ID),
				Reference:   req.PaymentProofRef,
				CreatedBy:   req.Actor,
			})
			if err != nil {
				return nil, err
			}

			g.BankAccountID = &account.ID
			g.PaymentProofRef = req.PaymentProofRef
			g.ExecutedBy = &req.Actor
			return map[string]any{
				"bank_account_id": account.ID,
				"fee":             entry.Fee.String(),
				"account_balance": entry.CurrentBalance.String(),
			}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("Complete: %w", err)
	}

	logging.FromContext(ctx).Info("giro completed",
		"bank_account_id", *g.BankAccountID,
		"amount_bs", g.AmountBs.String(),
		"fee", req.Fee.String(),
	)
	return g, nil
}

// Cancel is allowed from any non-terminal state. A reserved discount is
// reversed with a compensating entry.
func (s *Service) Cancel(ctx context.Context, giroID uuid.UUID, reason string, actor uuid.UUID) (*domain.Giro, error) {
	ctx = logging.WithGiro(ctx, giroID)
	reason = strings.TrimSpace(reason)

	g, err := s.transition(ctx, giroID, domain.GiroStatusCancelado, domain.GiroEventTypeCancelled, actor,
		func(tx *sql.Tx, g *domain.Giro) (map[string]any, error) {
			if err := s.reverseIfAttributed(ctx, tx, g, actor, "cancelled"); err != nil {
				return nil, err
			}
			if reason != "" {
				g.CancelReason = &reason
			}
			return map[string]any{"reason": reason}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	logging.FromContext(ctx).Info("giro cancelled", "reason", reason)
	return g, nil
}

// Return marks a giro in execution as DEVUELTO and reverses its reserved
// discount. Bank entries are only posted on completion, so none exist yet.
func (s *Service) Return(ctx context.Context, giroID uuid.UUID, reason string, actor uuid.UUID) (*domain.Giro, error) {
	ctx = logging.WithGiro(ctx, giroID)
	reason = strings.TrimSpace(reason)

	g, err := s.transition(ctx, giroID, domain.GiroStatusDevuelto, domain.GiroEventTypeReturned, actor,
		func(tx *sql.Tx, g *domain.Giro) (map[string]any, error) {
			if reason == "" {
				return nil, domain.ErrReturnReasonRequired
			}
			if err := s.reverseIfAttributed(ctx, tx, g, actor, "returned: "+reason); err != nil {
				return nil, err
			}
			g.ReturnReason = &reason
			return map[string]any{"reason": reason}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("Return: %w", err)
	}

	logging.FromContext(ctx).Info("giro returned", "reason", reason)
	return g, nil
}

func (s *Service) reverseIfAttributed(ctx context.Context, tx *sql.Tx, g *domain.Giro, actor uuid.UUID, reason string) error {
	if g.MinoristaID == nil {
		return nil
	}
	_, err := s.recorder.ReverseDiscount(ctx, tx, g.ID, actor, reason)
	return err
}

// transition locks the giro, checks the move, lets apply do its side work,
// then persists the giro and its history row. Everything commits together
// before the notifier is told.
func (s *Service) transition(
	ctx context.Context,
	giroID uuid.UUID,
	next domain.GiroStatus,
	typ domain.GiroEventType,
	actor uuid.UUID,
	apply func(tx *sql.Tx, g *domain.Giro) (map[string]any, error),
) (*domain.Giro, error) {
	if actor == uuid.Nil {
		return nil, domain.ErrActorRequired
	}

	var g *domain.Giro
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		g, err = s.giros.GetForUpdate(ctx, tx, giroID)
		if err != nil {
			return err
		}
		from := g.Status
		if err := from.CheckTransition(next); err != nil {
			return err
		}

		payload, err := apply(tx, g)
		if err != nil {
			return err
		}
		if err := g.Transition(next, s.now()); err != nil {
			return err
		}
		g.Version++
		if err := s.giros.Update(ctx, tx, g); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, g, &from, typ, actor, payload)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventFor(g, typ))
	return g, nil
}
