package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const autoRejectReason = "insufficient funds at approval time"

// WithdrawalServiceImpl implements ports.WithdrawalService. It is the only
// writer of withdrawal status: every transition is a guarded compare-and-set
// committed in the same transaction as its balance effect, so two operators
// racing on one request resolve to exactly one winner.
type WithdrawalServiceImpl struct {
	withdrawalRepo ports.WithdrawalRepository
	walletRepo     ports.WalletRepository
	ledger         ports.Ledger
	notifier       ports.Notifier
	auditor        ports.AuditRecorder
	transactor     ports.DBTransactor
	log            zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	withdrawalRepo ports.WithdrawalRepository,
	walletRepo ports.WalletRepository,
	ledger ports.Ledger,
	notifier ports.Notifier,
	auditor ports.AuditRecorder,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		withdrawalRepo: withdrawalRepo,
		walletRepo:     walletRepo,
		ledger:         ledger,
		notifier:       notifier,
		auditor:        auditor,
		transactor:     transactor,
		log:            log,
	}
}

// RequestWithdrawal creates a new pending withdrawal request. The balance is
// not checked or reserved here: funds leave the wallet only when an operator
// approves the request.
func (s *WithdrawalServiceImpl) RequestWithdrawal(ctx context.Context, req ports.CreateWithdrawalRequest) (*domain.WithdrawalRequest, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	if req.BankInfo == "" {
		return nil, apperror.Validation("bank_info is required")
	}

	account, err := s.walletRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load wallet: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	w := &domain.WithdrawalRequest{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Amount:      req.Amount,
		Status:      domain.StatusPending,
		RequestedAt: time.Now().UTC(),
		BankInfo:    req.BankInfo,
	}
	if err := s.withdrawalRepo.Create(ctx, w); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal: %w", err))
	}

	s.log.Info().
		Str("request_id", w.ID.String()).
		Str("user_id", w.UserID.String()).
		Int64("amount", w.Amount).
		Msg("withdrawal requested")

	return w, nil
}

// Transition moves a withdrawal request to the target status. Approvals debit
// the wallet atomically with the status write; when the wallet cannot cover
// the amount the request is rejected instead and the call succeeds with
// AutoRejected set. Rejecting an already-scheduled request credits the amount
// back exactly once.
func (s *WithdrawalServiceImpl) Transition(ctx context.Context, req ports.TransitionRequest) (*ports.TransitionResult, error) {
	if !req.Target.ValidTarget() {
		return nil, apperror.ErrInvalidTargetStatus(string(req.Target))
	}
	target := req.Target.CanonicalTarget()

	w, err := s.withdrawalRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperror.ErrWithdrawalNotFound()
	}
	if w.IsTerminal() || !domain.CanTransition(w.Status, target) {
		return nil, apperror.ErrTransitionConflict(string(w.Status), string(target))
	}

	now := time.Now().UTC()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	result := &ports.TransitionResult{Request: w}
	committed := target

	switch target {
	case domain.StatusScheduled:
		// Approval debits before the status write; both commit or neither.
		err := s.ledger.Debit(ctx, dbTx, w.UserID, w.Amount, w.ID)
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == apperror.CodeInsufficientFunds {
			// Nothing was written; reuse the transaction to reject instead.
			committed = domain.StatusRejected
			result.AutoRejected = true
			result.Reason = autoRejectReason
		} else if err != nil {
			return nil, err
		}
		ok, err := s.withdrawalRepo.UpdateStatusGuarded(ctx, dbTx, w.ID, w.Status, committed, req.OperatorID, now)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("update status: %w", err))
		}
		if !ok {
			return nil, apperror.ErrTransitionConflict(string(w.Status), string(target))
		}

	case domain.StatusRejected:
		ok, err := s.withdrawalRepo.UpdateStatusGuarded(ctx, dbTx, w.ID, w.Status, domain.StatusRejected, req.OperatorID, now)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("update status: %w", err))
		}
		if !ok {
			return nil, apperror.ErrTransitionConflict(string(w.Status), string(target))
		}
		if w.NeedsRefundOnReject() {
			credited, err := s.ledger.Refund(ctx, dbTx, w)
			if err != nil {
				return nil, err
			}
			w.Refunded = w.Refunded || credited
		}

	default: // confirmed, paid: status-only transitions
		ok, err := s.withdrawalRepo.UpdateStatusGuarded(ctx, dbTx, w.ID, w.Status, target, req.OperatorID, now)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("update status: %w", err))
		}
		if !ok {
			return nil, apperror.ErrTransitionConflict(string(w.Status), string(target))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	from := w.Status
	w.Status = committed
	w.ProcessedAt = &now
	operatorID := req.OperatorID
	w.OperatorID = &operatorID

	s.log.Info().
		Str("request_id", w.ID.String()).
		Str("from", string(from)).
		Str("to", string(committed)).
		Bool("auto_rejected", result.AutoRejected).
		Str("operator_id", req.OperatorID.String()).
		Msg("withdrawal transitioned")

	// Side effects run after commit on a detached context so a cancelled
	// request cannot suppress them. Failures are logged, never propagated.
	s.postCommit(context.WithoutCancel(ctx), w, req.OperatorID, result.Reason)

	return result, nil
}

func (s *WithdrawalServiceImpl) postCommit(ctx context.Context, w *domain.WithdrawalRequest, operatorID uuid.UUID, reason string) {
	if err := s.notifier.Notify(ctx, ports.TransitionEvent{
		RequestID: w.ID,
		UserID:    w.UserID,
		Status:    w.Status,
		Amount:    w.Amount,
		Reason:    reason,
	}); err != nil {
		s.log.Warn().Err(err).
			Str("request_id", w.ID.String()).
			Msg("transition notification failed")
	}

	details := ""
	if reason != "" {
		details = fmt.Sprintf(`{"reason":%q}`, reason)
	}
	requestID := w.ID
	s.auditor.Record(ctx, &domain.AdminAudit{
		ID:           uuid.New(),
		OperatorID:   operatorID,
		Action:       domain.AuditActionForStatus(w.Status),
		TargetUserID: w.UserID,
		Amount:       w.Amount,
		RequestID:    &requestID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	})
}
