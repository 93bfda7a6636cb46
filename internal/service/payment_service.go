package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// PaymentService handles (simulated) payment transactions and refunds
type PaymentService struct {
	txnRepo  repository.TransactionRepository
	subRepo  repository.SubscriptionRepository
	notifier Notifier
	now      func() time.Time
}

func NewPaymentService(
	txnRepo repository.TransactionRepository,
	subRepo repository.SubscriptionRepository,
	notifier Notifier,
) *PaymentService {
	return &PaymentService{
		txnRepo:  txnRepo,
		subRepo:  subRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// newTransactionID returns "TXN-" followed by 12 uppercase hex characters
func newTransactionID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate transaction id")
	}
	return "TXN-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

// ==================== Transactions ====================

// CreateTransaction records a pending payment
func (s *PaymentService) CreateTransaction(userID uuid.UUID, req model.CreateTransactionRequest) (*model.PaymentTransaction, error) {
	if req.SubscriptionID != nil {
		sub, err := s.subRepo.FindByID(*req.SubscriptionID)
		if err != nil {
			return nil, lookupErr(err, "Subscription")
		}
		if sub.UserID != userID {
			return nil, notFound("Subscription")
		}
	}

	txnID, err := newTransactionID()
	if err != nil {
		return nil, err
	}

	details := datatypes.JSONMap(req.PaymentDetails)
	if details == nil {
		details = datatypes.JSONMap{}
	}

	txn := &model.PaymentTransaction{
		UserID:         userID,
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Currency:       "NPR",
		PaymentMethod:  req.PaymentMethod,
		TransactionID:  txnID,
		Status:         model.TransactionPending,
		PaymentDetails: details,
	}
	if err := s.txnRepo.Create(txn); err != nil {
		return nil, errors.Wrap(err, "create transaction")
	}
	return txn, nil
}

func (s *PaymentService) ListTransactions(userID uuid.UUID) ([]model.PaymentTransaction, error) {
	return s.txnRepo.ListByUser(userID)
}

func (s *PaymentService) ListAllTransactions(status string) ([]model.PaymentTransaction, error) {
	return s.txnRepo.ListAll(status)
}

// GetTransaction returns a transaction owned by userID
func (s *PaymentService) GetTransaction(userID, id uuid.UUID) (*model.PaymentTransaction, error) {
	txn, err := s.txnRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Transaction")
	}
	if txn.UserID != userID {
		return nil, notFound("Transaction")
	}
	return txn, nil
}

// UpdateTransactionStatus moves a transaction along its allowed transitions
func (s *PaymentService) UpdateTransactionStatus(id uuid.UUID, req model.TransactionStatusRequest) (*model.PaymentTransaction, error) {
	txn, err := s.txnRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Transaction")
	}
	if !txn.Status.CanTransitionTo(req.Status) {
		return nil, ErrInvalidTransition
	}

	if err := s.txnRepo.UpdateStatus(id, txn.Status, req.Status, req.GatewayTransactionID); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, ErrInvalidTransition
		}
		return nil, errors.Wrap(err, "update transaction")
	}

	log.Info().
		Str("transaction_id", txn.TransactionID).
		Str("from", string(txn.Status)).
		Str("to", string(req.Status)).
		Msg("💳 Transaction status changed")

	txn.Status = req.Status
	if req.GatewayTransactionID != "" {
		txn.GatewayTransactionID = req.GatewayTransactionID
	}
	s.notifyTransaction(txn)
	return txn, nil
}

func (s *PaymentService) notifyTransaction(txn *model.PaymentTransaction) {
	if s.notifier == nil {
		return
	}
	var (
		kind  model.NotificationType
		title string
		body  string
	)
	switch txn.Status {
	case model.TransactionCompleted:
		kind, title = model.NotificationPaymentSuccess, "Payment successful"
		body = fmt.Sprintf("Your payment of %s %.2f (%s) was successful.", txn.Currency, txn.Amount, txn.TransactionID)
	case model.TransactionFailed:
		kind, title = model.NotificationPaymentFailed, "Payment failed"
		body = fmt.Sprintf("Your payment %s could not be completed.", txn.TransactionID)
	default:
		return
	}
	_, _ = s.notifier.Notify(txn.UserID, kind, title, body, model.PriorityHigh,
		map[string]any{"transaction_id": txn.TransactionID})
}

// ==================== Refunds ====================

// RequestRefund opens a refund against a completed transaction owned by userID
func (s *PaymentService) RequestRefund(userID uuid.UUID, req model.RefundRequest) (*model.Refund, error) {
	txn, err := s.txnRepo.FindByID(req.TransactionID)
	if err != nil {
		return nil, lookupErr(err, "Transaction")
	}
	if txn.UserID != userID {
		return nil, notFound("Transaction")
	}
	if txn.Status != model.TransactionCompleted {
		return nil, ErrRefundNotAllowed
	}
	if req.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if req.Amount > txn.Amount {
		return nil, ErrRefundAmount
	}

	pending, err := s.txnRepo.HasPendingRefund(txn.ID)
	if err != nil {
		return nil, errors.Wrap(err, "check refunds")
	}
	if pending {
		return nil, ErrRefundPending
	}

	refund := &model.Refund{
		TransactionID: txn.ID,
		UserID:        userID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		Status:        model.RefundPending,
	}
	if err := s.txnRepo.CreateRefund(refund); err != nil {
		return nil, errors.Wrap(err, "create refund")
	}
	return refund, nil
}

func (s *PaymentService) ListRefunds(userID uuid.UUID) ([]model.Refund, error) {
	return s.txnRepo.ListRefundsByUser(userID)
}

func (s *PaymentService) ListAllRefunds(status string) ([]model.Refund, error) {
	return s.txnRepo.ListRefunds(status)
}

// ReviewRefund moves a refund along pending→approved|rejected and approved→processed.
// Processing also marks the transaction refunded.
func (s *PaymentService) ReviewRefund(adminID, id uuid.UUID, req model.RefundReviewRequest) (*model.Refund, error) {
	refund, err := s.txnRepo.FindRefund(id)
	if err != nil {
		return nil, lookupErr(err, "Refund")
	}
	from := refund.Status
	if !from.CanTransitionTo(req.Status) {
		return nil, ErrInvalidTransition
	}

	refund.Status = req.Status
	processing := req.Status == model.RefundProcessed
	if processing {
		now := s.now()
		refund.ProcessedAt = &now
		refund.ProcessedByID = &adminID
	}

	if err := s.txnRepo.ReviewRefund(refund, from, processing); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, ErrInvalidTransition
		}
		return nil, errors.Wrap(err, "review refund")
	}
	if processing && refund.Transaction != nil {
		refund.Transaction.Status = model.TransactionRefunded
	}

	log.Info().
		Str("refund_id", refund.ID.String()).
		Str("from", string(from)).
		Str("to", string(req.Status)).
		Msg("💸 Refund reviewed")
	return refund, nil
}

func (s *PaymentService) ListGateways() ([]model.PaymentGateway, error) {
	return s.txnRepo.ListGateways(true)
}
