package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository handles payment transactions, refunds and gateways
type TransactionRepository interface {
	Create(txn *model.PaymentTransaction) error
	FindByID(id uuid.UUID) (*model.PaymentTransaction, error)
	ListByUser(userID uuid.UUID) ([]model.PaymentTransaction, error)
	ListAll(status string) ([]model.PaymentTransaction, error)
	UpdateStatus(id uuid.UUID, from, to model.TransactionStatus, gatewayTxnID string) error
	TotalRevenue() (float64, error)

	CreateRefund(refund *model.Refund) error
	FindRefund(id uuid.UUID) (*model.Refund, error)
	HasPendingRefund(transactionID uuid.UUID) (bool, error)
	ListRefundsByUser(userID uuid.UUID) ([]model.Refund, error)
	ListRefunds(status string) ([]model.Refund, error)
	ReviewRefund(refund *model.Refund, from model.RefundStatus, refundTransaction bool) error

	ListGateways(activeOnly bool) ([]model.PaymentGateway, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(txn *model.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

func (r *transactionRepository) FindByID(id uuid.UUID) (*model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := r.db.Where("id = ?", id).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) ListByUser(userID uuid.UUID) ([]model.PaymentTransaction, error) {
	var txns []model.PaymentTransaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) ListAll(status string) ([]model.PaymentTransaction, error) {
	query := r.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var txns []model.PaymentTransaction
	err := query.Find(&txns).Error
	return txns, err
}

// UpdateStatus moves a transaction from one status to another, conditional on
// the current status so concurrent updates cannot both apply
func (r *transactionRepository) UpdateStatus(id uuid.UUID, from, to model.TransactionStatus, gatewayTxnID string) error {
	updates := map[string]interface{}{"status": to}
	if gatewayTxnID != "" {
		updates["gateway_transaction_id"] = gatewayTxnID
	}
	res := r.db.Model(&model.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotUpdated
	}
	return nil
}

// TotalRevenue sums every completed transaction
func (r *transactionRepository) TotalRevenue() (float64, error) {
	var total float64
	err := r.db.Model(&model.PaymentTransaction{}).
		Where("status = ?", model.TransactionCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *transactionRepository) CreateRefund(refund *model.Refund) error {
	return r.db.Omit(clause.Associations).Create(refund).Error
}

func (r *transactionRepository) FindRefund(id uuid.UUID) (*model.Refund, error) {
	var refund model.Refund
	err := r.db.Preload("Transaction").Where("id = ?", id).First(&refund).Error
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *transactionRepository) HasPendingRefund(transactionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Refund{}).
		Where("transaction_id = ? AND status IN ?", transactionID,
			[]model.RefundStatus{model.RefundPending, model.RefundApproved}).
		Count(&count).Error
	return count > 0, err
}

func (r *transactionRepository) ListRefundsByUser(userID uuid.UUID) ([]model.Refund, error) {
	var refunds []model.Refund
	err := r.db.Preload("Transaction").Where("user_id = ?", userID).Order("created_at DESC").Find(&refunds).Error
	return refunds, err
}

func (r *transactionRepository) ListRefunds(status string) ([]model.Refund, error) {
	query := r.db.Preload("Transaction").Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var refunds []model.Refund
	err := query.Find(&refunds).Error
	return refunds, err
}

// ReviewRefund persists a refund decision. When refundTransaction is set the
// parent transaction moves completed -> refunded in the same transaction.
func (r *transactionRepository) ReviewRefund(refund *model.Refund, from model.RefundStatus, refundTransaction bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Refund{}).
			Where("id = ? AND status = ?", refund.ID, from).
			Updates(map[string]interface{}{
				"status":       refund.Status,
				"processed_at": refund.ProcessedAt,
				"processed_by": refund.ProcessedByID,
				"updated_at":   time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotUpdated
		}
		if !refundTransaction {
			return nil
		}
		res = tx.Model(&model.PaymentTransaction{}).
			Where("id = ? AND status = ?", refund.TransactionID, model.TransactionCompleted).
			Update("status", model.TransactionRefunded)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotUpdated
		}
		return nil
	})
}

func (r *transactionRepository) ListGateways(activeOnly bool) ([]model.PaymentGateway, error) {
	query := r.db.Order("display_name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var gateways []model.PaymentGateway
	err := query.Find(&gateways).Error
	return gateways, err
}
