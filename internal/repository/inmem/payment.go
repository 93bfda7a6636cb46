package inmem

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (repo *subscriptionRepository) ListPlans(activeOnly bool) ([]model.SubscriptionPlan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.SubscriptionPlan
	for _, p := range repo.db.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (repo *subscriptionRepository) FindPlan(id uuid.UUID) (*model.SubscriptionPlan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, ok := repo.db.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (repo *subscriptionRepository) FirstActivePlan() (*model.SubscriptionPlan, error) {
	plans, _ := repo.ListPlans(true)
	if len(plans) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &plans[0], nil
}

func (repo *subscriptionRepository) CreatePlan(plan *model.SubscriptionPlan) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&plan.ID)
	plan.CreatedAt, plan.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *plan
	repo.db.plans[plan.ID] = &cp
	return nil
}

func (repo *subscriptionRepository) UpdatePlan(plan *model.SubscriptionPlan) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	plan.UpdatedAt = repo.db.now()
	cp := *plan
	repo.db.plans[plan.ID] = &cp
	return nil
}

func (db *DB) subscriptionCopy(s *model.UserSubscription) *model.UserSubscription {
	cp := *s
	if p, ok := db.plans[s.PlanID]; ok {
		pc := *p
		cp.Plan = &pc
	}
	return &cp
}

func (repo *subscriptionRepository) FindCurrent(userID uuid.UUID) (*model.UserSubscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var found *model.UserSubscription
	for _, s := range repo.db.subscriptions {
		if s.UserID != userID || s.Status != model.SubscriptionActive {
			continue
		}
		if found == nil || s.EndDate.After(found.EndDate) {
			found = s
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return repo.db.subscriptionCopy(found), nil
}

func (repo *subscriptionRepository) FindByID(id uuid.UUID) (*model.UserSubscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	s, ok := repo.db.subscriptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return repo.db.subscriptionCopy(s), nil
}

func (repo *subscriptionRepository) ListByUser(userID uuid.UUID) ([]model.UserSubscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.UserSubscription
	for _, s := range repo.db.subscriptions {
		if s.UserID == userID {
			out = append(out, *repo.db.subscriptionCopy(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (repo *subscriptionRepository) ExpireStale(userID uuid.UUID, now time.Time) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for _, s := range repo.db.subscriptions {
		if s.UserID == userID && s.IsLapsed(now) {
			s.Status = model.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

func (repo *subscriptionRepository) Activate(sub *model.UserSubscription, txn *model.PaymentTransaction, now time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subscriptions {
		if s.UserID == sub.UserID && s.IsActiveAt(now) {
			return repository.ErrActiveSubscriptionExists
		}
	}
	ensureID(&sub.ID)
	sub.Status = model.SubscriptionActive
	sub.CreatedAt, sub.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *sub
	cp.Plan = nil
	repo.db.subscriptions[sub.ID] = &cp

	if txn != nil {
		txn.SubscriptionID = &sub.ID
		repo.db.insertTransaction(txn)
	}
	return nil
}

func (repo *subscriptionRepository) UpdateStatus(id uuid.UUID, from, to model.SubscriptionStatus) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.subscriptions[id]
	if !ok || s.Status != from {
		return repository.ErrNotUpdated
	}
	s.Status = to
	return nil
}

func (repo *subscriptionRepository) CountActive(now time.Time) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int64
	for _, s := range repo.db.subscriptions {
		if s.IsActiveAt(now) {
			n++
		}
	}
	return n, nil
}

// PutSubscription stores a subscription as-is, bypassing the active guard
func (db *DB) PutSubscription(s model.UserSubscription) model.UserSubscription {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	ensureID(&s.ID)
	db.subscriptions[s.ID] = &s
	return s
}

type transactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (db *DB) insertTransaction(txn *model.PaymentTransaction) {
	ensureID(&txn.ID)
	txn.CreatedAt, txn.UpdatedAt = db.now(), db.now()
	if txn.Currency == "" {
		txn.Currency = "NPR"
	}
	cp := *txn
	db.transactions[txn.ID] = &cp
}

func (repo *transactionRepository) Create(txn *model.PaymentTransaction) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, t := range repo.db.transactions {
		if t.TransactionID == txn.TransactionID {
			return gorm.ErrDuplicatedKey
		}
	}
	repo.db.insertTransaction(txn)
	return nil
}

func (repo *transactionRepository) FindByID(id uuid.UUID) (*model.PaymentTransaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	t, ok := repo.db.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (repo *transactionRepository) list(keep func(t *model.PaymentTransaction) bool) []model.PaymentTransaction {
	var out []model.PaymentTransaction
	for _, t := range repo.db.transactions {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (repo *transactionRepository) ListByUser(userID uuid.UUID) ([]model.PaymentTransaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.list(func(t *model.PaymentTransaction) bool { return t.UserID == userID }), nil
}

func (repo *transactionRepository) ListAll(status string) ([]model.PaymentTransaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.list(func(t *model.PaymentTransaction) bool {
		return status == "" || string(t.Status) == status
	}), nil
}

func (repo *transactionRepository) UpdateStatus(id uuid.UUID, from, to model.TransactionStatus, gatewayTxnID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t, ok := repo.db.transactions[id]
	if !ok || t.Status != from {
		return repository.ErrNotUpdated
	}
	t.Status = to
	if gatewayTxnID != "" {
		t.GatewayTransactionID = gatewayTxnID
	}
	t.UpdatedAt = repo.db.now()
	return nil
}

func (repo *transactionRepository) TotalRevenue() (float64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var total float64
	for _, t := range repo.db.transactions {
		if t.Status == model.TransactionCompleted {
			total += t.Amount
		}
	}
	return total, nil
}

func (repo *transactionRepository) CreateRefund(refund *model.Refund) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&refund.ID)
	refund.CreatedAt, refund.UpdatedAt = repo.db.now(), repo.db.now()
	if refund.Status == "" {
		refund.Status = model.RefundPending
	}
	cp := *refund
	cp.Transaction = nil
	repo.db.refunds[refund.ID] = &cp
	return nil
}

func (db *DB) refundCopy(r *model.Refund) model.Refund {
	cp := *r
	if t, ok := db.transactions[r.TransactionID]; ok {
		tc := *t
		cp.Transaction = &tc
	}
	return cp
}

func (repo *transactionRepository) FindRefund(id uuid.UUID) (*model.Refund, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	r, ok := repo.db.refunds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := repo.db.refundCopy(r)
	return &cp, nil
}

func (repo *transactionRepository) HasPendingRefund(transactionID uuid.UUID) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, r := range repo.db.refunds {
		if r.TransactionID == transactionID && (r.Status == model.RefundPending || r.Status == model.RefundApproved) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *transactionRepository) listRefunds(keep func(r *model.Refund) bool) []model.Refund {
	var out []model.Refund
	for _, r := range repo.db.refunds {
		if keep(r) {
			out = append(out, repo.db.refundCopy(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (repo *transactionRepository) ListRefundsByUser(userID uuid.UUID) ([]model.Refund, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.listRefunds(func(r *model.Refund) bool { return r.UserID == userID }), nil
}

func (repo *transactionRepository) ListRefunds(status string) ([]model.Refund, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.listRefunds(func(r *model.Refund) bool { return status == "" || string(r.Status) == status }), nil
}

func (repo *transactionRepository) ReviewRefund(refund *model.Refund, from model.RefundStatus, refundTransaction bool) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.refunds[refund.ID]
	if !ok || r.Status != from {
		return repository.ErrNotUpdated
	}
	var txn *model.PaymentTransaction
	if refundTransaction {
		txn, ok = repo.db.transactions[r.TransactionID]
		if !ok || txn.Status != model.TransactionCompleted {
			return repository.ErrNotUpdated
		}
	}
	r.Status = refund.Status
	r.ProcessedAt = refund.ProcessedAt
	r.ProcessedByID = refund.ProcessedByID
	r.UpdatedAt = repo.db.now()
	if txn != nil {
		txn.Status = model.TransactionRefunded
	}
	return nil
}

func (repo *transactionRepository) ListGateways(activeOnly bool) ([]model.PaymentGateway, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.PaymentGateway
	for _, g := range repo.db.gateways {
		if !activeOnly || g.IsActive {
			out = append(out, g)
		}
	}
	return out, nil
}
