package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository handles plans and user subscriptions
type SubscriptionRepository interface {
	ListPlans(activeOnly bool) ([]model.SubscriptionPlan, error)
	FindPlan(id uuid.UUID) (*model.SubscriptionPlan, error)
	FirstActivePlan() (*model.SubscriptionPlan, error)
	CreatePlan(plan *model.SubscriptionPlan) error
	UpdatePlan(plan *model.SubscriptionPlan) error

	FindCurrent(userID uuid.UUID) (*model.UserSubscription, error)
	FindByID(id uuid.UUID) (*model.UserSubscription, error)
	ListByUser(userID uuid.UUID) ([]model.UserSubscription, error)
	ExpireStale(userID uuid.UUID, now time.Time) (int64, error)
	Activate(sub *model.UserSubscription, txn *model.PaymentTransaction, now time.Time) error
	UpdateStatus(id uuid.UUID, from, to model.SubscriptionStatus) error
	CountActive(now time.Time) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) ListPlans(activeOnly bool) ([]model.SubscriptionPlan, error) {
	query := r.db.Order("price ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var plans []model.SubscriptionPlan
	err := query.Find(&plans).Error
	return plans, err
}

func (r *subscriptionRepository) FindPlan(id uuid.UUID) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// FirstActivePlan returns the cheapest active plan
func (r *subscriptionRepository) FirstActivePlan() (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC, created_at ASC").First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *subscriptionRepository) CreatePlan(plan *model.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *subscriptionRepository) UpdatePlan(plan *model.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

// FindCurrent returns the user's most recent subscription with status active,
// whatever its dates say. Callers decide whether it is still in force.
func (r *subscriptionRepository) FindCurrent(userID uuid.UUID) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		Order("end_date DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByID(id uuid.UUID) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.Preload("Plan").Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(userID uuid.UUID) ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := r.db.
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// ExpireStale flips the user's active subscriptions whose end date has passed
func (r *subscriptionRepository) ExpireStale(userID uuid.UUID, now time.Time) (int64, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("user_id = ? AND status = ? AND end_date < ?", userID, model.SubscriptionActive, now).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected, res.Error
}

// Activate inserts a completed transaction and an active subscription together.
// The user row is locked first so two concurrent activations serialise and the
// second one sees the first subscription.
func (r *subscriptionRepository) Activate(sub *model.UserSubscription, txn *model.PaymentTransaction, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", sub.UserID).
			First(&user).Error; err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&model.UserSubscription{}).
			Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
				sub.UserID, model.SubscriptionActive, now, now).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveSubscriptionExists
		}

		sub.Status = model.SubscriptionActive
		if err := tx.Omit(clause.Associations).Create(sub).Error; err != nil {
			return err
		}
		if txn == nil {
			return nil
		}
		txn.SubscriptionID = &sub.ID
		return tx.Create(txn).Error
	})
}

// UpdateStatus moves a subscription between statuses, conditional on the current one
func (r *subscriptionRepository) UpdateStatus(id uuid.UUID, from, to model.SubscriptionStatus) error {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotUpdated
	}
	return nil
}

func (r *subscriptionRepository) CountActive(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserSubscription{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?", model.SubscriptionActive, now, now).
		Count(&count).Error
	return count, err
}
