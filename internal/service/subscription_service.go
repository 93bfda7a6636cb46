package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const unlockDays = 30

// SubscriptionService manages plans and gates paid content
type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	notifier Notifier
	now      func() time.Time
}

func NewSubscriptionService(subRepo repository.SubscriptionRepository, notifier Notifier) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// ==================== Plans ====================

func (s *SubscriptionService) ListPlans(activeOnly bool) ([]model.SubscriptionPlan, error) {
	return s.subRepo.ListPlans(activeOnly)
}

// GetPlan returns a plan; inactive plans are hidden unless includeInactive is set
func (s *SubscriptionService) GetPlan(id uuid.UUID, includeInactive bool) (*model.SubscriptionPlan, error) {
	plan, err := s.subRepo.FindPlan(id)
	if err != nil {
		return nil, lookupErr(err, "Plan")
	}
	if !plan.IsActive && !includeInactive {
		return nil, notFound("Plan")
	}
	return plan, nil
}

func (s *SubscriptionService) CreatePlan(req model.PlanRequest) (*model.SubscriptionPlan, error) {
	plan := &model.SubscriptionPlan{}
	if err := applyPlanRequest(plan, req); err != nil {
		return nil, err
	}
	if err := s.subRepo.CreatePlan(plan); err != nil {
		return nil, errors.Wrap(err, "create plan")
	}
	return plan, nil
}

func (s *SubscriptionService) UpdatePlan(id uuid.UUID, req model.PlanRequest) (*model.SubscriptionPlan, error) {
	plan, err := s.subRepo.FindPlan(id)
	if err != nil {
		return nil, lookupErr(err, "Plan")
	}
	if err := applyPlanRequest(plan, req); err != nil {
		return nil, err
	}
	if err := s.subRepo.UpdatePlan(plan); err != nil {
		return nil, errors.Wrap(err, "update plan")
	}
	return plan, nil
}

func applyPlanRequest(plan *model.SubscriptionPlan, req model.PlanRequest) error {
	wasActive := plan.ID == uuid.Nil || plan.IsActive
	if err := copier.Copy(plan, &req); err != nil {
		return errors.Wrap(err, "map plan")
	}
	plan.Features = datatypes.JSONSlice[string](req.Features)
	if plan.Features == nil {
		plan.Features = datatypes.JSONSlice[string]{}
	}
	plan.IsActive = boolOr(req.IsActive, wasActive)
	return nil
}

// ==================== Access ====================

// ActiveSubscription returns the subscription currently in force, or nil.
// Active-status rows found past their end date are moved to expired first.
func (s *SubscriptionService) ActiveSubscription(userID uuid.UUID) (*model.UserSubscription, error) {
	now := s.now()
	expired, err := s.subRepo.ExpireStale(userID, now)
	if err != nil {
		return nil, errors.Wrap(err, "expire subscriptions")
	}
	if expired > 0 {
		log.Info().Str("user_id", userID.String()).Int64("count", expired).Msg("⌛ Subscriptions expired")
	}

	sub, err := s.subRepo.FindCurrent(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find subscription")
	}
	if !sub.IsActiveAt(now) {
		return nil, nil
	}
	return sub, nil
}

// HasActiveSubscription reports whether the user is covered right now
func (s *SubscriptionService) HasActiveSubscription(userID uuid.UUID) (bool, error) {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// CanAccessResources reports whether the active plan grants resource downloads
func (s *SubscriptionService) CanAccessResources(userID uuid.UUID) (bool, error) {
	sub, err := s.ActiveSubscription(userID)
	if err != nil || sub == nil {
		return false, err
	}
	if sub.Plan == nil {
		plan, err := s.subRepo.FindPlan(sub.PlanID)
		if err != nil {
			return false, lookupErr(err, "Plan")
		}
		sub.Plan = plan
	}
	return sub.Plan.AccessToResources, nil
}

// ==================== Subscriptions ====================

// GetMySubscription returns the active subscription with its remaining days
func (s *SubscriptionService) GetMySubscription(userID uuid.UUID) (*model.SubscriptionResponse, error) {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, notFound("Active subscription")
	}
	return &model.SubscriptionResponse{
		Subscription: sub,
		IsActive:     true,
		DaysLeft:     daysLeft(sub.EndDate, s.now()),
	}, nil
}

func (s *SubscriptionService) ListHistory(userID uuid.UUID) ([]model.UserSubscription, error) {
	if _, err := s.subRepo.ExpireStale(userID, s.now()); err != nil {
		return nil, errors.Wrap(err, "expire subscriptions")
	}
	return s.subRepo.ListByUser(userID)
}

// Subscribe simulates a successful payment for plan and activates it
func (s *SubscriptionService) Subscribe(userID uuid.UUID, req model.SubscribeRequest) (*model.SubscriptionResponse, error) {
	plan, err := s.GetPlan(req.PlanID, false)
	if err != nil {
		return nil, err
	}
	return s.activate(userID, plan, plan.Duration.Days(), req.PaymentMethod, req.AutoRenew, "subscribe")
}

// PayToUnlock grants the first active plan for 30 days after a simulated payment
func (s *SubscriptionService) PayToUnlock(userID uuid.UUID, method model.PaymentMethod) (*model.SubscriptionResponse, error) {
	plan, err := s.subRepo.FirstActivePlan()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, errors.Wrap(err, "find plan")
	}
	if method == "" {
		method = model.MethodKhalti
	}
	return s.activate(userID, plan, unlockDays, method, false, "pay_to_unlock")
}

func (s *SubscriptionService) activate(userID uuid.UUID, plan *model.SubscriptionPlan, days int, method model.PaymentMethod, autoRenew bool, source string) (*model.SubscriptionResponse, error) {
	active, err := s.HasActiveSubscription(userID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveSubscription
	}

	now := s.now()
	txnID, err := newTransactionID()
	if err != nil {
		return nil, err
	}

	sub := &model.UserSubscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, days),
		AutoRenew: autoRenew,
	}
	txn := &model.PaymentTransaction{
		UserID:        userID,
		Amount:        plan.Price,
		Currency:      "NPR",
		PaymentMethod: method,
		TransactionID: txnID,
		Status:        model.TransactionCompleted,
		PaymentDetails: datatypes.JSONMap{
			"simulated": true,
			"source":    source,
			"plan":      plan.Name,
		},
	}

	if err := s.subRepo.Activate(sub, txn, now); err != nil {
		if errors.Is(err, repository.ErrActiveSubscriptionExists) {
			return nil, ErrActiveSubscription
		}
		return nil, errors.Wrap(err, "activate subscription")
	}
	sub.Plan = plan

	log.Info().
		Str("user_id", userID.String()).
		Str("plan", plan.Name).
		Str("transaction_id", txnID).
		Msg("💳 Subscription activated")

	if s.notifier != nil {
		_, _ = s.notifier.Notify(userID, model.NotificationPaymentSuccess,
			"Payment successful",
			fmt.Sprintf("Your %s plan is active until %s.", plan.Name, sub.EndDate.Format("Jan 2, 2006")),
			model.PriorityMedium,
			map[string]any{"subscription_id": sub.ID.String(), "transaction_id": txnID},
		)
	}

	return &model.SubscriptionResponse{
		Subscription: sub,
		IsActive:     true,
		DaysLeft:     daysLeft(sub.EndDate, now),
	}, nil
}

// Cancel stops a pending or active subscription owned by userID
func (s *SubscriptionService) Cancel(userID, id uuid.UUID) (*model.UserSubscription, error) {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Subscription")
	}
	if sub.UserID != userID {
		return nil, notFound("Subscription")
	}
	if sub.Status != model.SubscriptionActive && sub.Status != model.SubscriptionPending {
		return nil, ErrSubscriptionClosed
	}

	if err := s.subRepo.UpdateStatus(id, sub.Status, model.SubscriptionCancelled); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, ErrSubscriptionClosed
		}
		return nil, errors.Wrap(err, "cancel subscription")
	}
	sub.Status = model.SubscriptionCancelled
	return sub, nil
}

func daysLeft(end, now time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
