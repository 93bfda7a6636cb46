package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlanType string

const (
	PlanBasic      PlanType = "basic"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

type PlanDuration string

const (
	DurationMonthly   PlanDuration = "monthly"
	DurationQuarterly PlanDuration = "quarterly"
	DurationYearly    PlanDuration = "yearly"
)

// Days returns the length of a billing period
func (d PlanDuration) Days() int {
	switch d {
	case DurationQuarterly:
		return 90
	case DurationYearly:
		return 365
	default:
		return 30
	}
}

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodKhalti       PaymentMethod = "khalti"
	MethodEsewa        PaymentMethod = "esewa"
	MethodPhonePe      PaymentMethod = "phonepe"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
	TransactionRefunded  TransactionStatus = "refunded"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionPending:   {TransactionCompleted, TransactionFailed, TransactionCancelled},
	TransactionCompleted: {TransactionRefunded},
}

// CanTransitionTo reports whether a transaction may move from s to next
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundProcessed RefundStatus = "processed"
)

var refundTransitions = map[RefundStatus][]RefundStatus{
	RefundPending:  {RefundApproved, RefundRejected},
	RefundApproved: {RefundProcessed},
}

func (s RefundStatus) CanTransitionTo(next RefundStatus) bool {
	for _, allowed := range refundTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SubscriptionPlan is a purchasable tier
type SubscriptionPlan struct {
	ID                uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string                      `json:"name" gorm:"size:100;not null"`
	PlanType          PlanType                    `json:"plan_type" gorm:"size:20;not null"`
	Duration          PlanDuration                `json:"duration" gorm:"size:20;not null"`
	Price             float64                     `json:"price" gorm:"type:numeric(10,2);not null"`
	Description       string                      `json:"description" gorm:"type:text;default:''"`
	Features          datatypes.JSONSlice[string] `json:"features" gorm:"type:jsonb;not null;default:'[]'"`
	MaxMockTests      int                         `json:"max_mock_tests" gorm:"not null;default:0"` // 0 = unlimited
	MaxMCQPractice    int                         `json:"max_mcq_practice" gorm:"column:max_mcq_practice;not null;default:0"`
	AccessToResources bool                        `json:"access_to_resources" gorm:"not null"`
	PrioritySupport   bool                        `json:"priority_support" gorm:"not null;default:false"`
	IsActive          bool                        `json:"is_active" gorm:"not null"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// UserSubscription grants access for a bounded period
type UserSubscription struct {
	ID        uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID          `json:"user_id" gorm:"type:uuid;not null;index"`
	PlanID    uuid.UUID          `json:"plan_id" gorm:"type:uuid;not null"`
	Status    SubscriptionStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	StartDate time.Time          `json:"start_date" gorm:"not null"`
	EndDate   time.Time          `json:"end_date" gorm:"not null"`
	AutoRenew bool               `json:"auto_renew" gorm:"not null;default:false"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`

	Plan *SubscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// IsActiveAt is the derived access condition: active status within [start, end]
func (s *UserSubscription) IsActiveAt(now time.Time) bool {
	return s.Status == SubscriptionActive && !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// IsLapsed reports an active-status row whose end date has passed
func (s *UserSubscription) IsLapsed(now time.Time) bool {
	return s.Status == SubscriptionActive && now.After(s.EndDate)
}

// PaymentTransaction records one (simulated) payment
type PaymentTransaction struct {
	ID                   uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID               uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	SubscriptionID       *uuid.UUID        `json:"subscription_id" gorm:"type:uuid"`
	Amount               float64           `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency             string            `json:"currency" gorm:"size:3;not null;default:'NPR'"`
	PaymentMethod        PaymentMethod     `json:"payment_method" gorm:"size:20;not null"`
	TransactionID        string            `json:"transaction_id" gorm:"size:100;uniqueIndex;not null"`
	GatewayTransactionID string            `json:"gateway_transaction_id" gorm:"size:100;default:''"`
	Status               TransactionStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	PaymentDetails       datatypes.JSONMap `json:"payment_details" gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// PaymentGateway describes a configured payment provider
type PaymentGateway struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"size:50;uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"size:100;not null"`
	MerchantID  string    `json:"merchant_id" gorm:"size:100;default:''"`
	APIKey      string    `json:"-" gorm:"column:api_key;size:255;default:''"`
	SecretKey   string    `json:"-" gorm:"size:255;default:''"`
	WebhookURL  string    `json:"webhook_url" gorm:"size:500;default:''"`
	TestMode    bool      `json:"test_mode" gorm:"not null"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Refund is a request to return money for a completed transaction
type Refund struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID    `json:"transaction_id" gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	Amount        float64      `json:"amount" gorm:"type:numeric(10,2);not null"`
	Reason        string       `json:"reason" gorm:"type:text;not null"`
	Status        RefundStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	ProcessedAt   *time.Time   `json:"processed_at"`
	ProcessedByID *uuid.UUID   `json:"processed_by" gorm:"column:processed_by;type:uuid"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Transaction *PaymentTransaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
}

// ========== Payment DTOs ==========

type PlanRequest struct {
	Name              string       `json:"name" binding:"required,max=100"`
	PlanType          PlanType     `json:"plan_type" binding:"required,oneof=basic premium enterprise"`
	Duration          PlanDuration `json:"duration" binding:"required,oneof=monthly quarterly yearly"`
	Price             float64      `json:"price" binding:"min=0"`
	Description       string       `json:"description"`
	Features          []string     `json:"features"`
	MaxMockTests      int          `json:"max_mock_tests" binding:"min=0"`
	MaxMCQPractice    int          `json:"max_mcq_practice" binding:"min=0"`
	AccessToResources bool         `json:"access_to_resources"`
	PrioritySupport   bool         `json:"priority_support"`
	IsActive          *bool        `json:"is_active"`
}

type SubscribeRequest struct {
	PlanID        uuid.UUID     `json:"plan_id" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required,oneof=khalti esewa phonepe bank_transfer"`
	AutoRenew     bool          `json:"auto_renew"`
}

// PayToUnlockRequest is bound from JSON or from the website form
type PayToUnlockRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" form:"payment_method" binding:"omitempty,oneof=khalti esewa phonepe bank_transfer"`
}

type SubscriptionResponse struct {
	Subscription *UserSubscription `json:"subscription"`
	IsActive     bool              `json:"is_active"`
	DaysLeft     int               `json:"days_left"`
}

type CreateTransactionRequest struct {
	SubscriptionID *uuid.UUID     `json:"subscription_id"`
	Amount         float64        `json:"amount" binding:"required,gt=0"`
	PaymentMethod  PaymentMethod  `json:"payment_method" binding:"required,oneof=khalti esewa phonepe bank_transfer"`
	PaymentDetails map[string]any `json:"payment_details"`
}

type TransactionStatusRequest struct {
	Status               TransactionStatus `json:"status" binding:"required,oneof=completed failed cancelled refunded"`
	GatewayTransactionID string            `json:"gateway_transaction_id"`
}

type RefundRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" binding:"required"`
	Amount        float64   `json:"amount" binding:"required,gt=0"`
	Reason        string    `json:"reason" binding:"required,max=1000"`
}

type RefundReviewRequest struct {
	Status RefundStatus `json:"status" binding:"required,oneof=approved rejected processed"`
}
