package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationTestResult         NotificationType = "test_result"
	NotificationNewTest            NotificationType = "new_test"
	NotificationPaymentSuccess     NotificationType = "payment_success"
	NotificationPaymentFailed      NotificationType = "payment_failed"
	NotificationSubscriptionExpiry NotificationType = "subscription_expiry"
	NotificationAnnouncement       NotificationType = "announcement"
	NotificationAchievement        NotificationType = "achievement"
	NotificationReminder           NotificationType = "reminder"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Notification is a message addressed to one user
type Notification struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	Type      NotificationType  `json:"notification_type" gorm:"column:notification_type;size:30;not null"`
	Title     string            `json:"title" gorm:"size:200;not null"`
	Message   string            `json:"message" gorm:"type:text;not null"`
	Priority  Priority          `json:"priority" gorm:"size:10;not null;default:'medium'"`
	IsRead    bool              `json:"is_read" gorm:"not null;default:false"`
	IsSent    bool              `json:"is_sent" gorm:"not null;default:false"`
	Data      datatypes.JSONMap `json:"data" gorm:"type:jsonb;not null;default:'{}'"`
	ReadAt    *time.Time        `json:"read_at"`
	CreatedAt time.Time         `json:"created_at"`
}

type AnnouncementType string

const (
	AnnouncementGeneral     AnnouncementType = "general"
	AnnouncementAcademic    AnnouncementType = "academic"
	AnnouncementTechnical   AnnouncementType = "technical"
	AnnouncementMaintenance AnnouncementType = "maintenance"
	AnnouncementUpdate      AnnouncementType = "update"
)

// Announcement is a platform-wide post fanned out to students on publish
type Announcement struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string           `json:"title" gorm:"size:200;not null"`
	Content     string           `json:"content" gorm:"type:text;not null"`
	Type        AnnouncementType `json:"announcement_type" gorm:"column:announcement_type;size:20;not null;default:'general'"`
	Priority    Priority         `json:"priority" gorm:"size:10;not null;default:'medium'"`
	IsPublished bool             `json:"is_published" gorm:"not null;default:false"`
	PublishedAt *time.Time       `json:"published_at"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	CreatedByID *uuid.UUID       `json:"created_by" gorm:"column:created_by;type:uuid"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsVisibleAt reports a published announcement that has not expired
func (a *Announcement) IsVisibleAt(now time.Time) bool {
	return a.IsPublished && (a.ExpiresAt == nil || now.Before(*a.ExpiresAt))
}

// UserNotificationPreference holds per-channel opt-ins
type UserNotificationPreference struct {
	ID                  uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID              uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	EmailTestResults    bool      `json:"email_test_results" gorm:"not null"`
	EmailNewTests       bool      `json:"email_new_tests" gorm:"not null"`
	EmailPaymentUpdates bool      `json:"email_payment_updates" gorm:"not null"`
	EmailAnnouncements  bool      `json:"email_announcements" gorm:"not null"`
	EmailAchievements   bool      `json:"email_achievements" gorm:"not null"`
	PushTestResults     bool      `json:"push_test_results" gorm:"not null"`
	PushNewTests        bool      `json:"push_new_tests" gorm:"not null"`
	PushPaymentUpdates  bool      `json:"push_payment_updates" gorm:"not null"`
	PushAnnouncements   bool      `json:"push_announcements" gorm:"not null"`
	PushAchievements    bool      `json:"push_achievements" gorm:"not null"`
	DailyDigest         bool      `json:"daily_digest" gorm:"not null"`
	WeeklySummary       bool      `json:"weekly_summary" gorm:"not null"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultPreferences returns the opt-ins a new user starts with
func DefaultPreferences(userID uuid.UUID) *UserNotificationPreference {
	return &UserNotificationPreference{
		UserID:              userID,
		EmailTestResults:    true,
		EmailNewTests:       true,
		EmailPaymentUpdates: true,
		EmailAnnouncements:  true,
		EmailAchievements:   true,
		PushTestResults:     true,
		PushNewTests:        true,
		PushPaymentUpdates:  true,
		PushAnnouncements:   true,
		PushAchievements:    true,
		DailyDigest:         false,
		WeeklySummary:       true,
	}
}

// AllowsPush reports whether a notification type may be pushed to devices
func (p *UserNotificationPreference) AllowsPush(t NotificationType) bool {
	switch t {
	case NotificationTestResult:
		return p.PushTestResults
	case NotificationNewTest:
		return p.PushNewTests
	case NotificationPaymentSuccess, NotificationPaymentFailed, NotificationSubscriptionExpiry:
		return p.PushPaymentUpdates
	case NotificationAnnouncement:
		return p.PushAnnouncements
	case NotificationAchievement:
		return p.PushAchievements
	default:
		return true
	}
}

// AllowsEmail reports whether a notification type may be emailed
func (p *UserNotificationPreference) AllowsEmail(t NotificationType) bool {
	switch t {
	case NotificationTestResult:
		return p.EmailTestResults
	case NotificationNewTest:
		return p.EmailNewTests
	case NotificationPaymentSuccess, NotificationPaymentFailed, NotificationSubscriptionExpiry:
		return p.EmailPaymentUpdates
	case NotificationAnnouncement:
		return p.EmailAnnouncements
	case NotificationAchievement:
		return p.EmailAchievements
	default:
		return false
	}
}

type AchievementType string

const (
	AchievementTestCompletion AchievementType = "test_completion"
	AchievementPerfectScore   AchievementType = "perfect_score"
	AchievementStreak         AchievementType = "streak"
	AchievementSubjectMaster  AchievementType = "subject_master"
	AchievementSpeedDemon     AchievementType = "speed_demon"
	AchievementConsistency    AchievementType = "consistency"
)

// Achievement is a badge with machine-readable criteria
type Achievement struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string            `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string            `json:"description" gorm:"type:text;not null"`
	Type        AchievementType   `json:"achievement_type" gorm:"column:achievement_type;size:30;not null"`
	Icon        string            `json:"icon" gorm:"size:50;default:''"`
	Criteria    datatypes.JSONMap `json:"criteria" gorm:"type:jsonb;not null;default:'{}'"`
	Points      int               `json:"points" gorm:"not null;default:10"`
	IsActive    bool              `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CriteriaInt reads an integer criterion, tolerating JSON numbers
func (a *Achievement) CriteriaInt(key string) (int, bool) {
	switch v := a.Criteria[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// CriteriaFloat reads a numeric criterion as float64
func (a *Achievement) CriteriaFloat(key string) (float64, bool) {
	switch v := a.Criteria[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// UserAchievement records a badge earned by a user
type UserAchievement struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement"`
	AchievementID uuid.UUID `json:"achievement_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement"`
	EarnedAt      time.Time `json:"earned_at"`

	Achievement *Achievement `json:"achievement,omitempty" gorm:"foreignKey:AchievementID"`
}

// ========== Notification DTOs ==========

type AnnouncementRequest struct {
	Title     string           `json:"title" binding:"required,max=200"`
	Content   string           `json:"content" binding:"required"`
	Type      AnnouncementType `json:"announcement_type" binding:"omitempty,oneof=general academic technical maintenance update"`
	Priority  Priority         `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	ExpiresAt *time.Time       `json:"expires_at"`
}

type PreferenceRequest struct {
	EmailTestResults    *bool `json:"email_test_results"`
	EmailNewTests       *bool `json:"email_new_tests"`
	EmailPaymentUpdates *bool `json:"email_payment_updates"`
	EmailAnnouncements  *bool `json:"email_announcements"`
	EmailAchievements   *bool `json:"email_achievements"`
	PushTestResults     *bool `json:"push_test_results"`
	PushNewTests        *bool `json:"push_new_tests"`
	PushPaymentUpdates  *bool `json:"push_payment_updates"`
	PushAnnouncements   *bool `json:"push_announcements"`
	PushAchievements    *bool `json:"push_achievements"`
	DailyDigest         *bool `json:"daily_digest"`
	WeeklySummary       *bool `json:"weekly_summary"`
}

type PublishResponse struct {
	Announcement *Announcement `json:"announcement"`
	Recipients   int           `json:"recipients"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
