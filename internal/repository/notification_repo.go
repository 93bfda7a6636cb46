package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository handles notifications, announcements, preferences and achievements
type NotificationRepository interface {
	Create(n *model.Notification) error
	FindByID(id uuid.UUID) (*model.Notification, error)
	ListByUser(userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(userID, id uuid.UUID, at time.Time) error
	MarkAllRead(userID uuid.UUID, at time.Time) (int64, error)
	MarkSent(ids []uuid.UUID) error
	CountUnread(userID uuid.UUID) (int64, error)

	CreateAnnouncement(a *model.Announcement) error
	UpdateAnnouncement(a *model.Announcement) error
	PublishAnnouncement(a *model.Announcement, batch []model.Notification, at time.Time) error
	FindAnnouncement(id uuid.UUID) (*model.Announcement, error)
	ListAnnouncements(publishedOnly bool, now time.Time) ([]model.Announcement, error)

	FindPreferences(userID uuid.UUID) (*model.UserNotificationPreference, error)
	CreatePreferences(p *model.UserNotificationPreference) error
	UpdatePreferences(p *model.UserNotificationPreference) error

	ListAchievements() ([]model.Achievement, error)
	FindAchievement(id uuid.UUID) (*model.Achievement, error)
	ListUserAchievements(userID uuid.UUID) ([]model.UserAchievement, error)
	AwardAchievement(ua *model.UserAchievement) (bool, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepository) FindByID(id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	err := r.db.Where("id = ?", id).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ns []model.Notification
	err := query.Order("created_at DESC").Find(&ns).Error
	return ns, err
}

// MarkRead marks one of the user's notifications read; gorm.ErrRecordNotFound
// when it does not exist or belongs to someone else
func (r *notificationRepository) MarkRead(userID, id uuid.UUID, at time.Time) error {
	res := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": gorm.Expr("COALESCE(read_at, ?)", at)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) MarkSent(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Notification{}).Where("id IN ?", ids).Update("is_sent", true).Error
}

func (r *notificationRepository) CountUnread(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) CreateAnnouncement(a *model.Announcement) error {
	return r.db.Create(a).Error
}

func (r *notificationRepository) UpdateAnnouncement(a *model.Announcement) error {
	return r.db.Save(a).Error
}

// PublishAnnouncement flips a draft to published and inserts its fan-out
// notifications in one transaction. ErrNotUpdated means it was already published.
func (r *notificationRepository) PublishAnnouncement(a *model.Announcement, batch []model.Notification, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Announcement{}).
			Where("id = ? AND is_published = ?", a.ID, false).
			Updates(map[string]any{"is_published": true, "published_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotUpdated
		}
		if len(batch) == 0 {
			return nil
		}
		return tx.CreateInBatches(&batch, 500).Error
	})
}

func (r *notificationRepository) FindAnnouncement(id uuid.UUID) (*model.Announcement, error) {
	var a model.Announcement
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnnouncements returns announcements newest first; publishedOnly hides
// drafts and expired posts
func (r *notificationRepository) ListAnnouncements(publishedOnly bool, now time.Time) ([]model.Announcement, error) {
	query := r.db.Order("COALESCE(published_at, created_at) DESC")
	if publishedOnly {
		query = query.Where("is_published = ? AND (expires_at IS NULL OR expires_at > ?)", true, now)
	}
	var as []model.Announcement
	err := query.Find(&as).Error
	return as, err
}

func (r *notificationRepository) FindPreferences(userID uuid.UUID) (*model.UserNotificationPreference, error) {
	var p model.UserNotificationPreference
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *notificationRepository) CreatePreferences(p *model.UserNotificationPreference) error {
	return r.db.Create(p).Error
}

func (r *notificationRepository) UpdatePreferences(p *model.UserNotificationPreference) error {
	return r.db.Save(p).Error
}

func (r *notificationRepository) ListAchievements() ([]model.Achievement, error) {
	var as []model.Achievement
	err := r.db.Where("is_active = ?", true).Order("points ASC, name ASC").Find(&as).Error
	return as, err
}

func (r *notificationRepository) FindAchievement(id uuid.UUID) (*model.Achievement, error) {
	var a model.Achievement
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *notificationRepository) ListUserAchievements(userID uuid.UUID) ([]model.UserAchievement, error) {
	var uas []model.UserAchievement
	err := r.db.Preload("Achievement").Where("user_id = ?", userID).Order("earned_at DESC").Find(&uas).Error
	return uas, err
}

// AwardAchievement inserts the badge unless the user already holds it.
// It reports whether a new row was written.
func (r *notificationRepository) AwardAchievement(ua *model.UserAchievement) (bool, error) {
	res := r.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ua)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
