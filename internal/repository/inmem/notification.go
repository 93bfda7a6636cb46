package inmem

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) insert(n *model.Notification) {
	ensureID(&n.ID)
	n.CreatedAt = repo.db.now()
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	cp := *n
	repo.db.notifications[n.ID] = &cp
}

func (repo *notificationRepository) Create(n *model.Notification) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.insert(n)
	return nil
}

func (repo *notificationRepository) FindByID(id uuid.UUID) (*model.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	n, ok := repo.db.notifications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *n
	return &cp, nil
}

func (repo *notificationRepository) ListByUser(userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Notification
	for _, n := range repo.db.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (repo *notificationRepository) MarkRead(userID, id uuid.UUID, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n, ok := repo.db.notifications[id]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return nil
}

func (repo *notificationRepository) MarkAllRead(userID uuid.UUID, at time.Time) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var count int64
	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkSent(ids []uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		if n, ok := repo.db.notifications[id]; ok {
			n.IsSent = true
		}
	}
	return nil
}

func (repo *notificationRepository) CountUnread(userID uuid.UUID) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int64
	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) CreateAnnouncement(a *model.Announcement) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&a.ID)
	a.CreatedAt, a.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *a
	repo.db.announcements[a.ID] = &cp
	return nil
}

func (repo *notificationRepository) UpdateAnnouncement(a *model.Announcement) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.UpdatedAt = repo.db.now()
	cp := *a
	repo.db.announcements[a.ID] = &cp
	return nil
}

func (repo *notificationRepository) PublishAnnouncement(a *model.Announcement, batch []model.Notification, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.announcements[a.ID]
	if !ok || stored.IsPublished {
		return repository.ErrNotUpdated
	}
	stored.IsPublished = true
	stored.PublishedAt = &at
	stored.UpdatedAt = repo.db.now()
	for i := range batch {
		repo.insert(&batch[i])
	}
	return nil
}

func (repo *notificationRepository) FindAnnouncement(id uuid.UUID) (*model.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	a, ok := repo.db.announcements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (repo *notificationRepository) ListAnnouncements(publishedOnly bool, now time.Time) ([]model.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Announcement
	for _, a := range repo.db.announcements {
		if publishedOnly && !a.IsVisibleAt(now) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (repo *notificationRepository) FindPreferences(userID uuid.UUID) (*model.UserNotificationPreference, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, ok := repo.db.preferences[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (repo *notificationRepository) CreatePreferences(p *model.UserNotificationPreference) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, exists := repo.db.preferences[p.UserID]; exists {
		return gorm.ErrDuplicatedKey
	}
	ensureID(&p.ID)
	p.CreatedAt, p.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *p
	repo.db.preferences[p.UserID] = &cp
	return nil
}

func (repo *notificationRepository) UpdatePreferences(p *model.UserNotificationPreference) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.UpdatedAt = repo.db.now()
	cp := *p
	repo.db.preferences[p.UserID] = &cp
	return nil
}

func (repo *notificationRepository) ListAchievements() ([]model.Achievement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Achievement
	for _, a := range repo.db.achievements {
		if a.IsActive {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (repo *notificationRepository) FindAchievement(id uuid.UUID) (*model.Achievement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	a, ok := repo.db.achievements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (repo *notificationRepository) ListUserAchievements(userID uuid.UUID) ([]model.UserAchievement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.UserAchievement
	for _, ua := range repo.db.userAchievements {
		if ua.UserID != userID {
			continue
		}
		cp := ua
		if a, ok := repo.db.achievements[ua.AchievementID]; ok {
			ac := *a
			cp.Achievement = &ac
		}
		out = append(out, cp)
	}
	return out, nil
}

func (repo *notificationRepository) AwardAchievement(ua *model.UserAchievement) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.userAchievements {
		if existing.UserID == ua.UserID && existing.AchievementID == ua.AchievementID {
			return false, nil
		}
	}
	ensureID(&ua.ID)
	cp := *ua
	cp.Achievement = nil
	repo.db.userAchievements = append(repo.db.userAchievements, cp)
	return true, nil
}
