package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/pkg/notification"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	announcementPreviewLen = 100
	defaultListLimit       = 50
)

// Notifier creates a user notification and delivers it
type Notifier interface {
	Notify(userID uuid.UUID, t model.NotificationType, title, message string, priority model.Priority, data map[string]any) (*model.Notification, error)
}

// Broadcaster pushes events to live WebSocket connections
type Broadcaster interface {
	SendToUser(userID uuid.UUID, event *model.WSEvent)
	Broadcast(event *model.WSEvent)
}

// Pusher sends mobile push notifications
type Pusher interface {
	Send(ctx context.Context, userID uuid.UUID, p notification.Push) error
}

// NotificationService stores notifications and fans them out to the live,
// push and email channels the user has opted into
type NotificationService struct {
	notifRepo   repository.NotificationRepository
	userRepo    repository.UserRepository
	broadcaster Broadcaster
	pusher      Pusher
	mailer      Mailer
	now         func() time.Time
	dispatch    func(func())
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	broadcaster Broadcaster,
	pusher Pusher,
	mailer Mailer,
) *NotificationService {
	return &NotificationService{
		notifRepo:   notifRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		pusher:      pusher,
		mailer:      mailer,
		now:         time.Now,
		dispatch:    func(f func()) { go f() },
	}
}

// ==================== Notifications ====================

// Notify persists a notification and delivers it in the background
func (s *NotificationService) Notify(userID uuid.UUID, t model.NotificationType, title, message string, priority model.Priority, data map[string]any) (*model.Notification, error) {
	if priority == "" {
		priority = model.PriorityMedium
	}
	if data == nil {
		data = map[string]any{}
	}
	n := &model.Notification{
		UserID:   userID,
		Type:     t,
		Title:    title,
		Message:  message,
		Priority: priority,
		Data:     datatypes.JSONMap(data),
	}
	if err := s.notifRepo.Create(n); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("type", string(t)).Msg("❌ Failed to create notification")
		return nil, errors.Wrap(err, "create notification")
	}

	delivered := *n
	s.dispatch(func() { s.deliver(&delivered) })
	return n, nil
}

func (s *NotificationService) deliver(n *model.Notification) {
	if s.broadcaster != nil {
		s.broadcaster.SendToUser(n.UserID, &model.WSEvent{
			Type:    model.WSEventNotification,
			Payload: toEvent(n),
		})
	}

	prefs, err := s.GetPreferences(n.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("failed to load notification preferences")
		prefs = model.DefaultPreferences(n.UserID)
	}

	if s.pusher != nil && prefs.AllowsPush(n.Type) {
		err := s.pusher.Send(context.Background(), n.UserID, notification.Push{
			Title: n.Title,
			Body:  n.Message,
			Data: map[string]string{
				"type":            string(n.Type),
				"notification_id": n.ID.String(),
			},
		})
		if err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("⚠️ Push delivery failed")
		}
	}

	if s.mailer != nil && emailed(n.Type) && prefs.AllowsEmail(n.Type) {
		user, err := s.userRepo.FindByID(n.UserID)
		if err == nil {
			err = s.mailer.SendNotification(user.Email, user.FullName(), n.Title, n.Message)
		}
		if err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("⚠️ Email delivery failed")
		}
	}

	if err := s.notifRepo.MarkSent([]uuid.UUID{n.ID}); err != nil {
		log.Warn().Err(err).Msg("failed to mark notification sent")
	}
}

// emailed lists the notification types mirrored by email
func emailed(t model.NotificationType) bool {
	switch t {
	case model.NotificationTestResult, model.NotificationPaymentSuccess, model.NotificationPaymentFailed:
		return true
	}
	return false
}

func toEvent(n *model.Notification) model.NotificationEvent {
	return model.NotificationEvent{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  n.Priority,
		Data:      map[string]any(n.Data),
		CreatedAt: n.CreatedAt,
	}
}

func (s *NotificationService) List(userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	return s.notifRepo.ListByUser(userID, unreadOnly, defaultListLimit)
}

// Get returns a notification owned by userID
func (s *NotificationService) Get(userID, id uuid.UUID) (*model.Notification, error) {
	n, err := s.notifRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Notification")
	}
	if n.UserID != userID {
		return nil, notFound("Notification")
	}
	return n, nil
}

func (s *NotificationService) MarkRead(userID, id uuid.UUID) error {
	if err := s.notifRepo.MarkRead(userID, id, s.now()); err != nil {
		return lookupErr(err, "Notification")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) (int64, error) {
	return s.notifRepo.MarkAllRead(userID, s.now())
}

func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(userID)
}

// ==================== Announcements ====================

// ListAnnouncements returns visible announcements, or all of them for admins
func (s *NotificationService) ListAnnouncements(publishedOnly bool) ([]model.Announcement, error) {
	return s.notifRepo.ListAnnouncements(publishedOnly, s.now())
}

// GetAnnouncement returns an announcement; unpublished or expired ones are hidden
// unless includeHidden is set
func (s *NotificationService) GetAnnouncement(id uuid.UUID, includeHidden bool) (*model.Announcement, error) {
	a, err := s.notifRepo.FindAnnouncement(id)
	if err != nil {
		return nil, lookupErr(err, "Announcement")
	}
	if !includeHidden && !a.IsVisibleAt(s.now()) {
		return nil, notFound("Announcement")
	}
	return a, nil
}

func (s *NotificationService) CreateAnnouncement(adminID uuid.UUID, req model.AnnouncementRequest) (*model.Announcement, error) {
	a := &model.Announcement{CreatedByID: &adminID}
	applyAnnouncementRequest(a, req)
	if err := s.notifRepo.CreateAnnouncement(a); err != nil {
		return nil, errors.Wrap(err, "create announcement")
	}
	return a, nil
}

func (s *NotificationService) UpdateAnnouncement(id uuid.UUID, req model.AnnouncementRequest) (*model.Announcement, error) {
	a, err := s.notifRepo.FindAnnouncement(id)
	if err != nil {
		return nil, lookupErr(err, "Announcement")
	}
	applyAnnouncementRequest(a, req)
	if err := s.notifRepo.UpdateAnnouncement(a); err != nil {
		return nil, errors.Wrap(err, "update announcement")
	}
	return a, nil
}

func applyAnnouncementRequest(a *model.Announcement, req model.AnnouncementRequest) {
	a.Title = req.Title
	a.Content = req.Content
	a.Type = req.Type
	if a.Type == "" {
		a.Type = model.AnnouncementGeneral
	}
	a.Priority = req.Priority
	if a.Priority == "" {
		a.Priority = model.PriorityMedium
	}
	a.ExpiresAt = req.ExpiresAt
}

// Publish marks an announcement published and creates one notification per
// active verified student
func (s *NotificationService) Publish(id uuid.UUID) (*model.PublishResponse, error) {
	a, err := s.notifRepo.FindAnnouncement(id)
	if err != nil {
		return nil, lookupErr(err, "Announcement")
	}
	if a.IsPublished {
		return nil, &ValidationError{Message: "Announcement is already published"}
	}

	studentIDs, err := s.userRepo.ListActiveStudentIDs()
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}

	message := truncate(a.Content, announcementPreviewLen)
	batch := make([]model.Notification, 0, len(studentIDs))
	for _, uid := range studentIDs {
		batch = append(batch, model.Notification{
			UserID:   uid,
			Type:     model.NotificationAnnouncement,
			Title:    a.Title,
			Message:  message,
			Priority: a.Priority,
			Data:     datatypes.JSONMap{"announcement_id": a.ID.String()},
		})
	}

	now := s.now()
	if err := s.notifRepo.PublishAnnouncement(a, batch, now); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, &ValidationError{Message: "Announcement is already published"}
		}
		return nil, errors.Wrap(err, "publish announcement")
	}
	a.IsPublished = true
	a.PublishedAt = &now

	log.Info().
		Str("announcement_id", a.ID.String()).
		Int("recipients", len(batch)).
		Msg("📣 Announcement published")

	published := *a
	s.dispatch(func() { s.deliverAnnouncement(&published, batch) })

	return &model.PublishResponse{Announcement: a, Recipients: len(batch)}, nil
}

func (s *NotificationService) deliverAnnouncement(a *model.Announcement, batch []model.Notification) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(&model.WSEvent{Type: model.WSEventAnnouncement, Payload: a})
	}

	ids := make([]uuid.UUID, 0, len(batch))
	for i := range batch {
		n := &batch[i]
		ids = append(ids, n.ID)
		if s.pusher == nil {
			continue
		}
		prefs, err := s.GetPreferences(n.UserID)
		if err != nil || !prefs.AllowsPush(n.Type) {
			continue
		}
		err = s.pusher.Send(context.Background(), n.UserID, notification.Push{
			Title: n.Title,
			Body:  n.Message,
			Data:  map[string]string{"type": string(n.Type), "announcement_id": a.ID.String()},
		})
		if err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("⚠️ Push delivery failed")
		}
	}

	if err := s.notifRepo.MarkSent(ids); err != nil {
		log.Warn().Err(err).Msg("failed to mark announcement notifications sent")
	}
}

// truncate cuts s to max runes, appending "..." when anything was removed
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// ==================== Preferences ====================

// GetPreferences returns the user's preferences, creating the defaults on first access
func (s *NotificationService) GetPreferences(userID uuid.UUID) (*model.UserNotificationPreference, error) {
	prefs, err := s.notifRepo.FindPreferences(userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find preferences")
	}

	prefs = model.DefaultPreferences(userID)
	if err := s.notifRepo.CreatePreferences(prefs); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.notifRepo.FindPreferences(userID)
		}
		return nil, errors.Wrap(err, "create preferences")
	}
	return prefs, nil
}

// UpdatePreferences applies the flags present in req
func (s *NotificationService) UpdatePreferences(userID uuid.UUID, req model.PreferenceRequest) (*model.UserNotificationPreference, error) {
	prefs, err := s.GetPreferences(userID)
	if err != nil {
		return nil, err
	}

	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&prefs.EmailTestResults, req.EmailTestResults)
	set(&prefs.EmailNewTests, req.EmailNewTests)
	set(&prefs.EmailPaymentUpdates, req.EmailPaymentUpdates)
	set(&prefs.EmailAnnouncements, req.EmailAnnouncements)
	set(&prefs.EmailAchievements, req.EmailAchievements)
	set(&prefs.PushTestResults, req.PushTestResults)
	set(&prefs.PushNewTests, req.PushNewTests)
	set(&prefs.PushPaymentUpdates, req.PushPaymentUpdates)
	set(&prefs.PushAnnouncements, req.PushAnnouncements)
	set(&prefs.PushAchievements, req.PushAchievements)
	set(&prefs.DailyDigest, req.DailyDigest)
	set(&prefs.WeeklySummary, req.WeeklySummary)

	if err := s.notifRepo.UpdatePreferences(prefs); err != nil {
		return nil, errors.Wrap(err, "update preferences")
	}
	return prefs, nil
}

// HandleClientEvent processes events sent by WebSocket clients
func (s *NotificationService) HandleClientEvent(userID uuid.UUID, event model.WSEvent) {
	if event.Type != model.WSEventMarkRead {
		return
	}

	var id uuid.UUID
	switch p := event.Payload.(type) {
	case map[string]interface{}:
		raw, _ := p["notification_id"].(string)
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return
		}
		id = parsed
	default:
		return
	}

	if err := s.MarkRead(userID, id); err != nil {
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("ws mark_read ignored")
		return
	}
	if s.broadcaster == nil {
		return
	}
	unread, err := s.UnreadCount(userID)
	if err != nil {
		return
	}
	s.broadcaster.SendToUser(userID, &model.WSEvent{
		Type:    model.WSEventUnreadCount,
		Payload: model.UnreadCountResponse{Unread: unread},
	})
}
