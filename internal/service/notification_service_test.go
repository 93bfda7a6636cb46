package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/hamroengineering/hamro/pkg/notification"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	mu        sync.Mutex
	direct    map[uuid.UUID][]*model.WSEvent
	broadcast []*model.WSEvent
}

func (b *fakeBroadcaster) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.direct == nil {
		b.direct = map[uuid.UUID][]*model.WSEvent{}
	}
	b.direct[userID] = append(b.direct[userID], event)
}

func (b *fakeBroadcaster) Broadcast(event *model.WSEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast = append(b.broadcast, event)
}

type fakePusher struct {
	mu     sync.Mutex
	pushes map[uuid.UUID][]notification.Push
}

func (p *fakePusher) Send(_ context.Context, userID uuid.UUID, push notification.Push) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushes == nil {
		p.pushes = map[uuid.UUID][]notification.Push{}
	}
	p.pushes[userID] = append(p.pushes[userID], push)
	return nil
}

type notificationFixture struct {
	db          *inmem.DB
	repo        repository.NotificationRepository
	broadcaster *fakeBroadcaster
	pusher      *fakePusher
	mailer      *fakeMailer
	svc         *NotificationService
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	db := inmem.NewDB()
	f := &notificationFixture{
		db:          db,
		repo:        inmem.NewNotificationRepository(db),
		broadcaster: &fakeBroadcaster{},
		pusher:      &fakePusher{},
		mailer:      &fakeMailer{},
	}
	f.svc = NewNotificationService(f.repo, inmem.NewUserRepository(db), f.broadcaster, f.pusher, f.mailer)
	f.svc.now = func() time.Time { return baseTime }
	f.svc.dispatch = func(fn func()) { fn() }
	return f
}

func TestNotify_DeliversOnOptedInChannels(t *testing.T) {
	f := newNotificationFixture(t)
	student := seedStudent(f.db, "asha@example.com")

	n, err := f.svc.Notify(student.ID, model.NotificationTestResult, "Results for IOE Set 1", "You scored 80.0%", "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, n.Priority)

	require.Len(t, f.broadcaster.direct[student.ID], 1)
	assert.Equal(t, model.WSEventNotification, f.broadcaster.direct[student.ID][0].Type)
	require.Len(t, f.pusher.pushes[student.ID], 1)
	assert.Equal(t, "Results for IOE Set 1", f.pusher.pushes[student.ID][0].Title)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "asha@example.com", sent[0].To)

	stored, err := f.repo.FindByID(n.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSent)
}

func TestNotify_RespectsPreferences(t *testing.T) {
	f := newNotificationFixture(t)
	student := seedStudent(f.db, "binod@example.com")

	_, err := f.svc.UpdatePreferences(student.ID, model.PreferenceRequest{
		PushTestResults:  ptr(false),
		EmailTestResults: ptr(false),
	})
	require.NoError(t, err)

	_, err = f.svc.Notify(student.ID, model.NotificationTestResult, "Results", "scored", model.PriorityLow, nil)
	require.NoError(t, err)

	assert.Len(t, f.broadcaster.direct[student.ID], 1, "live delivery ignores preferences")
	assert.Empty(t, f.pusher.pushes[student.ID])
	assert.Empty(t, f.mailer.Sent())

	// achievements are never emailed
	_, err = f.svc.Notify(student.ID, model.NotificationAchievement, "Badge", "earned", "", nil)
	require.NoError(t, err)
	assert.Len(t, f.pusher.pushes[student.ID], 1)
	assert.Empty(t, f.mailer.Sent())
}

func TestPublish_FansOutToActiveVerifiedStudents(t *testing.T) {
	f := newNotificationFixture(t)
	s1 := seedStudent(f.db, "one@example.com")
	s2 := seedStudent(f.db, "two@example.com")

	users := inmem.NewUserRepository(f.db)
	unverified := &model.User{Email: "three@example.com", Username: "three", Role: model.RoleStudent, IsActive: true}
	require.NoError(t, users.CreateWithProfile(unverified, nil))
	now := baseTime
	admin := &model.User{Email: "admin@example.com", Username: "admin", Role: model.RoleAdmin, IsActive: true, EmailVerifiedAt: &now}
	require.NoError(t, users.CreateWithProfile(admin, nil))

	content := strings.Repeat("नमस्ते ", 30)
	a, err := f.svc.CreateAnnouncement(admin.ID, model.AnnouncementRequest{Title: "Exam schedule", Content: content})
	require.NoError(t, err)
	assert.Equal(t, model.AnnouncementGeneral, a.Type)

	_, err = f.svc.GetAnnouncement(a.ID, false)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf, "drafts are hidden")

	resp, err := f.svc.Publish(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Recipients)
	assert.True(t, resp.Announcement.IsPublished)
	require.NotNil(t, resp.Announcement.PublishedAt)

	for _, id := range []uuid.UUID{s1.ID, s2.ID} {
		list, err := f.svc.List(id, true)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, model.NotificationAnnouncement, list[0].Type)
		assert.Equal(t, 103, len([]rune(list[0].Message)))
		assert.True(t, strings.HasSuffix(list[0].Message, "..."))
	}
	for _, id := range []uuid.UUID{unverified.ID, admin.ID} {
		list, err := f.svc.List(id, false)
		require.NoError(t, err)
		assert.Empty(t, list)
	}

	assert.Len(t, f.broadcaster.broadcast, 1)
	assert.Len(t, f.pusher.pushes[s1.ID], 1)

	_, err = f.svc.Publish(a.ID)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	visible, err := f.svc.ListAnnouncements(true)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

// failingPublishRepo rejects the publish write the way a failed batch insert
// rolls back the whole transaction
type failingPublishRepo struct {
	repository.NotificationRepository
	fail bool
}

func (r *failingPublishRepo) PublishAnnouncement(a *model.Announcement, batch []model.Notification, at time.Time) error {
	if r.fail {
		return errors.New("insert notifications: connection reset")
	}
	return r.NotificationRepository.PublishAnnouncement(a, batch, at)
}

func TestPublish_FailedFanOutLeavesDraft(t *testing.T) {
	f := newNotificationFixture(t)
	student := seedStudent(f.db, "retry@example.com")

	repo := &failingPublishRepo{NotificationRepository: f.repo, fail: true}
	svc := NewNotificationService(repo, inmem.NewUserRepository(f.db), f.broadcaster, f.pusher, f.mailer)
	svc.now = func() time.Time { return baseTime }
	svc.dispatch = func(fn func()) { fn() }

	a, err := svc.CreateAnnouncement(uuid.New(), model.AnnouncementRequest{Title: "Results", Content: "Results are out"})
	require.NoError(t, err)

	_, err = svc.Publish(a.ID)
	require.Error(t, err)

	stored, err := svc.GetAnnouncement(a.ID, true)
	require.NoError(t, err)
	assert.False(t, stored.IsPublished)
	assert.Nil(t, stored.PublishedAt)
	list, err := svc.List(student.ID, false)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.broadcaster.broadcast)

	repo.fail = false
	resp, err := svc.Publish(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Recipients)

	list, err = svc.List(student.ID, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPublish_ShortContentIsNotTruncated(t *testing.T) {
	f := newNotificationFixture(t)
	student := seedStudent(f.db, "short@example.com")

	a, err := f.svc.CreateAnnouncement(uuid.New(), model.AnnouncementRequest{Title: "Hi", Content: "Server maintenance tonight"})
	require.NoError(t, err)
	_, err = f.svc.Publish(a.ID)
	require.NoError(t, err)

	list, err := f.svc.List(student.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Server maintenance tonight", list[0].Message)
}

func TestNotifications_ReadState(t *testing.T) {
	f := newNotificationFixture(t)
	student := seedStudent(f.db, "read@example.com")
	other := seedStudent(f.db, "other@example.com")

	n1, err := f.svc.Notify(student.ID, model.NotificationReminder, "Practice", "time to practice", "", nil)
	require.NoError(t, err)
	_, err = f.svc.Notify(student.ID, model.NotificationReminder, "Practice", "again", "", nil)
	require.NoError(t, err)

	count, err := f.svc.UnreadCount(student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	var nf *NotFoundError
	assert.ErrorAs(t, f.svc.MarkRead(other.ID, n1.ID), &nf)
	_, err = f.svc.Get(other.ID, n1.ID)
	assert.ErrorAs(t, err, &nf)

	f.svc.HandleClientEvent(student.ID, model.WSEvent{
		Type:    model.WSEventMarkRead,
		Payload: map[string]interface{}{"notification_id": n1.ID.String()},
	})
	count, err = f.svc.UnreadCount(student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	events := f.broadcaster.direct[student.ID]
	last := events[len(events)-1]
	assert.Equal(t, model.WSEventUnreadCount, last.Type)
	assert.Equal(t, model.UnreadCountResponse{Unread: 1}, last.Payload)

	marked, err := f.svc.MarkAllRead(student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)
}

func TestGetPreferences_CreatesDefaultsOnce(t *testing.T) {
	f := newNotificationFixture(t)
	userID := uuid.New()

	first, err := f.svc.GetPreferences(userID)
	require.NoError(t, err)
	assert.True(t, first.PushAnnouncements)
	assert.False(t, first.DailyDigest)

	second, err := f.svc.GetPreferences(userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
