// Package inmem holds map-backed repository implementations used by service tests.
package inmem

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
)

// DB is the shared in-memory store. Repositories are views over it so that
// cross-table reads behave like joins.
type DB struct {
	mutex sync.RWMutex

	users         map[uuid.UUID]*model.User
	profiles      map[uuid.UUID]*model.StudentProfile // keyed by user ID
	loginAttempts []model.LoginAttempt
	devices       []model.UserDevice
	otps          map[uuid.UUID]*model.OTPCode

	subjects      map[uuid.UUID]*model.Subject
	topics        map[uuid.UUID]*model.Topic
	questions     map[uuid.UUID]*model.Question
	bookmarks     []model.BookmarkedQuestion
	mockTests     map[uuid.UUID]*model.MockTest
	testQuestions []model.MockTestQuestion
	attempts      map[uuid.UUID]*model.MockTestAttempt
	answers       map[uuid.UUID][]model.QuestionAttempt // keyed by attempt ID

	plans         map[uuid.UUID]*model.SubscriptionPlan
	subscriptions map[uuid.UUID]*model.UserSubscription
	transactions  map[uuid.UUID]*model.PaymentTransaction
	refunds       map[uuid.UUID]*model.Refund
	gateways      []model.PaymentGateway

	notifications    map[uuid.UUID]*model.Notification
	announcements    map[uuid.UUID]*model.Announcement
	preferences      map[uuid.UUID]*model.UserNotificationPreference // keyed by user ID
	achievements     map[uuid.UUID]*model.Achievement
	userAchievements []model.UserAchievement

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:         map[uuid.UUID]*model.User{},
		profiles:      map[uuid.UUID]*model.StudentProfile{},
		otps:          map[uuid.UUID]*model.OTPCode{},
		subjects:      map[uuid.UUID]*model.Subject{},
		topics:        map[uuid.UUID]*model.Topic{},
		questions:     map[uuid.UUID]*model.Question{},
		mockTests:     map[uuid.UUID]*model.MockTest{},
		attempts:      map[uuid.UUID]*model.MockTestAttempt{},
		answers:       map[uuid.UUID][]model.QuestionAttempt{},
		plans:         map[uuid.UUID]*model.SubscriptionPlan{},
		subscriptions: map[uuid.UUID]*model.UserSubscription{},
		transactions:  map[uuid.UUID]*model.PaymentTransaction{},
		refunds:       map[uuid.UUID]*model.Refund{},
		notifications: map[uuid.UUID]*model.Notification{},
		announcements: map[uuid.UUID]*model.Announcement{},
		preferences:   map[uuid.UUID]*model.UserNotificationPreference{},
		achievements:  map[uuid.UUID]*model.Achievement{},
		now:           time.Now,
	}
}

// SetClock overrides the timestamps stamped on created rows
func (db *DB) SetClock(now func() time.Time) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.now = now
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// AddGateway seeds a payment gateway; gateways have no write path in the API
func (db *DB) AddGateway(g model.PaymentGateway) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	ensureID(&g.ID)
	db.gateways = append(db.gateways, g)
}

// AddAchievement seeds an achievement definition
func (db *DB) AddAchievement(a model.Achievement) model.Achievement {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	ensureID(&a.ID)
	db.achievements[a.ID] = &a
	return a
}
