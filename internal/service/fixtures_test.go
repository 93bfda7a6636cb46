package service

import (
	"context"
	"mime/multipart"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/hamroengineering/hamro/pkg/storage"
	"gorm.io/datatypes"
)

type sentMail struct {
	Kind  string
	To    string
	Title string
	Body  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) record(mail sentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) SendOTP(to, _, code string, _ int) error {
	return m.record(sentMail{Kind: "otp", To: to, Body: code})
}

func (m *fakeMailer) SendPasswordReset(to, _, code string, _ int) error {
	return m.record(sentMail{Kind: "reset", To: to, Body: code})
}

func (m *fakeMailer) SendWelcome(to, _ string) error {
	return m.record(sentMail{Kind: "welcome", To: to})
}

func (m *fakeMailer) SendNotification(to, _, title, message string) error {
	return m.record(sentMail{Kind: "notification", To: to, Title: title, Body: message})
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]int64
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]int64{}}
}

func (s *fakeStorage) Upload(_ context.Context, _ multipart.File, header *multipart.FileHeader, folder string) (*storage.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := folder + "/" + uuid.NewString() + "-" + header.Filename
	s.objects[key] = header.Size
	return &storage.UploadResult{
		URL:      s.GetPublicURL(key),
		Key:      key,
		FileName: header.Filename,
		FileSize: header.Size,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

func (s *fakeStorage) Delete(_ context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	s.deleted = append(s.deleted, objectName)
	return nil
}

func (s *fakeStorage) GetPublicURL(objectName string) string {
	return "https://files.test/" + objectName
}

func (s *fakeStorage) PresignedURL(_ context.Context, objectName, _ string, _ time.Duration) (string, error) {
	return "https://files.test/" + objectName + "?signed=1", nil
}

type notified struct {
	UserID uuid.UUID
	Type   model.NotificationType
	Title  string
	Data   map[string]any
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []notified
}

func (n *recordingNotifier) Notify(userID uuid.UUID, t model.NotificationType, title, _ string, _ model.Priority, data map[string]any) (*model.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, notified{UserID: userID, Type: t, Title: title, Data: data})
	return &model.Notification{ID: uuid.New(), UserID: userID, Type: t, Title: title, Data: datatypes.JSONMap(data)}, nil
}

func (n *recordingNotifier) Types() []model.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.NotificationType, 0, len(n.got))
	for _, g := range n.got {
		out = append(out, g.Type)
	}
	return out
}

// fixedClock returns a clock stuck at t that tests can advance
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// seedStudent stores a verified, active student with a profile
func seedStudent(db *inmem.DB, email string) *model.User {
	now := baseTime
	user := &model.User{
		Email:           email,
		Username:        model.UsernameFromEmail(email),
		FirstName:       "Sita",
		LastName:        "Thapa",
		Password:        "$2a$10$unused",
		Role:            model.RoleStudent,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}
	if err := inmem.NewUserRepository(db).CreateWithProfile(user, &model.StudentProfile{}); err != nil {
		panic(err)
	}
	return user
}

// seedQuestions creates a subject with one topic holding n four-option MCQs.
// Option index 1 (B) is correct on every question.
func seedQuestions(db *inmem.DB, subjectName string, n int) (*model.Subject, *model.Topic, []model.Question) {
	repo := inmem.NewQuestionRepository(db)
	subject := &model.Subject{Name: subjectName, IsActive: true}
	if err := repo.CreateSubject(subject); err != nil {
		panic(err)
	}
	topic := &model.Topic{SubjectID: subject.ID, Name: subjectName + " basics", Difficulty: model.DifficultyMedium, IsActive: true}
	if err := repo.CreateTopic(topic); err != nil {
		panic(err)
	}
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		q := &model.Question{
			TopicID:      topic.ID,
			QuestionText: subjectName + " question " + string(rune('A'+i)),
			QuestionType: model.QuestionTypeMCQ,
			Difficulty:   model.DifficultyMedium,
			Marks:        1,
			IsActive:     true,
		}
		for j := 0; j < 4; j++ {
			q.Options = append(q.Options, model.QuestionOption{
				OptionText: "option " + string(rune('A'+j)),
				IsCorrect:  j == 1,
				Order:      j + 1,
			})
		}
		if err := repo.CreateQuestion(q); err != nil {
			panic(err)
		}
		questions = append(questions, *q)
	}
	return subject, topic, questions
}

// seedMockTest places the questions in a new active test in slice order
func seedMockTest(db *inmem.DB, name string, free bool, questions []model.Question) *model.MockTest {
	repo := inmem.NewMockTestRepository(db)
	test := &model.MockTest{
		Name:            name,
		TestType:        model.TestTypeIOE,
		DurationMinutes: 120,
		TotalQuestions:  len(questions),
		PassingScore:    40,
		IsFree:          free,
		IsActive:        true,
	}
	if !free {
		test.Price = 500
	}
	if err := repo.Create(test); err != nil {
		panic(err)
	}
	for i, q := range questions {
		err := repo.AddQuestion(&model.MockTestQuestion{MockTestID: test.ID, QuestionID: q.ID, Order: i + 1, Marks: q.Marks})
		if err != nil {
			panic(err)
		}
	}
	return test
}

func seedPlan(db *inmem.DB, name string, price float64, resources bool) *model.SubscriptionPlan {
	plan := &model.SubscriptionPlan{
		Name:              name,
		PlanType:          model.PlanPremium,
		Duration:          model.DurationMonthly,
		Price:             price,
		AccessToResources: resources,
		IsActive:          true,
	}
	if err := inmem.NewSubscriptionRepository(db).CreatePlan(plan); err != nil {
		panic(err)
	}
	return plan
}

func ptr[T any](v T) *T {
	return &v
}
