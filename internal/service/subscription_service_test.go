package service

import (
	"testing"
	"time"

	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriptionFixture struct {
	db       *inmem.DB
	clock    *fixedClock
	notifier *recordingNotifier
	svc      *SubscriptionService
	student  *model.User
}

func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()
	db := inmem.NewDB()
	clock := newClock(baseTime)
	db.SetClock(clock.Now)

	f := &subscriptionFixture{
		db:       db,
		clock:    clock,
		notifier: &recordingNotifier{},
		student:  seedStudent(db, "gita@example.com"),
	}
	f.svc = NewSubscriptionService(inmem.NewSubscriptionRepository(db), f.notifier)
	f.svc.now = clock.Now
	return f
}

func TestSubscribe_ActivatesPlanWithCompletedTransaction(t *testing.T) {
	f := newSubscriptionFixture(t)
	plan := seedPlan(f.db, "Premium", 999, true)

	resp, err := f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: plan.ID, PaymentMethod: model.MethodEsewa})
	require.NoError(t, err)
	assert.True(t, resp.IsActive)
	assert.Equal(t, 30, resp.DaysLeft)
	assert.Equal(t, model.SubscriptionActive, resp.Subscription.Status)
	assert.Equal(t, baseTime.AddDate(0, 0, 30), resp.Subscription.EndDate)

	txns, err := inmem.NewTransactionRepository(f.db).ListByUser(f.student.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TransactionCompleted, txns[0].Status)
	assert.Equal(t, 999.0, txns[0].Amount)
	assert.Regexp(t, `^TXN-[0-9A-F]{12}$`, txns[0].TransactionID)
	require.NotNil(t, txns[0].SubscriptionID)
	assert.Equal(t, resp.Subscription.ID, *txns[0].SubscriptionID)

	assert.Equal(t, []model.NotificationType{model.NotificationPaymentSuccess}, f.notifier.Types())
}

func TestSubscribe_SecondActiveSubscriptionRejected(t *testing.T) {
	f := newSubscriptionFixture(t)
	plan := seedPlan(f.db, "Premium", 999, true)

	_, err := f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: plan.ID, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)

	_, err = f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: plan.ID, PaymentMethod: model.MethodKhalti})
	assert.ErrorIs(t, err, ErrActiveSubscription)

	_, err = f.svc.PayToUnlock(f.student.ID, "")
	assert.ErrorIs(t, err, ErrActiveSubscription)
}

func TestSubscription_LapsedIsInactiveAndExpired(t *testing.T) {
	f := newSubscriptionFixture(t)
	plan := seedPlan(f.db, "Basic", 299, false)
	sub := f.db.PutSubscription(model.UserSubscription{
		UserID:    f.student.ID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionActive,
		StartDate: baseTime.AddDate(0, 0, -40),
		EndDate:   baseTime.AddDate(0, 0, -10),
	})

	active, err := f.svc.HasActiveSubscription(f.student.ID)
	require.NoError(t, err)
	assert.False(t, active)

	stored, err := inmem.NewSubscriptionRepository(f.db).FindByID(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionExpired, stored.Status)

	_, err = f.svc.GetMySubscription(f.student.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	// a lapsed subscription does not block a new one
	_, err = f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: plan.ID, PaymentMethod: model.MethodKhalti})
	assert.NoError(t, err)
}

func TestSubscription_ExpiresWhenClockPassesEndDate(t *testing.T) {
	f := newSubscriptionFixture(t)
	plan := seedPlan(f.db, "Premium", 999, true)
	_, err := f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: plan.ID, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)

	f.clock.Advance(29 * 24 * time.Hour)
	resp, err := f.svc.GetMySubscription(f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.DaysLeft)

	f.clock.Advance(2 * 24 * time.Hour)
	active, err := f.svc.HasActiveSubscription(f.student.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestPayToUnlock(t *testing.T) {
	f := newSubscriptionFixture(t)

	_, err := f.svc.PayToUnlock(f.student.ID, model.MethodEsewa)
	assert.ErrorIs(t, err, ErrNoActivePlan)

	seedPlan(f.db, "Enterprise", 2999, true)
	cheapest := seedPlan(f.db, "Basic", 299, false)

	resp, err := f.svc.PayToUnlock(f.student.ID, "")
	require.NoError(t, err)
	assert.Equal(t, cheapest.ID, resp.Subscription.PlanID)
	assert.Equal(t, 30, resp.DaysLeft)

	txns, err := inmem.NewTransactionRepository(f.db).ListByUser(f.student.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.MethodKhalti, txns[0].PaymentMethod)
}

func TestCanAccessResources(t *testing.T) {
	f := newSubscriptionFixture(t)
	basic := seedPlan(f.db, "Basic", 299, false)

	ok, err := f.svc.CanAccessResources(f.student.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: basic.ID, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)
	ok, err = f.svc.CanAccessResources(f.student.ID)
	require.NoError(t, err)
	assert.False(t, ok, "basic plan has no resource access")

	other := seedStudent(f.db, "other@example.com")
	premium := seedPlan(f.db, "Premium", 999, true)
	_, err = f.svc.Subscribe(other.ID, model.SubscribeRequest{PlanID: premium.ID, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)
	ok, err = f.svc.CanAccessResources(other.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCancelSubscription(t *testing.T) {
	f := newSubscriptionFixture(t)
	plan := seedPlan(f.db, "Premium", 999, true)
	resp, err := f.svc.Subscribe(f.student.ID, model.SubscribeRequest{PlanID: plan.ID, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)

	intruder := seedStudent(f.db, "intruder@example.com")
	_, err = f.svc.Cancel(intruder.ID, resp.Subscription.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	sub, err := f.svc.Cancel(f.student.ID, resp.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCancelled, sub.Status)

	_, err = f.svc.Cancel(f.student.ID, resp.Subscription.ID)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestCreateAndUpdatePlan(t *testing.T) {
	f := newSubscriptionFixture(t)

	plan, err := f.svc.CreatePlan(model.PlanRequest{
		Name:         "Basic",
		PlanType:     model.PlanBasic,
		Duration:     model.DurationMonthly,
		Price:        499,
		Features:     []string{"5 mock tests"},
		MaxMockTests: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Basic", plan.Name)
	assert.Equal(t, model.PlanBasic, plan.PlanType)
	assert.Equal(t, 499.0, plan.Price)
	assert.Equal(t, 5, plan.MaxMockTests)
	assert.Equal(t, []string{"5 mock tests"}, []string(plan.Features))
	assert.True(t, plan.IsActive, "new plans default to active")

	inactive := false
	_, err = f.svc.UpdatePlan(plan.ID, model.PlanRequest{
		Name:     "Basic",
		PlanType: model.PlanBasic,
		Duration: model.DurationQuarterly,
		Price:    1299,
		IsActive: &inactive,
	})
	require.NoError(t, err)

	stored, err := f.svc.GetPlan(plan.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.DurationQuarterly, stored.Duration)
	assert.Equal(t, 1299.0, stored.Price)
	assert.False(t, stored.IsActive)
	assert.NotNil(t, stored.Features)
	assert.Empty(t, stored.Features)

	_, err = f.svc.GetPlan(plan.ID, false)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	// omitting is_active keeps the current state
	_, err = f.svc.UpdatePlan(plan.ID, model.PlanRequest{Name: "Basic", PlanType: model.PlanBasic, Duration: model.DurationMonthly})
	require.NoError(t, err)
	stored, err = f.svc.GetPlan(plan.ID, true)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}
