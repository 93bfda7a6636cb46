package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	db       *inmem.DB
	txns     repository.TransactionRepository
	notifier *recordingNotifier
	svc      *PaymentService
	student  *model.User
	admin    uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := inmem.NewDB()
	f := &paymentFixture{
		db:       db,
		txns:     inmem.NewTransactionRepository(db),
		notifier: &recordingNotifier{},
		student:  seedStudent(db, "maya@example.com"),
		admin:    uuid.New(),
	}
	f.svc = NewPaymentService(f.txns, inmem.NewSubscriptionRepository(db), f.notifier)
	f.svc.now = func() time.Time { return baseTime }
	return f
}

func (f *paymentFixture) completedTxn(t *testing.T, amount float64) *model.PaymentTransaction {
	t.Helper()
	txn, err := f.svc.CreateTransaction(f.student.ID, model.CreateTransactionRequest{Amount: amount, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)
	txn, err = f.svc.UpdateTransactionStatus(txn.ID, model.TransactionStatusRequest{Status: model.TransactionCompleted, GatewayTransactionID: "KH-1"})
	require.NoError(t, err)
	return txn
}

func TestTransactionTransitions(t *testing.T) {
	f := newPaymentFixture(t)

	txn, err := f.svc.CreateTransaction(f.student.ID, model.CreateTransactionRequest{Amount: 500, PaymentMethod: model.MethodEsewa})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionPending, txn.Status)
	assert.Equal(t, "NPR", txn.Currency)

	_, err = f.svc.UpdateTransactionStatus(txn.ID, model.TransactionStatusRequest{Status: model.TransactionRefunded})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := f.svc.UpdateTransactionStatus(txn.ID, model.TransactionStatusRequest{Status: model.TransactionFailed})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionFailed, updated.Status)

	_, err = f.svc.UpdateTransactionStatus(txn.ID, model.TransactionStatusRequest{Status: model.TransactionCompleted})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []model.NotificationType{model.NotificationPaymentFailed}, f.notifier.Types())
}

func TestTransactionsAreOwnerScoped(t *testing.T) {
	f := newPaymentFixture(t)
	txn := f.completedTxn(t, 100)

	_, err := f.svc.GetTransaction(uuid.New(), txn.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	got, err := f.svc.GetTransaction(f.student.ID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "KH-1", got.GatewayTransactionID)
}

func TestRequestRefund_Rules(t *testing.T) {
	f := newPaymentFixture(t)

	pending, err := f.svc.CreateTransaction(f.student.ID, model.CreateTransactionRequest{Amount: 500, PaymentMethod: model.MethodKhalti})
	require.NoError(t, err)
	_, err = f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: pending.ID, Amount: 100, Reason: "changed my mind"})
	assert.ErrorIs(t, err, ErrRefundNotAllowed)

	txn := f.completedTxn(t, 500)
	_, err = f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: txn.ID, Amount: 600, Reason: "too much"})
	assert.ErrorIs(t, err, ErrRefundAmount)

	refund, err := f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: txn.ID, Amount: 500, Reason: "duplicate charge"})
	require.NoError(t, err)
	assert.Equal(t, model.RefundPending, refund.Status)

	_, err = f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: txn.ID, Amount: 100, Reason: "again"})
	assert.ErrorIs(t, err, ErrRefundPending)

	_, err = f.svc.RequestRefund(uuid.New(), model.RefundRequest{TransactionID: txn.ID, Amount: 100, Reason: "not mine"})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestReviewRefund_ProcessMarksTransactionRefunded(t *testing.T) {
	f := newPaymentFixture(t)
	txn := f.completedTxn(t, 800)
	refund, err := f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: txn.ID, Amount: 800, Reason: "exam cancelled"})
	require.NoError(t, err)

	_, err = f.svc.ReviewRefund(f.admin, refund.ID, model.RefundReviewRequest{Status: model.RefundProcessed})
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot jump to processed")

	approved, err := f.svc.ReviewRefund(f.admin, refund.ID, model.RefundReviewRequest{Status: model.RefundApproved})
	require.NoError(t, err)
	assert.Nil(t, approved.ProcessedAt)

	processed, err := f.svc.ReviewRefund(f.admin, refund.ID, model.RefundReviewRequest{Status: model.RefundProcessed})
	require.NoError(t, err)
	require.NotNil(t, processed.ProcessedAt)
	require.NotNil(t, processed.ProcessedByID)
	assert.Equal(t, f.admin, *processed.ProcessedByID)

	stored, err := f.txns.FindByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionRefunded, stored.Status)

	_, err = f.svc.ReviewRefund(f.admin, refund.ID, model.RefundReviewRequest{Status: model.RefundRejected})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewRefund_Reject(t *testing.T) {
	f := newPaymentFixture(t)
	txn := f.completedTxn(t, 300)
	refund, err := f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: txn.ID, Amount: 300, Reason: "no reason"})
	require.NoError(t, err)

	rejected, err := f.svc.ReviewRefund(f.admin, refund.ID, model.RefundReviewRequest{Status: model.RefundRejected})
	require.NoError(t, err)
	assert.Equal(t, model.RefundRejected, rejected.Status)

	stored, err := f.txns.FindByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCompleted, stored.Status)

	// a rejected refund no longer blocks a new request
	_, err = f.svc.RequestRefund(f.student.ID, model.RefundRequest{TransactionID: txn.ID, Amount: 100, Reason: "partial"})
	assert.NoError(t, err)
}

func TestListGateways_ActiveOnly(t *testing.T) {
	f := newPaymentFixture(t)
	f.db.AddGateway(model.PaymentGateway{Name: "khalti", DisplayName: "Khalti", IsActive: true})
	f.db.AddGateway(model.PaymentGateway{Name: "phonepe", DisplayName: "PhonePe", IsActive: false})

	gateways, err := f.svc.ListGateways()
	require.NoError(t, err)
	require.Len(t, gateways, 1)
	assert.Equal(t, "khalti", gateways[0].Name)
}
