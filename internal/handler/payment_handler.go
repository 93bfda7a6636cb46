package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
)

// PaymentHandler serves subscription plans, subscriptions, transactions,
// refunds and gateways
type PaymentHandler struct {
	subscriptionService *service.SubscriptionService
	paymentService      *service.PaymentService
}

func NewPaymentHandler(subscriptionService *service.SubscriptionService, paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		subscriptionService: subscriptionService,
		paymentService:      paymentService,
	}
}

// ========== Plans ==========

// ListPlans godoc
// @Summary List active subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {array} model.SubscriptionPlan
// @Router /subscriptions/plans [get]
func (h *PaymentHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans(true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get a subscription plan
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} model.SubscriptionPlan
// @Failure 404 {object} model.ErrorResponse
// @Router /subscriptions/plans/{id} [get]
func (h *PaymentHandler) GetPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, err := h.subscriptionService.GetPlan(id, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlan godoc
// @Summary Create a subscription plan
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.PlanRequest true "Plan"
// @Success 201 {object} model.SubscriptionPlan
// @Router /admin/subscriptions/plans [post]
func (h *PaymentHandler) CreatePlan(c *gin.Context) {
	var req model.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	plan, err := h.subscriptionService.CreatePlan(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlan godoc
// @Summary Update a subscription plan
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param body body model.PlanRequest true "Plan"
// @Success 200 {object} model.SubscriptionPlan
// @Router /admin/subscriptions/plans/{id} [put]
func (h *PaymentHandler) UpdatePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	plan, err := h.subscriptionService.UpdatePlan(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ========== Subscriptions ==========

// Subscribe godoc
// @Summary Subscribe to a plan (simulated payment)
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.SubscribeRequest true "Subscribe request"
// @Success 201 {object} model.SubscriptionResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /subscriptions/subscribe [post]
func (h *PaymentHandler) Subscribe(c *gin.Context) {
	var req model.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.subscriptionService.Subscribe(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PayToUnlock godoc
// @Summary Unlock premium content for 30 days (simulated payment)
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.PayToUnlockRequest false "Payment method"
// @Success 201 {object} model.SubscriptionResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /subscriptions/pay-to-unlock [post]
func (h *PaymentHandler) PayToUnlock(c *gin.Context) {
	var req model.PayToUnlockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	resp, err := h.subscriptionService.PayToUnlock(currentUserID(c), req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MySubscription godoc
// @Summary Get the caller's current subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SubscriptionResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /subscriptions/me [get]
func (h *PaymentHandler) MySubscription(c *gin.Context) {
	resp, err := h.subscriptionService.GetMySubscription(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubscriptionHistory godoc
// @Summary List the caller's subscriptions
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserSubscription
// @Router /subscriptions [get]
func (h *PaymentHandler) SubscriptionHistory(c *gin.Context) {
	subs, err := h.subscriptionService.ListHistory(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// CancelSubscription godoc
// @Summary Cancel a subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} model.UserSubscription
// @Failure 400 {object} model.ErrorResponse
// @Router /subscriptions/{id}/cancel [post]
func (h *PaymentHandler) CancelSubscription(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Cancel(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ========== Transactions ==========

// CreateTransaction godoc
// @Summary Create a pending payment transaction
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateTransactionRequest true "Transaction"
// @Success 201 {object} model.PaymentTransaction
// @Router /payments/transactions [post]
func (h *PaymentHandler) CreateTransaction(c *gin.Context) {
	var req model.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	txn, err := h.paymentService.CreateTransaction(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// ListTransactions godoc
// @Summary List the caller's transactions
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PaymentTransaction
// @Router /payments/transactions [get]
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	txns, err := h.paymentService.ListTransactions(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// GetTransaction godoc
// @Summary Get one of the caller's transactions
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} model.PaymentTransaction
// @Failure 404 {object} model.ErrorResponse
// @Router /payments/transactions/{id} [get]
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	txn, err := h.paymentService.GetTransaction(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// AdminListTransactions godoc
// @Summary List all transactions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, completed, failed, cancelled, refunded)
// @Success 200 {array} model.PaymentTransaction
// @Router /admin/payments/transactions [get]
func (h *PaymentHandler) AdminListTransactions(c *gin.Context) {
	txns, err := h.paymentService.ListAllTransactions(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// UpdateTransactionStatus godoc
// @Summary Advance a transaction's status
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param body body model.TransactionStatusRequest true "New status"
// @Success 200 {object} model.PaymentTransaction
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/payments/transactions/{id}/status [patch]
func (h *PaymentHandler) UpdateTransactionStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.TransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	txn, err := h.paymentService.UpdateTransactionStatus(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// ========== Refunds ==========

// RequestRefund godoc
// @Summary Request a refund for a completed transaction
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RefundRequest true "Refund"
// @Success 201 {object} model.Refund
// @Failure 400 {object} model.ErrorResponse
// @Router /payments/refunds [post]
func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	var req model.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	refund, err := h.paymentService.RequestRefund(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

// ListRefunds godoc
// @Summary List the caller's refunds
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Refund
// @Router /payments/refunds [get]
func (h *PaymentHandler) ListRefunds(c *gin.Context) {
	refunds, err := h.paymentService.ListRefunds(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refunds)
}

// AdminListRefunds godoc
// @Summary List all refunds
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, approved, rejected, processed)
// @Success 200 {array} model.Refund
// @Router /admin/payments/refunds [get]
func (h *PaymentHandler) AdminListRefunds(c *gin.Context) {
	refunds, err := h.paymentService.ListAllRefunds(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refunds)
}

// ReviewRefund godoc
// @Summary Approve, reject or process a refund
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Refund ID"
// @Param body body model.RefundReviewRequest true "New status"
// @Success 200 {object} model.Refund
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/payments/refunds/{id} [patch]
func (h *PaymentHandler) ReviewRefund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.RefundReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	refund, err := h.paymentService.ReviewRefund(currentUserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

// ListGateways godoc
// @Summary List active payment gateways
// @Tags Payments
// @Produce json
// @Success 200 {array} model.PaymentGateway
// @Router /payments/gateways [get]
func (h *PaymentHandler) ListGateways(c *gin.Context) {
	gateways, err := h.paymentService.ListGateways()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateways)
}
