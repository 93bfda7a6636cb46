package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
)

// MockTestHandler serves mock tests and the attempt lifecycle
type MockTestHandler struct {
	mockTestService *service.MockTestService
	attemptService  *service.AttemptService
}

func NewMockTestHandler(mockTestService *service.MockTestService, attemptService *service.AttemptService) *MockTestHandler {
	return &MockTestHandler{
		mockTestService: mockTestService,
		attemptService:  attemptService,
	}
}

// ========== Mock tests ==========

// ListMockTests godoc
// @Summary List active mock tests
// @Tags Mock Tests
// @Produce json
// @Param test_type query string false "Test type" Enums(IOE, KU, PU, PoU, custom)
// @Param is_free query bool false "Free tests only"
// @Param search query string false "Name contains"
// @Success 200 {array} model.MockTest
// @Router /mock-tests [get]
func (h *MockTestHandler) ListMockTests(c *gin.Context) {
	var f model.MockTestFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	tests, err := h.mockTestService.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

// GetMockTest godoc
// @Summary Get a mock test
// @Tags Mock Tests
// @Produce json
// @Param id path string true "Mock test ID"
// @Success 200 {object} model.MockTest
// @Failure 404 {object} model.ErrorResponse
// @Router /mock-tests/{id} [get]
func (h *MockTestHandler) GetMockTest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	test, err := h.mockTestService.Get(id, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// TestQuestions godoc
// @Summary Get the questions of a mock test without answers
// @Description Paid tests require an active subscription
// @Tags Mock Tests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Success 200 {array} model.PublicQuestion
// @Failure 403 {object} model.ErrorResponse
// @Router /mock-tests/{id}/questions [get]
func (h *MockTestHandler) TestQuestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	questions, err := h.attemptService.TestQuestions(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// CreateMockTest godoc
// @Summary Create a mock test
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.MockTestRequest true "Mock test"
// @Success 201 {object} model.MockTest
// @Router /admin/mock-tests [post]
func (h *MockTestHandler) CreateMockTest(c *gin.Context) {
	var req model.MockTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	test, err := h.mockTestService.Create(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

// UpdateMockTest godoc
// @Summary Update a mock test
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Param body body model.MockTestRequest true "Mock test"
// @Success 200 {object} model.MockTest
// @Router /admin/mock-tests/{id} [put]
func (h *MockTestHandler) UpdateMockTest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.MockTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	test, err := h.mockTestService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// DeleteMockTest godoc
// @Summary Delete a mock test
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Success 204
// @Router /admin/mock-tests/{id} [delete]
func (h *MockTestHandler) DeleteMockTest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.mockTestService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdminTestQuestions godoc
// @Summary List the questions of a mock test with answers
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Success 200 {array} model.MockTestQuestion
// @Router /admin/mock-tests/{id}/questions [get]
func (h *MockTestHandler) AdminTestQuestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.mockTestService.Questions(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddQuestion godoc
// @Summary Add a question to a mock test
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Param body body model.AddTestQuestionRequest true "Question"
// @Success 201 {object} model.MockTestQuestion
// @Failure 409 {object} model.ErrorResponse
// @Router /admin/mock-tests/{id}/questions [post]
func (h *MockTestHandler) AddQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.AddTestQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.mockTestService.AddQuestion(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// RemoveQuestion godoc
// @Summary Remove a question from a mock test
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Param questionId path string true "Question ID"
// @Success 204
// @Router /admin/mock-tests/{id}/questions/{questionId} [delete]
func (h *MockTestHandler) RemoveQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	if err := h.mockTestService.RemoveQuestion(id, questionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Attempts ==========

// StartAttempt godoc
// @Summary Start a mock test attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Success 201 {object} model.StartAttemptResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse "An attempt is already in progress; body carries attempt_id"
// @Router /mock-tests/{id}/start [post]
func (h *MockTestHandler) StartAttempt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.attemptService.Start(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListAttempts godoc
// @Summary List the caller's attempts
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.MockTestAttempt
// @Router /attempts [get]
func (h *MockTestHandler) ListAttempts(c *gin.Context) {
	attempts, err := h.attemptService.List(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// GetAttempt godoc
// @Summary Get an attempt with its answers
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} model.MockTestAttempt
// @Failure 404 {object} model.ErrorResponse
// @Router /attempts/{id} [get]
func (h *MockTestHandler) GetAttempt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attempt, err := h.attemptService.Get(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// SubmitAnswer godoc
// @Summary Record or replace the answer to one question
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Param body body model.AnswerRequest true "Answer"
// @Success 200 {object} model.QuestionAttempt
// @Failure 400 {object} model.ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *MockTestHandler) SubmitAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	answer, err := h.attemptService.Answer(currentUserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// SubmitAttempt godoc
// @Summary Submit an attempt for scoring
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} model.SubmitAttemptResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *MockTestHandler) SubmitAttempt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.attemptService.Submit(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AbandonAttempt godoc
// @Summary Abandon an in-progress attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} model.MockTestAttempt
// @Failure 400 {object} model.ErrorResponse
// @Router /attempts/{id}/abandon [post]
func (h *MockTestHandler) AbandonAttempt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attempt, err := h.attemptService.Abandon(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}
