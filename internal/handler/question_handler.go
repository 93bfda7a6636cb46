package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
)

// QuestionHandler serves subjects, topics, the question bank, practice and bookmarks
type QuestionHandler struct {
	questionService *service.QuestionService
}

func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ========== Subjects ==========

// ListSubjects godoc
// @Summary List subjects
// @Tags Questions
// @Produce json
// @Success 200 {array} model.Subject
// @Router /subjects [get]
func (h *QuestionHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.questionService.ListSubjects()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

// GetSubject godoc
// @Summary Get a subject with its topics
// @Tags Questions
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} model.Subject
// @Failure 404 {object} model.ErrorResponse
// @Router /subjects/{id} [get]
func (h *QuestionHandler) GetSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	subject, err := h.questionService.GetSubject(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.SubjectRequest true "Subject"
// @Success 201 {object} model.Subject
// @Failure 409 {object} model.ErrorResponse
// @Router /admin/subjects [post]
func (h *QuestionHandler) CreateSubject(c *gin.Context) {
	var req model.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subject, err := h.questionService.CreateSubject(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

// UpdateSubject godoc
// @Summary Update a subject
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Param body body model.SubjectRequest true "Subject"
// @Success 200 {object} model.Subject
// @Router /admin/subjects/{id} [put]
func (h *QuestionHandler) UpdateSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subject, err := h.questionService.UpdateSubject(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

// DeleteSubject godoc
// @Summary Delete a subject
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 204
// @Router /admin/subjects/{id} [delete]
func (h *QuestionHandler) DeleteSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.questionService.DeleteSubject(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Topics ==========

// ListTopics godoc
// @Summary List topics
// @Tags Questions
// @Produce json
// @Param subject_id query string false "Subject ID"
// @Success 200 {array} model.Topic
// @Router /topics [get]
func (h *QuestionHandler) ListTopics(c *gin.Context) {
	subjectID, ok := queryID(c, "subject_id")
	if !ok {
		return
	}
	topics, err := h.questionService.ListTopics(subjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topics)
}

// GetTopic godoc
// @Summary Get a topic
// @Tags Questions
// @Produce json
// @Param id path string true "Topic ID"
// @Success 200 {object} model.Topic
// @Failure 404 {object} model.ErrorResponse
// @Router /topics/{id} [get]
func (h *QuestionHandler) GetTopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	topic, err := h.questionService.GetTopic(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

// CreateTopic godoc
// @Summary Create a topic
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.TopicRequest true "Topic"
// @Success 201 {object} model.Topic
// @Router /admin/topics [post]
func (h *QuestionHandler) CreateTopic(c *gin.Context) {
	var req model.TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	topic, err := h.questionService.CreateTopic(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

// UpdateTopic godoc
// @Summary Update a topic
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Topic ID"
// @Param body body model.TopicRequest true "Topic"
// @Success 200 {object} model.Topic
// @Router /admin/topics/{id} [put]
func (h *QuestionHandler) UpdateTopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	topic, err := h.questionService.UpdateTopic(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

// DeleteTopic godoc
// @Summary Delete a topic
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Topic ID"
// @Success 204
// @Router /admin/topics/{id} [delete]
func (h *QuestionHandler) DeleteTopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.questionService.DeleteTopic(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Questions ==========

// ListQuestions godoc
// @Summary List questions
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param subject_id query string false "Subject ID"
// @Param topic_id query string false "Topic ID"
// @Param difficulty query string false "Difficulty" Enums(easy, medium, hard)
// @Param type query string false "Question type" Enums(mcq, true_false, numerical)
// @Param search query string false "Text contains"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} model.PageResponse[model.Question]
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var f model.QuestionFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	var ok bool
	if f.SubjectID, ok = queryID(c, "subject_id"); !ok {
		return
	}
	if f.TopicID, ok = queryID(c, "topic_id"); !ok {
		return
	}

	page, err := h.questionService.ListQuestions(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetQuestion godoc
// @Summary Get a question with its options
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} model.Question
// @Failure 404 {object} model.ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	question, err := h.questionService.GetQuestion(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// CreateQuestion godoc
// @Summary Create a question with its options
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.QuestionRequest true "Question"
// @Success 201 {object} model.Question
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	question, err := h.questionService.CreateQuestion(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion godoc
// @Summary Update a question; options are replaced when given
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param body body model.QuestionRequest true "Question"
// @Success 200 {object} model.Question
// @Router /admin/questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	question, err := h.questionService.UpdateQuestion(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 204
// @Router /admin/questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.questionService.DeleteQuestion(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportQuestions godoc
// @Summary Import MCQs from numbered plain text
// @Description Blocks look like "1. text", "A) option" ... "D) option", "Answer: B"
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ImportQuestionsRequest true "Import request"
// @Success 200 {object} model.ImportQuestionsResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	var req model.ImportQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.questionService.ImportMCQs(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ========== Practice & bookmarks ==========

// Practice godoc
// @Summary Get a random practice set from a subject
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param subject_id query string true "Subject ID"
// @Success 200 {array} model.PublicQuestion
// @Failure 404 {object} model.ErrorResponse
// @Router /questions/practice [get]
func (h *QuestionHandler) Practice(c *gin.Context) {
	subjectID, ok := queryID(c, "subject_id")
	if !ok {
		return
	}
	if subjectID == nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "subject_id is required"})
		return
	}
	questions, err := h.questionService.Practice(*subjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// ToggleBookmark godoc
// @Summary Bookmark a question, or remove the bookmark if it exists
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param body body model.BookmarkRequest false "Notes"
// @Success 201 {object} model.BookmarkToggleResponse "Bookmarked"
// @Success 200 {object} model.BookmarkToggleResponse "Bookmark removed"
// @Router /questions/{id}/bookmark [post]
func (h *QuestionHandler) ToggleBookmark(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.BookmarkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	resp, created, err := h.questionService.ToggleBookmark(currentUserID(c), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// ListBookmarks godoc
// @Summary List bookmarked questions
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.BookmarkedQuestion
// @Router /questions/bookmarks [get]
func (h *QuestionHandler) ListBookmarks(c *gin.Context) {
	bookmarks, err := h.questionService.ListBookmarks(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}
