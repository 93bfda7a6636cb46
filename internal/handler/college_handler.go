package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
)

// CollegeHandler serves colleges, engineering programs and entrance exams
type CollegeHandler struct {
	collegeService *service.CollegeService
}

func NewCollegeHandler(collegeService *service.CollegeService) *CollegeHandler {
	return &CollegeHandler{collegeService: collegeService}
}

// ListColleges godoc
// @Summary List colleges
// @Tags Colleges
// @Produce json
// @Param university query string false "University code" Enums(TU, PU, KU, PoU, MU, FU, LU)
// @Param location query string false "Location contains"
// @Param search query string false "Name or code contains"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} model.PageResponse[model.College]
// @Router /colleges [get]
func (h *CollegeHandler) ListColleges(c *gin.Context) {
	var f model.CollegeFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.collegeService.ListColleges(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetCollege godoc
// @Summary Get a college with its programs
// @Tags Colleges
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} model.College
// @Failure 404 {object} model.ErrorResponse
// @Router /colleges/{id} [get]
func (h *CollegeHandler) GetCollege(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	college, err := h.collegeService.GetCollege(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, college)
}

// CreateCollege godoc
// @Summary Create a college
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CollegeRequest true "College"
// @Success 201 {object} model.College
// @Failure 409 {object} model.ErrorResponse
// @Router /admin/colleges [post]
func (h *CollegeHandler) CreateCollege(c *gin.Context) {
	var req model.CollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	college, err := h.collegeService.CreateCollege(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, college)
}

// UpdateCollege godoc
// @Summary Update a college
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "College ID"
// @Param body body model.CollegeRequest true "College"
// @Success 200 {object} model.College
// @Router /admin/colleges/{id} [put]
func (h *CollegeHandler) UpdateCollege(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.CollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	college, err := h.collegeService.UpdateCollege(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, college)
}

// DeleteCollege godoc
// @Summary Delete a college
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "College ID"
// @Success 204
// @Router /admin/colleges/{id} [delete]
func (h *CollegeHandler) DeleteCollege(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collegeService.DeleteCollege(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPrograms godoc
// @Summary List engineering programs
// @Tags Colleges
// @Produce json
// @Param college_id query string false "College ID"
// @Param program_type query string false "Program type" Enums(BE, BArch, BTech)
// @Success 200 {array} model.EngineeringProgram
// @Router /programs [get]
func (h *CollegeHandler) ListPrograms(c *gin.Context) {
	var f model.ProgramFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	collegeID, ok := queryID(c, "college_id")
	if !ok {
		return
	}
	f.CollegeID = collegeID

	programs, err := h.collegeService.ListPrograms(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, programs)
}

// GetProgram godoc
// @Summary Get an engineering program
// @Tags Colleges
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} model.EngineeringProgram
// @Failure 404 {object} model.ErrorResponse
// @Router /programs/{id} [get]
func (h *CollegeHandler) GetProgram(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	program, err := h.collegeService.GetProgram(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// CreateProgram godoc
// @Summary Create an engineering program
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ProgramRequest true "Program"
// @Success 201 {object} model.EngineeringProgram
// @Router /admin/programs [post]
func (h *CollegeHandler) CreateProgram(c *gin.Context) {
	var req model.ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	program, err := h.collegeService.CreateProgram(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

// UpdateProgram godoc
// @Summary Update an engineering program
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param body body model.ProgramRequest true "Program"
// @Success 200 {object} model.EngineeringProgram
// @Router /admin/programs/{id} [put]
func (h *CollegeHandler) UpdateProgram(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	program, err := h.collegeService.UpdateProgram(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// DeleteProgram godoc
// @Summary Delete an engineering program
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 204
// @Router /admin/programs/{id} [delete]
func (h *CollegeHandler) DeleteProgram(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collegeService.DeleteProgram(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListExams godoc
// @Summary List entrance exams
// @Tags Colleges
// @Produce json
// @Param exam_type query string false "Exam type" Enums(IOE, KU, PU, PoU)
// @Param upcoming query bool false "Only exams dated in the future"
// @Success 200 {array} model.EntranceExam
// @Router /exams [get]
func (h *CollegeHandler) ListExams(c *gin.Context) {
	var f model.ExamFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	exams, err := h.collegeService.ListExams(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary Get an entrance exam
// @Tags Colleges
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} model.EntranceExam
// @Failure 404 {object} model.ErrorResponse
// @Router /exams/{id} [get]
func (h *CollegeHandler) GetExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	exam, err := h.collegeService.GetExam(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// CreateExam godoc
// @Summary Create an entrance exam
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ExamRequest true "Exam"
// @Success 201 {object} model.EntranceExam
// @Router /admin/exams [post]
func (h *CollegeHandler) CreateExam(c *gin.Context) {
	var req model.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	exam, err := h.collegeService.CreateExam(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// UpdateExam godoc
// @Summary Update an entrance exam
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exam ID"
// @Param body body model.ExamRequest true "Exam"
// @Success 200 {object} model.EntranceExam
// @Router /admin/exams/{id} [put]
func (h *CollegeHandler) UpdateExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	exam, err := h.collegeService.UpdateExam(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// DeleteExam godoc
// @Summary Delete an entrance exam
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Exam ID"
// @Success 204
// @Router /admin/exams/{id} [delete]
func (h *CollegeHandler) DeleteExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collegeService.DeleteExam(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
