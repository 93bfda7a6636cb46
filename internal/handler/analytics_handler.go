package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/service"
)

// AnalyticsHandler serves dashboards and the leaderboard
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// StudentAnalytics godoc
// @Summary Student dashboard analytics
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.StudentAnalytics
// @Router /analytics/student [get]
func (h *AnalyticsHandler) StudentAnalytics(c *gin.Context) {
	resp, err := h.analyticsService.Student(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdminAnalytics godoc
// @Summary Platform-wide analytics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AdminAnalytics
// @Failure 403 {object} model.ErrorResponse
// @Router /analytics/admin [get]
func (h *AnalyticsHandler) AdminAnalytics(c *gin.Context) {
	resp, err := h.analyticsService.Admin()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Leaderboard godoc
// @Summary Top students by average score
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param timeframe query string false "Timeframe" Enums(all, week, month)
// @Success 200 {object} model.Leaderboard
// @Router /analytics/leaderboard [get]
func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	resp, err := h.analyticsService.Leaderboard(c.DefaultQuery("timeframe", "all"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubjectAnalytics godoc
// @Summary The caller's performance in one subject
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} model.SubjectAnalytics
// @Failure 404 {object} model.ErrorResponse
// @Router /analytics/subjects/{id} [get]
func (h *AnalyticsHandler) SubjectAnalytics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.analyticsService.Subject(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
