package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
)

// NotificationHandler serves notifications, announcements, preferences and achievements
type NotificationHandler struct {
	notificationService *service.NotificationService
	achievementService  *service.AchievementService
}

func NewNotificationHandler(notificationService *service.NotificationService, achievementService *service.AchievementService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		achievementService:  achievementService,
	}
}

// ========== Notifications ==========

// ListNotifications godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	items, err := h.notificationService.List(currentUserID(c), c.Query("unread") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetNotification godoc
// @Summary Get one of the caller's notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} model.Notification
// @Failure 404 {object} model.ErrorResponse
// @Router /notifications/{id} [get]
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.notificationService.Get(currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Notification marked as read"})
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SuccessResponse
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationService.MarkAllRead(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "All notifications marked as read", Data: gin.H{"updated": n}})
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UnreadCountResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notificationService.UnreadCount(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.UnreadCountResponse{Unread: n})
}

// ========== Preferences ==========

// GetPreferences godoc
// @Summary Get notification preferences
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserNotificationPreference
// @Router /notifications/preferences [get]
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	pref, err := h.notificationService.GetPreferences(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences godoc
// @Summary Update notification preferences; omitted flags are unchanged
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.PreferenceRequest true "Preferences"
// @Success 200 {object} model.UserNotificationPreference
// @Router /notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	var req model.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pref, err := h.notificationService.UpdatePreferences(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

// ========== Announcements ==========

// ListAnnouncements godoc
// @Summary List published, unexpired announcements
// @Tags Announcements
// @Produce json
// @Success 200 {array} model.Announcement
// @Router /announcements [get]
func (h *NotificationHandler) ListAnnouncements(c *gin.Context) {
	items, err := h.notificationService.ListAnnouncements(true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetAnnouncement godoc
// @Summary Get a published announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} model.Announcement
// @Failure 404 {object} model.ErrorResponse
// @Router /announcements/{id} [get]
func (h *NotificationHandler) GetAnnouncement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.notificationService.GetAnnouncement(id, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AdminListAnnouncements godoc
// @Summary List all announcements including drafts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Announcement
// @Router /admin/announcements [get]
func (h *NotificationHandler) AdminListAnnouncements(c *gin.Context) {
	items, err := h.notificationService.ListAnnouncements(false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateAnnouncement godoc
// @Summary Create a draft announcement
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.AnnouncementRequest true "Announcement"
// @Success 201 {object} model.Announcement
// @Router /admin/announcements [post]
func (h *NotificationHandler) CreateAnnouncement(c *gin.Context) {
	var req model.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.notificationService.CreateAnnouncement(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAnnouncement godoc
// @Summary Update an announcement
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Param body body model.AnnouncementRequest true "Announcement"
// @Success 200 {object} model.Announcement
// @Router /admin/announcements/{id} [put]
func (h *NotificationHandler) UpdateAnnouncement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.notificationService.UpdateAnnouncement(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// PublishAnnouncement godoc
// @Summary Publish an announcement and notify every active student
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} model.PublishResponse
// @Router /admin/announcements/{id}/publish [post]
func (h *NotificationHandler) PublishAnnouncement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.notificationService.Publish(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ========== Achievements ==========

// ListAchievements godoc
// @Summary List active achievements
// @Tags Achievements
// @Produce json
// @Success 200 {array} model.Achievement
// @Router /achievements [get]
func (h *NotificationHandler) ListAchievements(c *gin.Context) {
	items, err := h.achievementService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetAchievement godoc
// @Summary Get an achievement
// @Tags Achievements
// @Produce json
// @Param id path string true "Achievement ID"
// @Success 200 {object} model.Achievement
// @Failure 404 {object} model.ErrorResponse
// @Router /achievements/{id} [get]
func (h *NotificationHandler) GetAchievement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.achievementService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// MyAchievements godoc
// @Summary List the caller's earned achievements
// @Tags Achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserAchievement
// @Router /achievements/me [get]
func (h *NotificationHandler) MyAchievements(c *gin.Context) {
	items, err := h.achievementService.ListEarned(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
