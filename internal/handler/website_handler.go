package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	homeAnnouncements = 5
	homeColleges      = 10
	dashboardTests    = 5
	dashboardAttempts = 5
)

// ContactMailer delivers contact form messages to the site inbox
type ContactMailer interface {
	SendNotification(toEmail, name, title, message string) error
}

// WebsiteHandler renders the public HTML pages
type WebsiteHandler struct {
	authService         *service.AuthService
	subscriptionService *service.SubscriptionService
	mockTestService     *service.MockTestService
	attemptService      *service.AttemptService
	notificationService *service.NotificationService
	questionService     *service.QuestionService
	collegeService      *service.CollegeService
	mailer              ContactMailer
	inbox               string
}

func NewWebsiteHandler(
	authService *service.AuthService,
	subscriptionService *service.SubscriptionService,
	mockTestService *service.MockTestService,
	attemptService *service.AttemptService,
	notificationService *service.NotificationService,
	questionService *service.QuestionService,
	collegeService *service.CollegeService,
	mailer ContactMailer,
	inbox string,
) *WebsiteHandler {
	return &WebsiteHandler{
		authService:         authService,
		subscriptionService: subscriptionService,
		mockTestService:     mockTestService,
		attemptService:      attemptService,
		notificationService: notificationService,
		questionService:     questionService,
		collegeService:      collegeService,
		mailer:              mailer,
		inbox:               inbox,
	}
}

type contactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// visitor returns the signed-in user's id when OptionalAuth accepted a token
func visitor(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func (h *WebsiteHandler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	_, data["SignedIn"] = visitor(c)
	c.HTML(status, page, data)
}

func (h *WebsiteHandler) serverError(c *gin.Context, page string, err error) {
	log.Error().Err(err).Str("page", page).Msg("❌ Failed to load page")
	c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

func (h *WebsiteHandler) announcements(limit int) ([]model.Announcement, error) {
	items, err := h.notificationService.ListAnnouncements(true)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (h *WebsiteHandler) Index(c *gin.Context) {
	items, err := h.announcements(homeAnnouncements)
	if err != nil {
		h.serverError(c, "index", err)
		return
	}
	h.render(c, http.StatusOK, "index", gin.H{"Announcements": items})
}

func (h *WebsiteHandler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about", gin.H{"Title": "About"})
}

func (h *WebsiteHandler) Features(c *gin.Context) {
	h.render(c, http.StatusOK, "features", gin.H{"Title": "Features"})
}

func (h *WebsiteHandler) Contact(c *gin.Context) {
	h.render(c, http.StatusOK, "contact", gin.H{"Title": "Contact"})
}

func (h *WebsiteHandler) Pricing(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans(true)
	if err != nil {
		h.serverError(c, "pricing", err)
		return
	}
	h.render(c, http.StatusOK, "pricing", gin.H{
		"Title": "Pricing",
		"Plans": plans,
		"Error": c.Query("error"),
	})
}

func (h *WebsiteHandler) Resources(c *gin.Context) {
	subjects, err := h.questionService.ListSubjects()
	if err != nil {
		h.serverError(c, "resources", err)
		return
	}
	colleges, err := h.collegeService.ListColleges(model.CollegeFilter{
		PageQuery: model.PageQuery{Page: 1, PageSize: homeColleges},
	})
	if err != nil {
		h.serverError(c, "resources", err)
		return
	}
	h.render(c, http.StatusOK, "resources", gin.H{
		"Title":    "Resources",
		"Subjects": subjects,
		"Colleges": colleges.Results,
	})
}

func (h *WebsiteHandler) News(c *gin.Context) {
	items, err := h.announcements(0)
	if err != nil {
		h.serverError(c, "news", err)
		return
	}
	h.render(c, http.StatusOK, "news", gin.H{"Title": "News", "Announcements": items})
}

// Dashboard shows the signed-in student's subscription, tests and recent attempts
func (h *WebsiteHandler) Dashboard(c *gin.Context) {
	userID, ok := visitor(c)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	user, err := h.authService.GetProfile(userID)
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	sub, err := h.subscriptionService.ActiveSubscription(userID)
	if err != nil {
		h.serverError(c, "dashboard", err)
		return
	}
	tests, err := h.mockTestService.List(model.MockTestFilter{})
	if err != nil {
		h.serverError(c, "dashboard", err)
		return
	}
	if len(tests) > dashboardTests {
		tests = tests[:dashboardTests]
	}
	attempts, err := h.attemptService.List(userID)
	if err != nil {
		h.serverError(c, "dashboard", err)
		return
	}
	if len(attempts) > dashboardAttempts {
		attempts = attempts[:dashboardAttempts]
	}

	var flash string
	if c.Query("unlocked") == "1" {
		flash = "Your subscription is active. Premium mock tests are unlocked."
	}
	h.render(c, http.StatusOK, "dashboard", gin.H{
		"Title":        "Dashboard",
		"User":         user,
		"Subscription": sub,
		"Tests":        tests,
		"Attempts":     attempts,
		"Flash":        flash,
	})
}

// MockTest renders a test's landing page, or the locked page when the
// visitor may not sit it
func (h *WebsiteHandler) MockTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "Mock test not found")
		return
	}
	test, err := h.mockTestService.Get(id, false)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			c.String(http.StatusNotFound, "Mock test not found")
			return
		}
		h.serverError(c, "mock_test", err)
		return
	}

	allowed := test.IsFree
	if userID, ok := visitor(c); ok {
		if allowed, err = h.attemptService.CanTake(userID, test); err != nil {
			h.serverError(c, "mock_test", err)
			return
		}
	}
	page := "mock_test"
	if !allowed {
		page = "mock_test_locked"
	}
	h.render(c, http.StatusOK, page, gin.H{"Title": test.Name, "Test": test})
}

// SubmitContact godoc
// @Summary Send a message through the website contact form
// @Tags Website
// @Accept json
// @Produce json
// @Param body body model.ContactRequest true "Message"
// @Success 200 {object} contactResponse
// @Failure 400 {object} contactResponse
// @Router /contact [post]
func (h *WebsiteHandler) SubmitContact(c *gin.Context) {
	var req model.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, contactResponse{Message: contactError(err)})
		return
	}

	log.Info().Str("from", req.Email).Str("subject", req.Subject).Msg("📨 Contact form submitted")
	if h.mailer != nil && h.inbox != "" {
		go func() {
			title := fmt.Sprintf("Contact: %s", req.Subject)
			body := fmt.Sprintf("%s <%s> wrote:\n\n%s", req.Name, req.Email, req.Message)
			if err := h.mailer.SendNotification(h.inbox, "Support", title, body); err != nil {
				log.Error().Err(err).Str("from", req.Email).Msg("❌ Failed to forward contact message")
			}
		}()
	}

	c.JSON(http.StatusOK, contactResponse{
		Success: true,
		Message: "Thank you for your message. We will get back to you soon!",
	})
}

func contactError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid JSON data"
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "All fields are required"
		}
	}
	return "Please check the " + verrs[0].Field() + " field"
}

// PayToUnlock handles the pricing page form and redirects back into the site
func (h *WebsiteHandler) PayToUnlock(c *gin.Context) {
	userID, ok := visitor(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	var req model.PayToUnlockRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, "/pricing?error=Invalid+payment+method")
		return
	}
	if _, err := h.subscriptionService.PayToUnlock(userID, req.PaymentMethod); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("⚠️ Pay to unlock failed")
		c.Redirect(http.StatusSeeOther, "/pricing?error=Could+not+unlock+mock+tests")
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard?unlocked=1")
}
