package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/relay"
	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationEventService
	hub                 *relay.Hub
	validator           *validator.Validator
}

func NewNotificationHandler(
	notificationService services.NotificationEventService,
	hub *relay.Hub,
	validator *validator.Validator,
	logger utils.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
		hub:                 hub,
		validator:           validator,
	}
}

// Connect upgrades the request to a websocket and attaches the client to the
// relay. One connection per user; a reconnect replaces the previous one.
// @Summary Connect notification relay
// @Tags notifications
// @Router /ws [get]
func (h *NotificationHandler) Connect(c *gin.Context) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Websocket connect", "user_id", user.ID, "role", user.Role)

	relay.ServeWS(h.hub, c.Writer, c.Request, user.ID, user.Role)
}

// SendAnnouncement publishes a manual announcement
// @Summary Send announcement
// @Tags notifications
// @Accept json
// @Produce json
// @Param announcement body services.AnnouncementRequest true "Announcement"
// @Success 202 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /notifications/announcements [post]
func (h *NotificationHandler) SendAnnouncement(c *gin.Context) {
	var req services.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	senderID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := h.notificationService.SendAnnouncement(c.Request.Context(), &req, senderID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{Data: gin.H{"status": "sent"}})
}

// GetOnlineUsers reports the user IDs currently attached to this instance
// @Summary List online users
// @Tags notifications
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /notifications/online [get]
func (h *NotificationHandler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
		"online": h.hub.OnlineUsers(),
	}})
}
