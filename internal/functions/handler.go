package functions

import (
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bandscope-backend/internal/common/logger"
	"bandscope-backend/internal/platform/authapi"
	"bandscope-backend/internal/platform/resend"
	"bandscope-backend/internal/platform/storage"
)

// Handler exposes the privileged operations that run outside the main API:
// account deletion, storage provisioning and signup notifications. They are
// deployed as their own service because they hold the service-role key.
type Handler struct {
	auth         *authapi.Client
	storage      *storage.Client
	mailer       *resend.Client
	avatarBucket string
	notifyEmail  string
	fromAddress  string
	log          zerolog.Logger
}

func NewHandler(auth *authapi.Client, store *storage.Client, mailer *resend.Client, avatarBucket, notifyEmail, fromAddress string) *Handler {
	return &Handler{
		auth:         auth,
		storage:      store,
		mailer:       mailer,
		avatarBucket: avatarBucket,
		notifyEmail:  notifyEmail,
		fromAddress:  fromAddress,
		log:          logger.With("functions"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/delete-account", h.DeleteAccount)
	router.POST("/ensure-avatars-bucket", h.EnsureAvatarsBucket)
	router.POST("/notify-signup", h.NotifySignup)
}

// DeleteAccount removes the calling user's auth record. The profile row and
// follow edges go with it through the database cascade. Only the caller's
// own bearer token authorizes the deletion.
func (h *Handler) DeleteAccount(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return
	}

	if err := h.auth.AdminDeleteUser(c.Request.Context(), user.ID); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("account deletion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("account deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EnsureAvatarsBucket provisions the public avatars bucket. Racing callers
// are fine: an existing bucket reports success.
func (h *Handler) EnsureAvatarsBucket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
		return
	}
	if _, err := h.auth.GetUser(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return
	}

	err := h.storage.CreateBucket(c.Request.Context(), h.avatarBucket, true)
	if err != nil && !errors.Is(err, storage.ErrBucketExists) {
		h.log.Error().Err(err).Str("bucket", h.avatarBucket).Msg("bucket provisioning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bucket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type notifySignupRequest struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	UserID string `json:"user_id"`
}

// NotifySignup emails the team about a new registration. The main API calls
// this fire-and-forget, so the contract stays simple: success flag or an
// error with the provider detail.
func (h *Handler) NotifySignup(c *gin.Context) {
	var req notifySignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Email == "" {
		req.Email = "unknown"
	}
	if req.Role == "" {
		req.Role = "unknown"
	}
	if req.UserID == "" {
		req.UserID = "unknown"
	}

	if !h.mailer.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Email service not configured"})
		return
	}

	body := "<h2>New BandScope signup</h2>" +
		"<p><strong>Email:</strong> " + html.EscapeString(req.Email) + "</p>" +
		"<p><strong>Role:</strong> " + html.EscapeString(req.Role) + "</p>" +
		"<p><strong>User ID:</strong> " + html.EscapeString(req.UserID) + "</p>"

	err := h.mailer.Send(c.Request.Context(), h.fromAddress, []string{h.notifyEmail},
		"New signup: "+req.Email, body)
	if err != nil {
		h.log.Warn().Err(err).Str("email", req.Email).Msg("signup notification failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to send notification",
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
