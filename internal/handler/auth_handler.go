package handler

import (
	"net/http"

	"room-booking-backend/internal/service"
	"room-booking-backend/pkg/apperror"
	"room-booking-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	authService  *service.AuthService
	cookieMaxAge int
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieMaxAge: int(utils.GetRefreshTokenExpiry().Seconds()),
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, apperror.Wrap(apperror.KindValidation, "invalid request body", err))
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.SuccessResponse(c, gin.H{
		"access_token": response.AccessToken,
		"user":         response.User,
	})
}

// Refresh generates a new access token from the refresh token cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"access_token": accessToken,
	})
}

// Logout revokes the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err == nil {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			utils.HandleError(c, err)
			return
		}
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	utils.MessageResponse(c, "Logged out successfully")
}

// Register creates a regular user account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, apperror.Wrap(apperror.KindValidation, "invalid request body", err))
		return
	}

	response, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.CreatedResponse(c, gin.H{
		"access_token": response.AccessToken,
		"user":         response.User,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		refreshCookie,  // name
		token,          // value
		h.cookieMaxAge, // maxAge in seconds
		"/",            // path
		"",             // domain (empty means current domain)
		false,          // secure (set to true in production with HTTPS)
		true,           // httpOnly
	)
}
