package handler

import (
	"context"
	"errors"
	"net/http"

	"identity-service/internal/logger"
	"identity-service/internal/middleware"
	"identity-service/internal/usecase/user"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserService is the use case surface the handler drives.
type UserService interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*user.RegisterResponse, error)
	Activate(ctx context.Context, req *user.ActivateRequest) (*user.ActivateResponse, error)
	Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error)
	Refresh(ctx context.Context, req *user.RefreshRequest) (*user.TokenPair, error)
	ForgotPassword(ctx context.Context, req *user.ForgotPasswordRequest) (*user.MessageResponse, error)
	ResetPassword(ctx context.Context, req *user.ResetPasswordRequest) (*user.ResetPasswordResponse, error)
	GetCurrentSession(ctx context.Context, auth *user.AuthenticatedContext) (*user.SessionResponse, error)
	Logout(ctx context.Context, auth *user.AuthenticatedContext) (*user.MessageResponse, error)
	ListUsers(ctx context.Context, auth *user.AuthenticatedContext) ([]*user.UserResponse, error)
}

type UserHandler struct {
	service UserService
}

func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes mounts the public credential endpoints.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register", h.Register)
	router.POST("/activate", h.Activate)
	router.POST("/login", h.Login)
	router.POST("/refresh", h.Refresh)
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/reset-password", h.ResetPassword)
}

// RegisterProtectedRoutes mounts endpoints that need AuthMiddleware in front.
func (h *UserHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.GetCurrentSession)
	router.POST("/logout", h.Logout)
	router.GET("/users", h.ListUsers)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, appErrors.CodeValidation, "Invalid request body")
		return false
	}
	return true
}

func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, resp.Message, resp)
}

func (h *UserHandler) Activate(c *gin.Context) {
	var req user.ActivateRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Activate(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Account activated successfully", resp)
}

// loginFailure is the single body returned for every rejected login.
type loginFailure struct {
	User         *user.UserResponse `json:"user"`
	AccessToken  *string            `json:"access_token"`
	RefreshToken *string            `json:"refresh_token"`
	Error        loginFailureError  `json:"error"`
}

type loginFailureError struct {
	Message string `json:"message"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, loginFailure{
				Error: loginFailureError{Message: "Invalid email or password"},
			})
			return
		}
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}

func (h *UserHandler) Refresh(c *gin.Context) {
	var req user.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Token refreshed successfully", pair)
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req user.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ForgotPassword(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp.Message, nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ResetPassword(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset successfully", resp)
}

func authContext(c *gin.Context) (*user.AuthenticatedContext, bool) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		respondWithError(c, appErrors.ErrUnauthorized)
	}
	return auth, ok
}

func (h *UserHandler) GetCurrentSession(c *gin.Context) {
	auth, ok := authContext(c)
	if !ok {
		return
	}

	session, err := h.service.GetCurrentSession(c.Request.Context(), auth)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session retrieved successfully", session)
}

func (h *UserHandler) Logout(c *gin.Context) {
	auth, ok := authContext(c)
	if !ok {
		return
	}

	resp, err := h.service.Logout(c.Request.Context(), auth)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp.Message, nil)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	auth, ok := authContext(c)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), auth)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Users retrieved successfully", users)
}

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := appErrors.CodeOf(err)

	switch {
	case errors.Is(err, appErrors.ErrValidation):
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, code, "Invalid input", utils.ValidationMessages(err)...)
	case errors.Is(err, appErrors.ErrDuplicateEmail),
		errors.Is(err, appErrors.ErrDuplicatePhone):
		utils.ErrorResponseWithCode(c, http.StatusConflict, code, err.Error())
	case errors.Is(err, appErrors.ErrInvalidActivationCode),
		errors.Is(err, appErrors.ErrInvalidOrExpiredActivation),
		errors.Is(err, appErrors.ErrInvalidOrExpiredToken):
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, appErrors.ErrInvalidCredentials),
		errors.Is(err, appErrors.ErrUnauthorized):
		utils.ErrorResponseWithCode(c, http.StatusUnauthorized, code, err.Error())
	case errors.Is(err, appErrors.ErrUserNotFound):
		utils.ErrorResponseWithCode(c, http.StatusNotFound, code, err.Error())
	case errors.Is(err, appErrors.ErrDelivery):
		logInternal(c, err)
		utils.ErrorResponseWithCode(c, http.StatusInternalServerError, code, appErrors.ErrDelivery.Error())
	default:
		logInternal(c, err)
		utils.ErrorResponseWithCode(c, http.StatusInternalServerError, code, "Internal server error")
	}
}

func logInternal(c *gin.Context, err error) {
	logger.Error("Internal server error",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
}
