package handler

import (
	"net/http"

	"github.com/Ranjel272/POSBF/internal/dto"
	"github.com/Ranjel272/POSBF/internal/middleware"
	"github.com/Ranjel272/POSBF/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Admin/manager login
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 429 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PasscodeLogin godoc
// @Summary Cashier passcode login
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param body body dto.PasscodeLoginRequest true "Passcode"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/passcode-login [post]
func (h *AuthHandler) PasscodeLogin(c *gin.Context) {
	var req dto.PasscodeLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PasscodeLogin(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the caller's identity as re-read at verification time.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, service.IdentityResponse(middleware.GetIdentity(c)))
}
