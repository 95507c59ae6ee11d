package handler

import (
	"net/http"

	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/dto"
	"github.com/Ranjel272/POSBF/internal/middleware"
	"github.com/Ranjel272/POSBF/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountsHandler serves /v1/employee-accounts. Role gating is applied by the
// router; SelfUpdate never reads an id from the request.
type AccountsHandler struct{ svc service.AccountService }

func NewAccountsHandler(svc service.AccountService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// Create godoc
// @Summary Create an employee account (admin)
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param body body dto.CreateAccountRequest true "Account"
// @Success 201 {object} dto.CreateAccountResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/employee-accounts [post]
func (h *AccountsHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, err := h.svc.Create(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateAccountResponse{ID: id.String(), Message: "Account created successfully"})
}

// List godoc
// @Summary List active employee accounts (admin)
// @Tags accounts
// @Produce json
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /v1/employee-accounts [get]
func (h *AccountsHandler) List(c *gin.Context) {
	resp, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Update an employee account (admin)
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path string true "Account ID"
// @Param body body dto.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} dto.UpdateResult
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/employee-accounts/{id} [put]
func (h *AccountsHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetIdentity(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelfUpdate godoc
// @Summary Update the caller's own account (manager, cashier)
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param body body dto.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} dto.UpdateResult
// @Failure 403 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/employee-accounts/self [put]
func (h *AccountsHandler) SelfUpdate(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	caller := middleware.GetIdentity(c)
	if caller == nil {
		writeError(c, apierror.Unauthenticated("Authentication required"))
		return
	}
	resp, err := h.svc.SelfUpdate(c.Request.Context(), *caller, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Disable godoc
// @Summary Disable an employee account (admin)
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/employee-accounts/{id} [delete]
func (h *AccountsHandler) Disable(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Disable(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Account disabled"})
}
