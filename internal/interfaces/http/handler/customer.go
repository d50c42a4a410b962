package handler

import (
	"context"

	customerapp "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/customers/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerRegistrar starts an asynchronous customer creation
type CustomerRegistrar interface {
	Execute(ctx context.Context, req customerapp.CreateCustomerRequest) (*customerapp.CustomerResponse, error)
}

// CustomerStore serves the synchronous customer operations
type CustomerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*customerapp.CustomerResponse, error)
	List(ctx context.Context, filter customerapp.CustomerListFilter) ([]customerapp.CustomerResponse, error)
	Update(ctx context.Context, id uuid.UUID, req customerapp.UpdateCustomerRequest) (*customerapp.CustomerResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerHandler handles the /customers endpoints
type CustomerHandler struct {
	BaseHandler
	registrar CustomerRegistrar
	store     CustomerStore
	metrics   *telemetry.CustomerMetrics
}

// NewCustomerHandler creates a CustomerHandler. metrics may be nil.
func NewCustomerHandler(registrar CustomerRegistrar, store CustomerStore, metrics *telemetry.CustomerMetrics) *CustomerHandler {
	return &CustomerHandler{
		registrar: registrar,
		store:     store,
		metrics:   metrics,
	}
}

// Create godoc
// @ID           createCustomer
// @Summary      Register a customer
// @Description  Validates the request, reserves the email and publishes a create command. The customer is persisted asynchronously by the worker.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        X-Request-ID header string false "Request ID, reused as the correlation ID"
// @Param        request body customerapp.CreateCustomerRequest true "Customer registration request"
// @Success      202 {object} APIResponse[customerapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req customerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordRegistration(ctx, telemetry.RegistrationInvalid)
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.registrar.Execute(ctx, req)
	if err != nil {
		h.metrics.RecordRegistration(ctx, registrationOutcome(err))
		h.HandleError(c, err)
		return
	}

	h.metrics.RecordRegistration(ctx, telemetry.RegistrationAccepted)
	h.Accepted(c, resp)
}

func registrationOutcome(err error) string {
	switch {
	case customer.IsAlreadyExists(err):
		return telemetry.RegistrationConflict
	case shared.ErrorCode(err) != "":
		return telemetry.RegistrationInvalid
	default:
		return telemetry.RegistrationFailed
	}
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[customerapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	resp, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  Lists customers, optionally filtered by exact name and/or email
// @Tags         customers
// @Produce      json
// @Param        name  query string false "Exact name"
// @Param        email query string false "Exact email"
// @Success      200 {object} APIResponse[[]customerapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var filter customerapp.CustomerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Description  Renames the customer and/or changes its email. Omitted fields are left unchanged.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id      path string true "Customer ID" format(uuid)
// @Param        request body customerapp.UpdateCustomerRequest true "Fields to change"
// @Success      200 {object} APIResponse[customerapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req customerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.store.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
