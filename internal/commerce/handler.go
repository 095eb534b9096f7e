package commerce

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/organizations"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

// Handler handles commerce HTTP endpoints.
type Handler struct {
	repo   *Repository
	orgs   *organizations.Repository
	policy *organizations.Policy
	logger *zap.Logger
}

// NewHandler creates a commerce handler.
func NewHandler(repo *Repository, orgs *organizations.Repository, policy *organizations.Policy, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, policy: policy, logger: logger}
}

// ProductRequest is the body for POST /api/organizations/:id/products.
type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents" binding:"required"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
}

// ProductUpdateRequest is the body for PUT /api/products/:id.
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int    `json:"price_cents"`
	Stock       *int    `json:"stock"`
}

// ServiceRequest is the body for POST /api/organizations/:id/services.
type ServiceRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	PriceCents      int    `json:"price_cents" binding:"required"`
	Currency        string `json:"currency"`
	DurationMinutes int    `json:"duration_minutes"`
}

// ServiceUpdateRequest is the body for PUT /api/services/:id.
type ServiceUpdateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	PriceCents      *int    `json:"price_cents"`
	DurationMinutes *int    `json:"duration_minutes"`
}

// OrderRequest is the body for POST /api/orders.
type OrderRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
}

// BookingRequest is the body for POST /api/bookings.
type BookingRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	StartsAt  time.Time `json:"starts_at" binding:"required"`
}

// StatusRequest updates an order or booking status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

var validStatuses = map[string]bool{
	models.OrderPending:   true,
	models.OrderConfirmed: true,
	models.OrderCancelled: true,
}

// authorizeOrg loads an organization and runs the update policy for the
// caller. It writes the error response itself on failure.
func (h *Handler) authorizeOrg(c *gin.Context, orgID uuid.UUID) bool {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	org, err := h.orgs.GetByID(c.Request.Context(), orgID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Error("load organization", zap.Error(err))
		response.Internal(c, "failed to load organization")
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) {
		org = nil
	}
	switch policyErr := h.policy.Authorize(c.Request.Context(), profileID, org, organizations.ActionUpdate); {
	case policyErr == nil:
		return true
	case errors.Is(policyErr, organizations.ErrNotFound):
		response.NotFound(c, "organization not found")
	case errors.Is(policyErr, organizations.ErrForbidden):
		response.Forbidden(c, "not authorized for this organization")
	default:
		h.logger.Error("authorize organization", zap.Error(policyErr))
		response.Internal(c, "failed to authorize")
	}
	return false
}

// CreateProduct handles POST /api/organizations/:id/products.
func (h *Handler) CreateProduct(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if !h.authorizeOrg(c, orgID) {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	p, err := h.repo.CreateProduct(c.Request.Context(), &models.Product{
		OrganizationID: orgID,
		Name:           req.Name,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		Currency:       req.Currency,
		Stock:          req.Stock,
	})
	if err != nil {
		h.logger.Error("create product", zap.Error(err))
		response.Internal(c, "failed to create product")
		return
	}
	response.OK(c, p)
}

// ListProducts handles GET /api/organizations/:id/products (public catalog).
func (h *Handler) ListProducts(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.ListProducts(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		response.Internal(c, "failed to list products")
		return
	}
	if list == nil {
		list = []*models.Product{}
	}
	response.OK(c, list)
}

// UpdateProduct handles PUT /api/products/:id.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}
	p, err := h.repo.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "product not found")
			return
		}
		h.logger.Error("load product", zap.Error(err))
		response.Internal(c, "failed to load product")
		return
	}
	if !h.authorizeOrg(c, p.OrganizationID) {
		return
	}
	var req ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.repo.UpdateProduct(c.Request.Context(), id, req.Name, req.Description, req.PriceCents, req.Stock)
	if err != nil {
		h.logger.Error("update product", zap.Error(err))
		response.Internal(c, "failed to update product")
		return
	}
	response.OK(c, updated)
}

// DeleteProduct handles DELETE /api/products/:id.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}
	p, err := h.repo.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "product not found")
			return
		}
		h.logger.Error("load product", zap.Error(err))
		response.Internal(c, "failed to load product")
		return
	}
	if !h.authorizeOrg(c, p.OrganizationID) {
		return
	}
	if err := h.repo.DeleteProduct(c.Request.Context(), id); err != nil {
		h.logger.Error("delete product", zap.Error(err))
		response.Internal(c, "failed to delete product")
		return
	}
	response.Success(c)
}

// CreateService handles POST /api/organizations/:id/services.
func (h *Handler) CreateService(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if !h.authorizeOrg(c, orgID) {
		return
	}
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	s, err := h.repo.CreateService(c.Request.Context(), &models.Service{
		OrganizationID:  orgID,
		Name:            req.Name,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		Currency:        req.Currency,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		h.logger.Error("create service", zap.Error(err))
		response.Internal(c, "failed to create service")
		return
	}
	response.OK(c, s)
}

// ListServices handles GET /api/organizations/:id/services (public catalog).
func (h *Handler) ListServices(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.ListServices(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list services", zap.Error(err))
		response.Internal(c, "failed to list services")
		return
	}
	if list == nil {
		list = []*models.Service{}
	}
	response.OK(c, list)
}

// UpdateService handles PUT /api/services/:id.
func (h *Handler) UpdateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	s, err := h.repo.GetService(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "service not found")
			return
		}
		h.logger.Error("load service", zap.Error(err))
		response.Internal(c, "failed to load service")
		return
	}
	if !h.authorizeOrg(c, s.OrganizationID) {
		return
	}
	var req ServiceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.repo.UpdateService(c.Request.Context(), id, req.Name, req.Description, req.PriceCents, req.DurationMinutes)
	if err != nil {
		h.logger.Error("update service", zap.Error(err))
		response.Internal(c, "failed to update service")
		return
	}
	response.OK(c, updated)
}

// DeleteService handles DELETE /api/services/:id.
func (h *Handler) DeleteService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	s, err := h.repo.GetService(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "service not found")
			return
		}
		h.logger.Error("load service", zap.Error(err))
		response.Internal(c, "failed to load service")
		return
	}
	if !h.authorizeOrg(c, s.OrganizationID) {
		return
	}
	if err := h.repo.DeleteService(c.Request.Context(), id); err != nil {
		h.logger.Error("delete service", zap.Error(err))
		response.Internal(c, "failed to delete service")
		return
	}
	response.Success(c)
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Quantity < 1 {
		response.BadRequest(c, "quantity must be at least 1")
		return
	}
	if _, err := h.repo.GetProduct(c.Request.Context(), req.ProductID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "product not found")
			return
		}
		h.logger.Error("load product", zap.Error(err))
		response.Internal(c, "failed to create order")
		return
	}
	o, err := h.repo.CreateOrder(c.Request.Context(), req.ProductID, profileID, req.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Conflict(c, "insufficient stock")
			return
		}
		h.logger.Error("create order", zap.Error(err))
		response.Internal(c, "failed to create order")
		return
	}
	response.OK(c, o)
}

// MyOrders handles GET /api/orders/my.
func (h *Handler) MyOrders(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	list, err := h.repo.ListOrdersForProfile(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("list orders", zap.Error(err))
		response.Internal(c, "failed to list orders")
		return
	}
	if list == nil {
		list = []*models.Order{}
	}
	response.OK(c, list)
}

// OrganizationOrders handles GET /api/organizations/:id/orders (org policy).
func (h *Handler) OrganizationOrders(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if !h.authorizeOrg(c, orgID) {
		return
	}
	list, err := h.repo.ListOrdersForOrganization(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list organization orders", zap.Error(err))
		response.Internal(c, "failed to list orders")
		return
	}
	if list == nil {
		list = []*models.Order{}
	}
	response.OK(c, list)
}

// UpdateOrderStatus handles PUT /api/orders/:id/status. The buyer may cancel;
// the selling organization may move the order through its lifecycle.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !validStatuses[req.Status] {
		response.BadRequest(c, "invalid status")
		return
	}
	o, err := h.repo.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "order not found")
			return
		}
		h.logger.Error("load order", zap.Error(err))
		response.Internal(c, "failed to load order")
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	if o.ProfileID == profileID {
		if req.Status != models.OrderCancelled {
			response.Forbidden(c, "buyers may only cancel")
			return
		}
	} else {
		p, err := h.repo.GetProduct(c.Request.Context(), o.ProductID)
		if err != nil {
			h.logger.Error("load product", zap.Error(err))
			response.Internal(c, "failed to load order")
			return
		}
		if !h.authorizeOrg(c, p.OrganizationID) {
			return
		}
	}
	updated, err := h.repo.SetOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("update order status", zap.Error(err))
		response.Internal(c, "failed to update order")
		return
	}
	response.OK(c, updated)
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.repo.GetService(c.Request.Context(), req.ServiceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "service not found")
			return
		}
		h.logger.Error("load service", zap.Error(err))
		response.Internal(c, "failed to create booking")
		return
	}
	b, err := h.repo.CreateBooking(c.Request.Context(), &models.Booking{
		ServiceID:        req.ServiceID,
		ProfileID:        profileID,
		StartsAt:         req.StartsAt,
		ConfirmationCode: uuid.NewString(),
	})
	if err != nil {
		h.logger.Error("create booking", zap.Error(err))
		response.Internal(c, "failed to create booking")
		return
	}
	response.OK(c, b)
}

// MyBookings handles GET /api/bookings/my.
func (h *Handler) MyBookings(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	list, err := h.repo.ListBookingsForProfile(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("list bookings", zap.Error(err))
		response.Internal(c, "failed to list bookings")
		return
	}
	if list == nil {
		list = []*models.Booking{}
	}
	response.OK(c, list)
}

// OrganizationBookings handles GET /api/organizations/:id/bookings.
func (h *Handler) OrganizationBookings(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if !h.authorizeOrg(c, orgID) {
		return
	}
	list, err := h.repo.ListBookingsForOrganization(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list organization bookings", zap.Error(err))
		response.Internal(c, "failed to list bookings")
		return
	}
	if list == nil {
		list = []*models.Booking{}
	}
	response.OK(c, list)
}

// UpdateBookingStatus handles PUT /api/bookings/:id/status. Same rule as
// orders: holder cancels, organization confirms or cancels.
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !validStatuses[req.Status] {
		response.BadRequest(c, "invalid status")
		return
	}
	b, err := h.repo.GetBooking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "booking not found")
			return
		}
		h.logger.Error("load booking", zap.Error(err))
		response.Internal(c, "failed to load booking")
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	if b.ProfileID == profileID {
		if req.Status != models.BookingCancelled {
			response.Forbidden(c, "holders may only cancel")
			return
		}
	} else {
		s, err := h.repo.GetService(c.Request.Context(), b.ServiceID)
		if err != nil {
			h.logger.Error("load service", zap.Error(err))
			response.Internal(c, "failed to load booking")
			return
		}
		if !h.authorizeOrg(c, s.OrganizationID) {
			return
		}
	}
	updated, err := h.repo.SetBookingStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("update booking status", zap.Error(err))
		response.Internal(c, "failed to update booking")
		return
	}
	response.OK(c, updated)
}
