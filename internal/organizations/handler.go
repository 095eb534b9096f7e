package organizations

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

// Store is the persistence surface the handler uses. Implemented by
// Repository; tests substitute an in-memory fake.
type Store interface {
	MembershipStore
	Create(ctx context.Context, name string, siret *string, ownerProfileID uuid.UUID) (*models.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	Update(ctx context.Context, id uuid.UUID, name, siret *string) (*models.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListOwnedBy(ctx context.Context, profileID uuid.UUID) ([]*models.Organization, error)
	ListMemberOf(ctx context.Context, profileID uuid.UUID) ([]*models.MemberOrganization, error)
	AddMember(ctx context.Context, orgID, profileID uuid.UUID, role string, invitedBy uuid.UUID) (*models.OrganizationMember, error)
	RemoveMember(ctx context.Context, orgID, memberID uuid.UUID) error
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrganizationMember, error)
	IsMember(ctx context.Context, orgID, profileID uuid.UUID) (bool, error)
}

// ProfileStore resolves profiles referenced by membership requests.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Handler handles organization HTTP endpoints. All mutation authorization
// goes through Policy; nothing is re-derived inline.
type Handler struct {
	store    Store
	policy   *Policy
	profiles ProfileStore
	logger   *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(store Store, policy *Policy, profileStore ProfileStore, logger *zap.Logger) *Handler {
	return &Handler{store: store, policy: policy, profiles: profileStore, logger: logger}
}

// CreateRequest is the body for POST /api/organizations. A subscription_tier
// in the body is accepted and ignored; new organizations are always "free".
type CreateRequest struct {
	Name             string  `json:"name"`
	Siret            *string `json:"siret"`
	SubscriptionTier string  `json:"subscription_tier"`
}

// UpdateRequest is the body for PUT /api/organizations/:orgId. Absent fields
// keep their stored value; name and siret are the only mutable fields.
type UpdateRequest struct {
	Name  *string `json:"name"`
	Siret *string `json:"siret"`
}

// AddMemberRequest is the body for POST /api/organizations/:orgId/members.
type AddMemberRequest struct {
	ProfileID uuid.UUID `json:"profile_id" binding:"required"`
	Role      string    `json:"role" binding:"required"`
}

// MyOrganizationsResponse is the body for GET /api/organizations/my. The two
// lists are built independently and are not deduplicated: an owner who also
// holds a membership row for their own organization appears in both.
type MyOrganizationsResponse struct {
	Owned  []*models.Organization       `json:"owned"`
	Member []*models.MemberOrganization `json:"member"`
}

func callerProfileID(c *gin.Context) uuid.UUID {
	return c.MustGet(profiles.ContextProfileID).(uuid.UUID)
}

// getOrg loads the target organization, translating a missing row into a nil
// org so the policy reports NotFound before any permission evaluation.
func (h *Handler) getOrg(c *gin.Context, param string) (*models.Organization, bool) {
	orgID, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return nil, false
	}
	org, err := h.store.GetByID(c.Request.Context(), orgID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Error("load organization", zap.Error(err))
		response.Internal(c, "failed to load organization")
		return nil, false
	}
	return org, true
}

func (h *Handler) respondPolicyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "organization not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, "not authorized for this organization")
	default:
		h.logger.Error("authorize organization action", zap.Error(err))
		response.Internal(c, "failed to check permissions")
	}
}

// Get handles GET /api/organizations/:orgId.
func (h *Handler) Get(c *gin.Context) {
	org, ok := h.getOrg(c, "orgId")
	if !ok {
		return
	}
	if org == nil {
		response.NotFound(c, "organization not found")
		return
	}
	response.OK(c, org)
}

// ListMy handles GET /api/organizations/my.
func (h *Handler) ListMy(c *gin.Context) {
	profileID := callerProfileID(c)

	owned, err := h.store.ListOwnedBy(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("list owned organizations", zap.Error(err))
		response.Internal(c, "failed to load organizations")
		return
	}
	member, err := h.store.ListMemberOf(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("list member organizations", zap.Error(err))
		response.Internal(c, "failed to load organizations")
		return
	}
	if owned == nil {
		owned = []*models.Organization{}
	}
	if member == nil {
		member = []*models.MemberOrganization{}
	}
	response.OK(c, MyOrganizationsResponse{Owned: owned, Member: member})
}

// Create handles POST /api/organizations.
func (h *Handler) Create(c *gin.Context) {
	profileID := callerProfileID(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		response.BadRequest(c, "name required")
		return
	}

	org, err := h.store.Create(c.Request.Context(), req.Name, req.Siret, profileID)
	if err != nil {
		h.logger.Error("create organization", zap.Error(err))
		response.Internal(c, "failed to create organization")
		return
	}
	response.OK(c, org)
}

// Update handles PUT /api/organizations/:orgId.
func (h *Handler) Update(c *gin.Context) {
	profileID := callerProfileID(c)
	org, ok := h.getOrg(c, "orgId")
	if !ok {
		return
	}
	if err := h.policy.Authorize(c.Request.Context(), profileID, org, ActionUpdate); err != nil {
		h.respondPolicyError(c, err)
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	updated, err := h.store.Update(c.Request.Context(), org.ID, req.Name, req.Siret)
	if err != nil {
		h.logger.Error("update organization", zap.Error(err))
		response.Internal(c, "failed to update organization")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/organizations/:orgId. Primary owner only;
// admin memberships never grant delete.
func (h *Handler) Delete(c *gin.Context) {
	profileID := callerProfileID(c)
	org, ok := h.getOrg(c, "orgId")
	if !ok {
		return
	}
	if err := h.policy.Authorize(c.Request.Context(), profileID, org, ActionDelete); err != nil {
		h.respondPolicyError(c, err)
		return
	}

	if err := h.store.Delete(c.Request.Context(), org.ID); err != nil {
		h.logger.Error("delete organization", zap.Error(err))
		response.Internal(c, "failed to delete organization")
		return
	}
	response.Success(c)
}

// AddMember handles POST /api/organizations/:orgId/members. Membership is
// active immediately; there is no invitation handshake.
func (h *Handler) AddMember(c *gin.Context) {
	profileID := callerProfileID(c)
	org, ok := h.getOrg(c, "orgId")
	if !ok {
		return
	}
	if err := h.policy.Authorize(c.Request.Context(), profileID, org, ActionAddMember); err != nil {
		h.respondPolicyError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "profile_id and role required")
		return
	}
	if !models.ValidMemberRole(req.Role) {
		response.BadRequest(c, "invalid role")
		return
	}
	if _, err := h.profiles.GetByID(c.Request.Context(), req.ProfileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "profile not found")
			return
		}
		h.logger.Error("load member profile", zap.Error(err))
		response.Internal(c, "failed to add member")
		return
	}

	m, err := h.store.AddMember(c.Request.Context(), org.ID, req.ProfileID, req.Role, profileID)
	if err != nil {
		h.logger.Error("add member", zap.Error(err))
		response.Internal(c, "failed to add member")
		return
	}
	response.OK(c, m)
}

// RemoveMember handles DELETE /api/organizations/:orgId/members/:memberId.
func (h *Handler) RemoveMember(c *gin.Context) {
	profileID := callerProfileID(c)
	org, ok := h.getOrg(c, "orgId")
	if !ok {
		return
	}
	if err := h.policy.Authorize(c.Request.Context(), profileID, org, ActionRemoveMember); err != nil {
		h.respondPolicyError(c, err)
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	if err := h.store.RemoveMember(c.Request.Context(), org.ID, memberID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "membership not found")
			return
		}
		h.logger.Error("remove member", zap.Error(err))
		response.Internal(c, "failed to remove member")
		return
	}
	response.Success(c)
}

// ListMembers handles GET /api/organizations/:orgId/members. Readable by the
// primary owner or any member of the organization.
func (h *Handler) ListMembers(c *gin.Context) {
	profileID := callerProfileID(c)
	org, ok := h.getOrg(c, "orgId")
	if !ok {
		return
	}
	if org == nil {
		response.NotFound(c, "organization not found")
		return
	}
	if org.PrimaryOwnerID != profileID {
		isMember, err := h.store.IsMember(c.Request.Context(), org.ID, profileID)
		if err != nil {
			h.logger.Error("check membership", zap.Error(err))
			response.Internal(c, "failed to load members")
			return
		}
		if !isMember {
			response.Forbidden(c, "not authorized for this organization")
			return
		}
	}

	members, err := h.store.ListMembers(c.Request.Context(), org.ID)
	if err != nil {
		h.logger.Error("list members", zap.Error(err))
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}
