package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"notespace-backend/pkg/config"
	"notespace-backend/pkg/database"
	"notespace-backend/pkg/middleware"
	"notespace-backend/pkg/models"
	"notespace-backend/pkg/spaces"
	"notespace-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

type SpacesHandler struct {
	config   *config.Config
	db       database.DatabaseInterface
	resolver *spaces.Resolver
}

func NewSpacesHandler(cfg *config.Config, db database.DatabaseInterface) *SpacesHandler {
	return &SpacesHandler{config: cfg, db: db, resolver: spaces.NewResolver(db)}
}

// writeAccessError translates resolver errors to HTTP statuses
func writeAccessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spaces.ErrSpaceNotFound):
		utils.WriteNotFoundResponse(w, "space not found")
	case errors.Is(err, spaces.ErrAccessDenied):
		utils.WriteForbiddenResponse(w, "No access to this space")
	default:
		utils.WriteInternalServerErrorResponse(w, err.Error())
	}
}

// accessPayload shapes an ALLOW decision for the response body
func accessPayload(access *spaces.Access) map[string]interface{} {
	payload := map[string]interface{}{"space": access.Space}
	if access.OrgMembership != nil {
		payload["organization_membership"] = access.OrgMembership
	}
	if access.SpaceMembership != nil {
		payload["membership"] = access.SpaceMembership
	}
	return payload
}

// GET /api/spaces
func (h *SpacesHandler) ListMySpaces(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	list, err := h.db.ListSpacesForUser(user.ID)
	if err != nil {
		fmt.Printf("[error] ListMySpaces failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	// Compute weak ETag: spaces:<user>:<count>:<maxUpdated>
	var maxUpdated int64
	for _, s := range list {
		if ts := s.UpdatedAt.UnixMilli(); ts > maxUpdated { maxUpdated = ts }
	}
	etag := fmt.Sprintf("W/\"spaces:%s:%d:%d\"", user.ID, len(list), maxUpdated)
	ifNone := r.Header.Get("If-None-Match")
	w.Header().Set("ETag", etag)
	if ifNone == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"spaces": list})
}

// POST /api/spaces
func (h *SpacesHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	var req struct {
		Name           string `json:"name"`
		Slug           string `json:"slug"`
		OrganizationID string `json:"organization_id"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil { utils.WriteBadRequestResponse(w, "Invalid body"); return }
	if !spaces.ValidateName(req.Name) {
		utils.WriteValidationErrorResponse(w, "name must be 1-100 characters", "")
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" { slug = spaces.SlugFromName(req.Name) }
	if !spaces.ValidateSlug(slug) {
		utils.WriteValidationErrorResponse(w, "slug must be lowercase alphanumeric segments separated by single hyphens", "")
		return
	}

	space := &models.Space{Name: strings.TrimSpace(req.Name), Slug: slug}
	if req.OrganizationID != "" {
		// Creating under an organization requires membership in it
		m, err := h.db.GetOrganizationMembership(user.ID, req.OrganizationID)
		if err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
		if m == nil { utils.WriteForbiddenResponse(w, "Not a member of organization"); return }
		space.OrganizationID = req.OrganizationID
	} else {
		space.UserID = user.ID
	}
	if err := h.db.CreateSpace(space); err != nil { utils.WriteInternalServerErrorResponse(w, "Create space failed: "+err.Error()); return }
	utils.WriteCreatedResponse(w, map[string]interface{}{"space": space})
}

// GET /api/spaces/{id}
func (h *SpacesHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	spaceID := chiRoute.URLParam(r, "id")
	if strings.TrimSpace(spaceID) == "" { utils.WriteBadRequestResponse(w, "space id required"); return }
	access, err := h.resolver.VerifyUserCanModifySpace(user.ID, spaceID)
	if err != nil { writeAccessError(w, err); return }
	utils.WriteSuccessResponse(w, accessPayload(access))
}

// PUT /api/spaces/{id}
func (h *SpacesHandler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	spaceID := chiRoute.URLParam(r, "id")
	if strings.TrimSpace(spaceID) == "" { utils.WriteBadRequestResponse(w, "space id required"); return }
	access, err := h.resolver.VerifyUserCanModifySpace(user.ID, spaceID)
	if err != nil { writeAccessError(w, err); return }

	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil { utils.WriteBadRequestResponse(w, "Invalid body"); return }
	space := access.Space
	// Apply patch values (only non-empty)
	if strings.TrimSpace(req.Name) != "" {
		if !spaces.ValidateName(req.Name) {
			utils.WriteValidationErrorResponse(w, "name must be 1-100 characters", "")
			return
		}
		space.Name = strings.TrimSpace(req.Name)
	}
	if strings.TrimSpace(req.Slug) != "" {
		if !spaces.ValidateSlug(req.Slug) {
			utils.WriteValidationErrorResponse(w, "slug must be lowercase alphanumeric segments separated by single hyphens", "")
			return
		}
		space.Slug = strings.TrimSpace(req.Slug)
	}
	if err := h.db.UpdateSpace(space); err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
	utils.WriteSuccessResponse(w, accessPayload(access))
}

// DELETE /api/spaces/{id}
func (h *SpacesHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	spaceID := chiRoute.URLParam(r, "id")
	if strings.TrimSpace(spaceID) == "" { utils.WriteBadRequestResponse(w, "space id required"); return }
	if _, err := h.resolver.VerifyUserCanModifySpace(user.ID, spaceID); err != nil { writeAccessError(w, err); return }
	if err := h.db.DeleteSpace(spaceID); err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": true, "id": spaceID})
}

// POST /api/spaces/{id}/members
func (h *SpacesHandler) ShareSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	spaceID := chiRoute.URLParam(r, "id")
	if strings.TrimSpace(spaceID) == "" { utils.WriteBadRequestResponse(w, "space id required"); return }
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil { utils.WriteBadRequestResponse(w, "Invalid body"); return }
	if strings.TrimSpace(req.UserID) == "" { utils.WriteBadRequestResponse(w, "user_id required"); return }

	space, err := h.db.GetSpaceBasicByID(spaceID)
	if err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
	if space == nil { utils.WriteNotFoundResponse(w, "space not found"); return }
	if space.OrganizationID != "" {
		// Org spaces are shared through organization membership, not rows here
		utils.WriteBadRequestResponse(w, "organization spaces are shared via organization membership")
		return
	}
	// Only the owner can share a personal space
	if space.UserID != user.ID { utils.WriteForbiddenResponse(w, "Only the owner can share this space"); return }

	m := &models.SpaceMembership{SpaceID: spaceID, UserID: req.UserID}
	if err := h.db.PutSpaceMembership(m); err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
	utils.WriteSuccessResponse(w, map[string]interface{}{"membership": m})
}

// DELETE /api/spaces/{id}/members/{userID}
func (h *SpacesHandler) RevokeSpaceMembership(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil { utils.WriteUnauthorizedResponse(w, "Authentication required"); return }
	spaceID := chiRoute.URLParam(r, "id")
	memberID := chiRoute.URLParam(r, "userID")
	if strings.TrimSpace(spaceID) == "" || strings.TrimSpace(memberID) == "" {
		utils.WriteBadRequestResponse(w, "space id and user id required")
		return
	}

	space, err := h.db.GetSpaceBasicByID(spaceID)
	if err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
	if space == nil { utils.WriteNotFoundResponse(w, "space not found"); return }
	if space.UserID != user.ID { utils.WriteForbiddenResponse(w, "Only the owner can revoke access"); return }

	if err := h.db.DeleteSpaceMembership(memberID, spaceID); err != nil { utils.WriteInternalServerErrorResponse(w, err.Error()); return }
	utils.WriteSuccessResponse(w, map[string]interface{}{"revoked": true, "space_id": spaceID, "user_id": memberID})
}
