package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notespace-backend/pkg/config"
	"notespace-backend/pkg/database"
	"notespace-backend/pkg/middleware"
	"notespace-backend/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*chi.Mux, database.DatabaseInterface) {
	t.Helper()
	cfg := &config.Config{Environment: "development", Port: "3000", JWTSecret: "test-secret", AllowedOrigins: []string{"*"}}
	db := database.NewLocalDatabaseAt(t.TempDir())
	h := NewSpacesHandler(cfg, db)

	router := chi.NewRouter()
	router.Route("/api/spaces", func(r chi.Router) {
		r.Get("/", h.ListMySpaces)
		r.Post("/", h.CreateSpace)
		r.Get("/{id}", h.GetSpace)
		r.Put("/{id}", h.UpdateSpace)
		r.Delete("/{id}", h.DeleteSpace)
		r.Post("/{id}/members", h.ShareSpace)
		r.Delete("/{id}/members/{userID}", h.RevokeSpaceMembership)
	})
	return router, db
}

func doRequest(t *testing.T, router *chi.Mux, userID, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: userID, Email: userID + "@example.com"}))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetSpace(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, "u1", http.MethodPost, "/api/spaces/", map[string]string{"name": "Team Notes"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			Space models.Space `json:"space"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "team-notes", created.Data.Space.Slug)
	require.Equal(t, "u1", created.Data.Space.UserID)

	rec = doRequest(t, router, "u1", http.MethodGet, "/api/spaces/"+created.Data.Space.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSpace_InvalidFields(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, "u1", http.MethodPost, "/api/spaces/", map[string]string{"name": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, "u1", http.MethodPost, "/api/spaces/", map[string]string{"name": "ok", "slug": "Not-Valid"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSpace_OrgRequiresMembership(t *testing.T) {
	router, db := newTestServer(t)
	org := &models.Organization{Name: "Acme", OwnerID: "u9"}
	require.NoError(t, db.CreateOrganization(org))

	rec := doRequest(t, router, "u1", http.MethodPost, "/api/spaces/", map[string]string{"name": "Shared", "organization_id": org.ID})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, "u9", http.MethodPost, "/api/spaces/", map[string]string{"name": "Shared", "organization_id": org.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetSpace_StatusMapping(t *testing.T) {
	router, db := newTestServer(t)
	space := &models.Space{UserID: "u1", Name: "Notes", Slug: "notes"}
	require.NoError(t, db.CreateSpace(space))

	// unknown id -> 404
	rec := doRequest(t, router, "u1", http.MethodGet, "/api/spaces/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// stranger -> 403
	rec = doRequest(t, router, "u2", http.MethodGet, "/api/spaces/"+space.ID, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// unauthenticated -> 401
	rec = doRequest(t, router, "", http.MethodGet, "/api/spaces/"+space.ID, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateSpace_OrgMemberAllowed(t *testing.T) {
	router, db := newTestServer(t)
	org := &models.Organization{Name: "Acme", OwnerID: "u9"}
	require.NoError(t, db.CreateOrganization(org))
	require.NoError(t, db.AddOrganizationMember(&models.OrganizationMembership{
		OrganizationID: org.ID, UserID: "u2", Role: models.RoleMember,
	}))
	space := &models.Space{OrganizationID: org.ID, Name: "Shared", Slug: "shared"}
	require.NoError(t, db.CreateSpace(space))

	rec := doRequest(t, router, "u2", http.MethodPut, "/api/spaces/"+space.ID, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Space      models.Space                   `json:"space"`
			Membership *models.OrganizationMembership `json:"organization_membership"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Renamed", resp.Data.Space.Name)
	require.NotNil(t, resp.Data.Membership)

	// non-member stays locked out
	rec = doRequest(t, router, "u3", http.MethodPut, "/api/spaces/"+space.ID, map[string]string{"name": "Hacked"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestShareAndRevokeSpace(t *testing.T) {
	router, db := newTestServer(t)
	space := &models.Space{UserID: "u1", Name: "Notes", Slug: "notes"}
	require.NoError(t, db.CreateSpace(space))

	// only the owner can share
	rec := doRequest(t, router, "u2", http.MethodPost, "/api/spaces/"+space.ID+"/members", map[string]string{"user_id": "u2"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, "u1", http.MethodPost, "/api/spaces/"+space.ID+"/members", map[string]string{"user_id": "u2"})
	require.Equal(t, http.StatusOK, rec.Code)

	// shared member can now modify
	rec = doRequest(t, router, "u2", http.MethodPut, "/api/spaces/"+space.ID, map[string]string{"name": "By Member"})
	require.Equal(t, http.StatusOK, rec.Code)

	// revoke and the member is locked out again
	rec = doRequest(t, router, "u1", http.MethodDelete, "/api/spaces/"+space.ID+"/members/u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "u2", http.MethodPut, "/api/spaces/"+space.ID, map[string]string{"name": "Again"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestShareSpace_OrgSpaceRejected(t *testing.T) {
	router, db := newTestServer(t)
	org := &models.Organization{Name: "Acme", OwnerID: "u1"}
	require.NoError(t, db.CreateOrganization(org))
	space := &models.Space{OrganizationID: org.ID, Name: "Shared", Slug: "shared"}
	require.NoError(t, db.CreateSpace(space))

	rec := doRequest(t, router, "u1", http.MethodPost, "/api/spaces/"+space.ID+"/members", map[string]string{"user_id": "u2"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMySpaces(t *testing.T) {
	router, db := newTestServer(t)
	require.NoError(t, db.CreateSpace(&models.Space{UserID: "u1", Name: "A", Slug: "a"}))
	require.NoError(t, db.CreateSpace(&models.Space{UserID: "u2", Name: "B", Slug: "b"}))

	rec := doRequest(t, router, "u1", http.MethodGet, "/api/spaces/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Spaces []models.Space `json:"spaces"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Spaces, 1)
	require.Equal(t, "a", resp.Data.Spaces[0].Slug)

	// repeat with the returned ETag yields 304
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/api/spaces/", nil)
	req.Header.Set("If-None-Match", etag)
	req = req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: "u1"}))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusNotModified, rec2.Code)
}

func TestDeleteSpace(t *testing.T) {
	router, db := newTestServer(t)
	space := &models.Space{UserID: "u1", Name: "Notes", Slug: "notes"}
	require.NoError(t, db.CreateSpace(space))

	rec := doRequest(t, router, "u1", http.MethodDelete, "/api/spaces/"+space.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "u1", http.MethodGet, "/api/spaces/"+space.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
