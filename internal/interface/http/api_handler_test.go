package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/apidex-io/apidex/internal/application"
	"github.com/apidex-io/apidex/internal/domain/entity"
	"github.com/apidex-io/apidex/internal/domain/repository"
	"github.com/apidex-io/apidex/internal/interface/middleware"
	"github.com/apidex-io/apidex/pkg/helpers"
)

type fakeAPIRepo struct {
	seq     int
	entries map[string]*entity.APIEntry
}

func newFakeAPIRepo() *fakeAPIRepo {
	return &fakeAPIRepo{entries: map[string]*entity.APIEntry{}}
}

func (f *fakeAPIRepo) Create(ctx context.Context, a *entity.APIEntry) error {
	f.seq++
	a.ID = fmt.Sprintf("api%d", f.seq)
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	f.entries[a.ID] = &cp
	return nil
}

func (f *fakeAPIRepo) GetByID(ctx context.Context, userID, id string) (*entity.APIEntry, error) {
	a, ok := f.entries[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAPIRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entity.APIEntry, int, error) {
	var all []*entity.APIEntry
	for _, a := range f.entries {
		if a.UserID == userID {
			cp := *a
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset >= total {
		return []*entity.APIEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeAPIRepo) UpdateFields(ctx context.Context, userID, id string, patch repository.APIPatch) error {
	a, ok := f.entries[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.Endpoint != nil {
		a.Endpoint = *patch.Endpoint
	}
	if patch.Method != nil {
		a.Method = *patch.Method
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeAPIRepo) Delete(ctx context.Context, userID, id string) error {
	a, ok := f.entries[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

var _ repository.APIRepository = (*fakeAPIRepo)(nil)

// newAPITestServer returns the catalog routes plus access tokens for two
// separate users.
func newAPITestServer(t *testing.T) (*gin.Engine, string, string) {
	t.Helper()
	jwt := helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, time.Hour)
	svc := userapp.NewAPIService(newFakeAPIRepo(), nil)
	h := NewAPIHandler(svc, nil)

	r := gin.New()
	apis := r.Group("/api/apis")
	apis.Use(middleware.Auth(jwt))
	apis.GET("", h.List)
	apis.POST("", h.Create)
	apis.GET("/:id", h.Get)
	apis.PUT("/:id", h.Update)
	apis.DELETE("/:id", h.Delete)

	tok1, _, err := jwt.GenerateAccessToken("u1")
	require.NoError(t, err)
	tok2, _, err := jwt.GenerateAccessToken("u2")
	require.NoError(t, err)
	return r, tok1, tok2
}

func createEntry(t *testing.T, r *gin.Engine, token string, body gin.H) map[string]any {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/apis", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry, ok := env.Data["api"].(map[string]any)
	require.True(t, ok)
	return entry
}

func TestAPICreateEndpoint(t *testing.T) {
	r, tok, _ := newAPITestServer(t)

	entry := createEntry(t, r, tok, gin.H{"name": "Orders", "endpoint": "/v1/orders"})
	assert.NotEmpty(t, entry["id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "active", entry["status"])

	w, _ := doJSON(t, r, http.MethodPost, "/api/apis", tok, gin.H{"endpoint": "/x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/apis", tok, gin.H{
		"name": "x", "endpoint": "/x", "method": "FETCH",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/apis", "", gin.H{"name": "x", "endpoint": "/x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIListEndpoint(t *testing.T) {
	r, tok1, tok2 := newAPITestServer(t)

	for i := 0; i < 5; i++ {
		createEntry(t, r, tok1, gin.H{"name": fmt.Sprintf("api %d", i), "endpoint": "/x"})
	}
	createEntry(t, r, tok2, gin.H{"name": "other", "endpoint": "/y"})

	w, env := doJSON(t, r, http.MethodGet, "/api/apis?page=1&limit=2", tok1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	apis := env.Data["apis"].([]any)
	assert.Len(t, apis, 2)
	assert.EqualValues(t, 5, env.Data["total"])
	assert.EqualValues(t, 1, env.Data["page"])
	assert.EqualValues(t, 3, env.Data["pages"])

	// The other user only sees their own entry.
	w, env = doJSON(t, r, http.MethodGet, "/api/apis", tok2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Data["total"])
}

func TestAPIGetEndpoint(t *testing.T) {
	r, tok1, tok2 := newAPITestServer(t)
	entry := createEntry(t, r, tok1, gin.H{"name": "Orders", "endpoint": "/v1/orders"})
	id := entry["id"].(string)

	w, env := doJSON(t, r, http.MethodGet, "/api/apis/"+id, tok1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := env.Data["api"].(map[string]any)
	assert.Equal(t, "Orders", got["name"])

	// Another user's entry reads as missing.
	w, _ = doJSON(t, r, http.MethodGet, "/api/apis/"+id, tok2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/apis/missing", tok1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIUpdateEndpoint(t *testing.T) {
	r, tok1, tok2 := newAPITestServer(t)
	entry := createEntry(t, r, tok1, gin.H{"name": "Orders", "endpoint": "/v1/orders"})
	id := entry["id"].(string)

	w, env := doJSON(t, r, http.MethodPut, "/api/apis/"+id, tok1, gin.H{
		"name": "Orders v2", "status": "deprecated",
	})
	require.Equal(t, http.StatusOK, w.Code)
	got := env.Data["api"].(map[string]any)
	assert.Equal(t, "Orders v2", got["name"])
	assert.Equal(t, "deprecated", got["status"])
	assert.Equal(t, "/v1/orders", got["endpoint"])

	w, _ = doJSON(t, r, http.MethodPut, "/api/apis/"+id, tok1, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/api/apis/"+id, tok2, gin.H{"name": "hijack"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIDeleteEndpoint(t *testing.T) {
	r, tok1, tok2 := newAPITestServer(t)
	entry := createEntry(t, r, tok1, gin.H{"name": "Orders", "endpoint": "/v1/orders"})
	id := entry["id"].(string)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/apis/"+id, tok2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/apis/"+id, tok1, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/apis/"+id, tok1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
