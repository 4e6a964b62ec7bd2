package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/internal/service"
	"github.com/classora/classora-api/pkg/query"
)

type hallRepoStub struct {
	halls  map[string]models.Hall
	byName map[string]string
}

func (m *hallRepoStub) List(ctx context.Context, params query.Params) ([]models.Hall, int, error) {
	out := make([]models.Hall, 0, len(m.halls))
	for _, h := range m.halls {
		out = append(out, h)
	}
	return out, len(out), nil
}

func (m *hallRepoStub) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	if h, ok := m.halls[id]; ok {
		return &h, nil
	}
	return nil, sql.ErrNoRows
}

func (m *hallRepoStub) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	if id, ok := m.byName[name]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *hallRepoStub) Create(ctx context.Context, hall *models.Hall) error {
	if hall.ID == "" {
		hall.ID = "hall-1"
	}
	m.halls[hall.ID] = *hall
	m.byName[hall.Name] = hall.ID
	return nil
}

func (m *hallRepoStub) Update(ctx context.Context, hall *models.Hall) error {
	m.halls[hall.ID] = *hall
	return nil
}

func (m *hallRepoStub) Delete(ctx context.Context, id string) error {
	delete(m.halls, id)
	return nil
}

func hallRouter() (*gin.Engine, *hallRepoStub) {
	gin.SetMode(gin.TestMode)
	repo := &hallRepoStub{halls: map[string]models.Hall{}, byName: map[string]string{}}
	h := NewHallHandler(service.NewHallService(repo, nil, nil, nil))

	router := gin.New()
	router.GET("/halls", h.List)
	router.GET("/halls/:id", h.Get)
	router.POST("/halls", h.Create)
	router.PUT("/halls/:id", h.Update)
	router.DELETE("/halls/:id", h.Delete)
	return router, repo
}

func TestHallHandlerCreate(t *testing.T) {
	router, repo := hallRouter()

	body := bytes.NewBufferString(`{"name":"Main Hall","capacity":120}`)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/halls", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var envelope struct {
		Data models.Hall `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, "Main Hall", envelope.Data.Name)
	assert.Equal(t, 120, envelope.Data.Capacity)
	assert.Len(t, repo.halls, 1)
}

func TestHallHandlerCreateValidation(t *testing.T) {
	router, repo := hallRouter()

	body := bytes.NewBufferString(`{"capacity":0}`)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/halls", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var envelope struct {
		Error struct {
			Code       string              `json:"code"`
			Validation map[string][]string `json:"validation"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Error.Validation["name"], "Name is required!")
	assert.Empty(t, repo.halls)
}

func TestHallHandlerGetNotFound(t *testing.T) {
	router, _ := hallRouter()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/halls/missing", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHallHandlerListEnvelope(t *testing.T) {
	router, repo := hallRouter()
	repo.halls["hall-1"] = models.Hall{ID: "hall-1", Name: "Main Hall", Capacity: 120}

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/halls?page=1&limit=10", nil)
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))

	var envelope struct {
		Data []models.Hall     `json:"data"`
		Meta *models.Paginator `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, 1, envelope.Meta.Total)
}

func TestHallHandlerDelete(t *testing.T) {
	router, repo := hallRouter()
	repo.halls["hall-1"] = models.Hall{ID: "hall-1", Name: "Main Hall", Capacity: 120}
	repo.byName["Main Hall"] = "hall-1"

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/halls/hall-1", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, repo.halls)
}

func TestPaymentTypeFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		raw  string
		want models.PaymentType
		ok   bool
	}{
		{"", "", true},
		{"ADMISSION", models.PaymentTypeAdmission, true},
		{"course", models.PaymentTypeCourse, true},
		{"REFUND", "", false},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/payments?type="+tc.raw, nil)

		got, err := paymentTypeFilter(c)
		if tc.ok {
			require.NoError(t, err, tc.raw)
			assert.Equal(t, tc.want, got, tc.raw)
		} else {
			require.Error(t, err, tc.raw)
		}
	}
}
