package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colectivo/service-routemap/internal/application"
	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/colectivo/service-routemap/internal/repository"
)

type echoFetcher struct{}

func (echoFetcher) FetchBatch(_ context.Context, points []routemapDomain.LatLng, style routemapDomain.PolylineStyle, _ string) (*routemapDomain.Route, error) {
	return &routemapDomain.Route{Coords: points, Style: style}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := application.NewRenderService(
		repository.NewMemorySessionRepository(),
		echoFetcher{},
		application.KeySourceFunc(func() string { return "key" }),
		nil,
		application.RenderOptions{},
		zap.NewNop(),
	)
	r := gin.New()
	NewRouteMapHandler(svc).RegisterRoutes(&r.RouterGroup)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/routemap/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var dto application.SessionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, "idle", dto.Status)
	assert.Equal(t, routemapDomain.DefaultTiles, dto.Viewport.Tiles)
	return dto.ID.String()
}

func TestRouteMapHandler_RenderAndOverlay(t *testing.T) {
	r := setupRouter(t)
	id := createSession(t, r)

	payload := `[[[[-43.25,-65.31],[-43.26,-65.32]],[[-43.27,-65.33]]],[[[-43.30,-65.10],[-43.31,-65.11]]]]`
	w, env := do(t, r, http.MethodPost, "/api/v1/routemap/sessions/"+id+"/render", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var report routemapDomain.CycleReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.OptionCount)
	assert.Equal(t, 5, report.MarkersDrawn)
	assert.Equal(t, 2, report.RoutesDrawn)

	w, env = do(t, r, http.MethodGet, "/api/v1/routemap/sessions/"+id+"/overlay", "")
	require.Equal(t, http.StatusOK, w.Code)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 7)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.JSONEq(t, `[-65.31,-43.25]`, string(fc.Features[0].Geometry.Coordinates))
	assert.Equal(t, "Opción 1 - Origen", fc.Features[0].Properties["popup"])
	assert.Equal(t, "LineString", fc.Features[6].Geometry.Type)
}

func TestRouteMapHandler_RenderMalformedPayloadReportsParseError(t *testing.T) {
	r := setupRouter(t)
	id := createSession(t, r)

	w, env := do(t, r, http.MethodPost, "/api/v1/routemap/sessions/"+id+"/render", `{not json`)
	require.Equal(t, http.StatusOK, w.Code)

	var report routemapDomain.CycleReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.NotEmpty(t, report.ParseError)
	assert.Zero(t, report.MarkersDrawn)
}

func TestRouteMapHandler_UnknownSession(t *testing.T) {
	r := setupRouter(t)
	missing := uuid.New().String()

	w, env := do(t, r, http.MethodPost, "/api/v1/routemap/sessions/"+missing+"/render", `[]`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/routemap/sessions/"+missing, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouteMapHandler_InvalidSessionID(t *testing.T) {
	r := setupRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/routemap/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid session ID", env.Error.Message)
}

func TestRouteMapHandler_ClearAndDelete(t *testing.T) {
	r := setupRouter(t)
	id := createSession(t, r)

	do(t, r, http.MethodPost, "/api/v1/routemap/sessions/"+id+"/render", `[[[[-43.25,-65.31],[-43.26,-65.32]]]]`)

	w, _ := do(t, r, http.MethodDelete, "/api/v1/routemap/sessions/"+id+"/overlay", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, env := do(t, r, http.MethodGet, "/api/v1/routemap/sessions/"+id, "")
	var dto application.SessionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Zero(t, dto.Markers)
	assert.Zero(t, dto.Polylines)
	assert.Equal(t, int64(1), dto.Cycles)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/routemap/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/routemap/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouteMapHandler_ListSessions(t *testing.T) {
	r := setupRouter(t)
	createSession(t, r)
	createSession(t, r)

	w, env := do(t, r, http.MethodGet, "/api/v1/routemap/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []application.SessionDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)
}
