package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/config"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/http/handlers"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/http/server"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/monitoring"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/healthcheck"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/test/testutils"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, tracing bool) (*server.Server, *testutils.MockMealPlanService) {
	cfg := &config.Config{
		App:    config.AppConfig{Name: "meal-planner", Environment: "test"},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 18080, RequestTimeout: 5 * time.Second},
		Monitoring: config.MonitoringConfig{
			EnableTracing:   tracing,
			HealthCheckPath: "/health",
			MetricsPath:     "/metrics",
		},
	}

	plans := &testutils.MockMealPlanService{}
	t.Cleanup(func() { plans.AssertExpectations(t) })

	api := handlers.NewAPIHandlers(plans, &testutils.MockClientProfileService{}, zap.NewNop())
	health := healthcheck.New("test", zap.NewNop())
	metrics := monitoring.NewMetricsCollector(prometheus.NewRegistry(), nil)

	return server.NewServer(cfg, zap.NewNop(), api, health, metrics), plans
}

func get(srv *server.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_OpsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, false)

	assert.Equal(t, "127.0.0.1:18080", srv.Addr())
	assert.Equal(t, http.StatusOK, get(srv, "/health").Code)
	assert.Equal(t, http.StatusOK, get(srv, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(srv, "/health/ready").Code)

	rec := get(srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mealplanner_http_requests_total")
}

func TestServer_RoutesThroughErrorHandler(t *testing.T) {
	srv, plans := newTestServer(t, true)
	planID := uuid.New()
	plans.On("GetMealPlan", mock.Anything, planID).Return(nil, errors.NewMealPlanNotFoundError(planID.String())).Once()

	rec := get(srv, "/api/v1/meal-plans/"+planID.String())

	body := testutils.NewHTTPAssertions(t).ErrorResponse(rec, http.StatusNotFound, string(errors.CodeMealPlanNotFound))
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestServer_ServesPlans(t *testing.T) {
	srv, plans := newTestServer(t, false)
	planID := uuid.New()
	plans.On("GetMealPlan", mock.Anything, planID).Return(&inbound.MealPlanDTO{ID: planID}, nil).Once()

	rec := get(srv, "/api/v1/meal-plans/"+planID.String())

	testutils.NewHTTPAssertions(t).StatusCode(rec, http.StatusOK)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := get(srv, "/api/v2/nothing")

	testutils.NewHTTPAssertions(t).ErrorResponse(rec, http.StatusNotFound, string(errors.CodeNotFound))
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
