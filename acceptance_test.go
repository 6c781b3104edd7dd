package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
	"github.com/kendall-kelly/atelier-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServerStartup verifies the full application router can be built
func TestServerStartup(t *testing.T) {
	router := newTestRouter()
	assert.NotNil(t, router, "Router should be initialized")
}

// TestAPIHealthEndpointAcceptance is an end-to-end acceptance test
// It simulates a real HTTP request to verify the API works as expected
func TestAPIHealthEndpointAcceptance(t *testing.T) {
	router := newTestRouter()

	req, err := http.NewRequest("GET", "/api/v1/health", nil)
	assert.NoError(t, err, "Should be able to create request")

	recorder := &testResponseWriter{header: make(http.Header)}
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.statusCode, "Health endpoint should return 200 OK")

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err = json.Unmarshal(recorder.body, &response)
	assert.NoError(t, err, "Response should be valid JSON")

	assert.True(t, response.Success, "Success field should be true")
	assert.Equal(t, "Atelier API is running", response.Message)
}

// TestHealthEndpointAvailability tests that the health endpoint is available immediately
func TestHealthEndpointAvailability(t *testing.T) {
	router := newTestRouter()

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest("GET", "/api/v1/health", nil)
		recorder := &testResponseWriter{header: make(http.Header)}
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.statusCode,
			fmt.Sprintf("Request %d should succeed", i+1))

		var response map[string]interface{}
		json.Unmarshal(recorder.body, &response)
		assert.Equal(t, true, response["success"],
			fmt.Sprintf("Request %d should have success=true", i+1))
	}
}

// TestHealthEndpointResponseTime tests that the endpoint responds quickly
func TestHealthEndpointResponseTime(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	recorder := &testResponseWriter{header: make(http.Header)}

	start := time.Now()
	router.ServeHTTP(recorder, req)
	duration := time.Since(start)

	assert.Less(t, duration, 100*time.Millisecond,
		"Health endpoint should respond in less than 100ms")
}

// TestBespokeOrderLifecycleOverHTTP drives an order from inquiry to delivery
// through a real listener, as the staff app and the customer app would.
func TestBespokeOrderLifecycleOverHTTP(t *testing.T) {
	db := testutil.NewTestDB(t)
	dispatcher := services.NewMockDispatcher()
	events := services.NewMockEventPublisher()

	prevDB, prevCfg, prevLog := config.GetDB(), config.GetConfig(), logger.Get()
	prevDispatcher, prevActivity, prevEvents := services.GetDispatcher(), services.GetActivityLogger(), services.GetEventPublisher()
	t.Cleanup(func() {
		config.SetDB(prevDB)
		config.SetConfig(prevCfg)
		logger.Set(prevLog)
		services.SetDispatcher(prevDispatcher)
		services.SetActivityLogger(prevActivity)
		services.SetEventPublisher(prevEvents)
	})

	config.SetDB(db)
	config.SetConfig(&config.Config{GoEnv: "test", AppBaseURL: "https://atelier.test"})
	logger.Set(logger.NewTestLogger(t))
	dispatcher.SetAsMockForTesting()
	services.SetActivityLogger(services.NewGormActivityLogger(db))
	services.SetEventPublisher(events)

	customer := testutil.CreateUser(t, db, "cara", models.RoleCustomer)
	testutil.CreateUser(t, db, "sol", models.RoleStaff)

	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	call := func(user, method, path string, body interface{}) (int, map[string]interface{}) {
		t.Helper()
		var payload bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&payload).Encode(body))
		}
		req, err := http.NewRequest(method, server.URL+path, &payload)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", testutil.Auth0ID(user))

		resp, err := server.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var decoded map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		return resp.StatusCode, decoded
	}

	status, created := call("sol", "POST", "/api/v1/bespoke-orders", map[string]interface{}{
		"customer_name":  "Cara Lind",
		"customer_phone": "+45 2020 3030",
		"customer_email": "cara@example.com",
		"user_id":        customer.ID,
	})
	require.Equal(t, http.StatusCreated, status, created)
	order := created["data"].(map[string]interface{})
	assert.Equal(t, string(models.BespokeInquiry), order["status"])
	orderID := uint(order["id"].(float64))

	for _, next := range []models.BespokeStatus{
		models.BespokeConsultation,
		models.BespokeMeasurement,
		models.BespokeProduction,
		models.BespokeCompleted,
		models.BespokeDelivered,
	} {
		status, body := call("sol", "PUT", fmt.Sprintf("/api/v1/bespoke-orders/%d/status", orderID),
			map[string]interface{}{"status": next})
		require.Equal(t, http.StatusOK, status, body)
	}

	status, body := call("sol", "GET", fmt.Sprintf("/api/v1/bespoke-orders/%d/status-log", orderID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 6, "creation plus five transitions")

	status, body = call("cara", "GET", fmt.Sprintf("/api/v1/me/bespoke-orders/%d", orderID), nil)
	require.Equal(t, http.StatusOK, status)
	mine := body["data"].(map[string]interface{})
	assert.Equal(t, string(models.BespokeDelivered), mine["status"])
	assert.NotNil(t, mine["actual_completion_date"])

	assert.Len(t, dispatcher.NotifyCalls(), 5)
	assert.Len(t, dispatcher.EmailCalls(), 5)
	assert.Len(t, events.Events(), 5)

	status, body = call("cara", "GET", "/api/v1/bespoke-orders", nil)
	assert.Equal(t, http.StatusForbidden, status, body)
}

// testResponseWriter is a helper for acceptance testing
type testResponseWriter struct {
	header     http.Header
	body       []byte
	statusCode int
}

func (w *testResponseWriter) Header() http.Header {
	return w.header
}

func (w *testResponseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return len(b), nil
}

func (w *testResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
}
