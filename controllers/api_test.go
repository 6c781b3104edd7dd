package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
	"github.com/kendall-kelly/atelier-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testAPI is the full route table backed by an in-memory database. Requests
// authenticate as the user named in the X-Test-User header.
type testAPI struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *services.MockDispatcher
	events     *services.MockEventPublisher
	images     *services.MockObjectStore
	log        *logger.TestLogger

	customer *models.User
	staff    *models.User
	staff2   *models.User
	admin    *models.User
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	api := &testAPI{
		db:         db,
		dispatcher: services.NewMockDispatcher(),
		events:     services.NewMockEventPublisher(),
		images:     services.NewMockObjectStore(),
		log:        logger.NewTestLogger(t),
	}

	prevDB, prevCfg, prevLog := config.GetDB(), config.GetConfig(), logger.Get()
	prevDispatcher, prevActivity, prevEvents, prevImages := services.GetDispatcher(), services.GetActivityLogger(), services.GetEventPublisher(), services.GetImageService()
	t.Cleanup(func() {
		config.SetDB(prevDB)
		config.SetConfig(prevCfg)
		logger.Set(prevLog)
		services.SetDispatcher(prevDispatcher)
		services.SetActivityLogger(prevActivity)
		services.SetEventPublisher(prevEvents)
		services.SetImageService(prevImages)
	})

	config.SetDB(db)
	config.SetConfig(&config.Config{GoEnv: "test", AppBaseURL: "https://atelier.test", UploadDir: t.TempDir()})
	logger.Set(api.log)
	api.dispatcher.SetAsMockForTesting()
	services.SetActivityLogger(services.NewGormActivityLogger(db))
	services.SetEventPublisher(api.events)
	api.images.SetAsMockForTesting()

	api.customer = testutil.CreateUser(t, db, "cara", models.RoleCustomer)
	api.staff = testutil.CreateUser(t, db, "sol", models.RoleStaff)
	api.staff2 = testutil.CreateUser(t, db, "tomas", models.RoleStaff)
	api.admin = testutil.CreateUser(t, db, "ada", models.RoleAdmin)

	api.router = gin.New()
	RegisterRoutes(api.router, testutil.HeaderAuthMiddleware())
	return api
}

// envelope is the common response shape
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
	} `json:"pagination"`
	Error *struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
	} `json:"error"`
}

// do sends a JSON request as user (nil for anonymous) and decodes the envelope.
func (api *testAPI) do(t *testing.T, user *models.User, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User", user.Auth0ID)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// decode unmarshals the envelope data into v
func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// createOrder creates an order for the fixture customer through the API
func (api *testAPI) createOrder(t *testing.T) models.BespokeOrder {
	t.Helper()
	w, env := api.do(t, api.staff, http.MethodPost, "/api/v1/bespoke-orders", gin.H{
		"customer_name":  "Cara Quinn",
		"customer_phone": "+44 20 7946 0000",
		"customer_email": "cara@example.com",
		"user_id":        api.customer.ID,
		"internal_notes": "pays in two instalments",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.BespokeOrder
	decode(t, env, &order)
	return order
}
