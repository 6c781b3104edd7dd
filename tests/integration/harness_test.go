package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/controllers"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
	"github.com/kendall-kelly/atelier-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// workflowHarness wires the full route table to an in-memory database.
// In-app notifications go to the database; mail and events to in-memory fakes.
type workflowHarness struct {
	router *gin.Engine
	db     *gorm.DB
	mailer *services.MockMailer
	events *services.MockEventPublisher
	log    *logger.TestLogger

	customer *models.User
	tailor   *models.User
	cutter   *models.User
	manager  *models.User
}

// newWorkflowHarness installs the harness for the lifetime of t. images is
// the object store design uploads go to.
func newWorkflowHarness(t *testing.T, images services.ObjectStore, uploadDir string) *workflowHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	db := testutil.NewTestDB(t)
	h := &workflowHarness{
		db:     db,
		mailer: services.NewMockMailer(),
		events: services.NewMockEventPublisher(),
		log:    logger.NewTestLogger(t),
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
	config.SetConfig(&config.Config{GoEnv: "test", AppBaseURL: "https://atelier.test", UploadDir: uploadDir})
	logger.Set(h.log)
	services.SetDispatcher(services.NewNotificationDispatcher(db, h.mailer))
	services.SetActivityLogger(services.NewGormActivityLogger(db))
	services.SetEventPublisher(h.events)
	services.SetImageService(services.NewDesignImageService(images))

	h.customer = testutil.CreateUser(t, db, "cara", models.RoleCustomer)
	h.tailor = testutil.CreateUser(t, db, "sol", models.RoleStaff)
	h.cutter = testutil.CreateUser(t, db, "tomas", models.RoleStaff)
	h.manager = testutil.CreateUser(t, db, "ada", models.RoleAdmin)

	h.router = gin.New()
	h.router.Use(gin.Recovery())
	controllers.RegisterRoutes(h.router, testutil.HeaderAuthMiddleware())
	return h
}

// response is the common API envelope
type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

// call sends a JSON request as user and decodes the envelope
func (h *workflowHarness) call(t *testing.T, user *models.User, method, path string, body interface{}) (int, response) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User", user.Auth0ID)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decodeData(t *testing.T, env response, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}
