package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
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

// atelier is a running copy of the API plus a fake Auth0 tenant. Requests
// authenticate as the Auth0 subject in X-Test-User.
type atelier struct {
	server *httptest.Server
	auth0  *httptest.Server
	db     *gorm.DB
	mailer *services.MockMailer
	events *services.MockEventPublisher
	images *services.MockObjectStore

	// profile is what the fake tenant's /userinfo returns; nil means 401
	profile *services.Auth0UserInfo
}

func startAtelier(t *testing.T) *atelier {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	a := &atelier{
		db:     testutil.NewTestDB(t),
		mailer: services.NewMockMailer(),
		events: services.NewMockEventPublisher(),
		images: services.NewMockObjectStore(),
	}

	a.auth0 = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" || r.Header.Get("Authorization") != "Bearer mock-token" || a.profile == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.profile)
	}))
	t.Cleanup(a.auth0.Close)

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

	config.SetDB(a.db)
	config.SetConfig(&config.Config{
		GoEnv:       "test",
		AppBaseURL:  "https://atelier.test",
		Auth0Domain: a.auth0.URL,
		UploadDir:   t.TempDir(),
	})
	logger.Set(logger.NewTestLogger(t))
	services.SetDispatcher(services.NewNotificationDispatcher(a.db, a.mailer))
	services.SetActivityLogger(services.NewGormActivityLogger(a.db))
	services.SetEventPublisher(a.events)
	a.images.SetAsMockForTesting()

	router := gin.New()
	router.Use(gin.Recovery())
	controllers.RegisterRoutes(router, testutil.HeaderAuthMiddleware())

	a.server = httptest.NewServer(router)
	t.Cleanup(a.server.Close)
	return a
}

// reply is the decoded API envelope
type reply struct {
	Status  int             `json:"-"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// as sends a JSON request to the running server as the given Auth0 subject
func (a *atelier) as(t *testing.T, subject, method, path string, body interface{}) reply {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-Test-User", subject)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := reply{Status: resp.StatusCode}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (r reply) into(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

// seedUser inserts a registered user directly
func (a *atelier) seedUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, a.db, name, role)
}

// uploadSketch posts a design image over HTTP and returns the status and raw body
func (a *atelier) uploadSketch(t *testing.T, subject string, orderID uint, filename string, content []byte) (int, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/v1/bespoke-orders/%d/design-image", a.server.URL, orderID), body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Test-User", subject)

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}
