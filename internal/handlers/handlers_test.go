package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/internal/storage"
	"github.com/mvibe/marketplace/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testUploadLimit = 64 << 10

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-testing")
}

// testApp is a router wired like the server, backed by in-memory SQLite,
// a temp-dir object store and an in-process view queue.
type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	queue  *services.SyncQueue
	hub    *services.SSEHub
	store  *storage.LocalStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := models.NewTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	queue := services.NewSyncQueue(services.NewProjectService(db).ProcessView)
	hub := services.NewSSEHub()

	auth := middleware.NewAuthenticator(services.NewAuthService(db), "/login")
	projects := NewProjectHandler(db, queue, hub)
	reviews := NewReviewHandler(db, hub)
	uploads := NewUploadHandler(db, store, hub, testUploadLimit)
	profiles := NewProfileHandler(db, hub)
	authHandler := NewAuthHandler(db)

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, nil, queue, hub).CheckHealth)
	r.GET("/metrics", NewMetricsHandler(db, nil, queue, hub).Metrics)

	api := r.Group("/api")
	public := api.Group("", auth.Optional())
	public.GET("/projects", projects.List)
	public.GET("/projects/:id", projects.GetByID)
	public.GET("/projects/:id/permissions", projects.Permissions)
	public.GET("/projects/:id/reviews", reviews.List)
	public.GET("/profile/palette", profiles.Palette)
	public.GET("/profiles/:id", profiles.GetByID)

	api.POST("/projects/:id/reviews", auth.Required(MsgSignInToReview), reviews.Submit)

	protected := api.Group("", auth.Required(""))
	protected.GET("/auth/me", authHandler.GetCurrentUser)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/projects", projects.Create)
	protected.PUT("/projects/:id", projects.Update)
	protected.DELETE("/projects/:id", projects.Delete)
	protected.POST("/projects/:id/screenshots", uploads.AddScreenshot)
	protected.DELETE("/projects/:id/screenshots/:index", uploads.RemoveScreenshot)
	protected.POST("/uploads", uploads.Upload)
	protected.GET("/profile", profiles.Get)
	protected.PUT("/profile/color", profiles.UpdateColor)
	protected.GET("/profile/projects", projects.ListMine)
	protected.GET("/profile/activity", profiles.Activity)

	return &testApp{db: db, router: r, queue: queue, hub: hub, store: store}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, userID+"@example.com", utils.UserMetadata{
		FullName: "User " + userID,
		UserName: userID,
	}, 1)
	require.NoError(t, err)
	return token
}

// envelope mirrors response.Response with a lazily decoded payload.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path, userID string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.serve(t, req, userID)
}

func (a *testApp) upload(t *testing.T, path, userID string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "shot.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(t, req, userID)
}

func (a *testApp) serve(t *testing.T, req *http.Request, userID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func (a *testApp) seedProject(t *testing.T, owner, title string, views int64, createdAt time.Time, shots ...string) *models.Project {
	t.Helper()
	p := &models.Project{
		UserID:      owner,
		Title:       title,
		URL:         "https://example.com/" + title,
		Description: title + " app",
		Views:       views,
		CreatedAt:   createdAt,
		Screenshots: shots,
	}
	require.NoError(t, a.db.Create(p).Error)
	return p
}

// pngBytes is a PNG signature followed by an IHDR chunk, enough for sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

// subscribe attaches a test client to the hub and returns its channel.
func (a *testApp) subscribe(t *testing.T) <-chan services.CatalogEvent {
	t.Helper()
	ch := a.hub.Subscribe("test-"+t.Name(), "")
	t.Cleanup(func() { a.hub.Unsubscribe("test-" + t.Name()) })
	return ch
}

func nextEvent(t *testing.T, ch <-chan services.CatalogEvent) services.CatalogEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no catalog event published")
		return services.CatalogEvent{}
	}
}
