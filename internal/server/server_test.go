package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memobloom/memobloom/internal/auth"
	"github.com/memobloom/memobloom/internal/media"
	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/observability"
	"github.com/memobloom/memobloom/internal/store"
)

type fixture struct {
	srv     *Server
	db      *store.DB
	metrics *observability.Metrics
	patient auth.Identity
	family  auth.Identity
}

func testServer(t *testing.T) *fixture {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider := auth.NewLocalProvider(db)
	ctx := context.Background()
	patient, err := provider.Register(ctx, auth.NewAccount{
		Email: "rose@example.com", Password: "petals", Name: "Rose", Role: auth.RolePatient,
	})
	require.NoError(t, err)
	family, err := provider.Register(ctx, auth.NewAccount{
		Email: "tom@example.com", Password: "thorns", Name: "Tom", Role: auth.RoleFamily,
		PatientID: patient.UserID, Relation: "son",
	})
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("test-secret", "memobloom", time.Hour)
	require.NoError(t, err)
	lib, err := media.New(media.Options{Dir: t.TempDir(), PublicBaseURL: "http://media.test"})
	require.NoError(t, err)
	metrics := observability.NewMetrics("memobloom")

	srv := New(Deps{
		DB:       db,
		Memories: memory.NewSQLiteStore(db),
		Auth:     auth.NewService(provider, issuer, db, nil),
		Media:    lib,
		Metrics:  metrics,
		Now:      func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) },
	}, "test-version")

	return &fixture{srv: srv, db: db, metrics: metrics, patient: patient, family: family}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	w := f.do(t, "POST", "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	f := testServer(t)

	w := f.do(t, "GET", "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	decodeBody(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestLogin(t *testing.T) {
	f := testServer(t)

	w := f.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "tom@example.com", "password": "thorns"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token   string      `json:"token"`
		Profile profileJSON `json:"profile"`
	}
	decodeBody(t, w, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "Tom", body.Profile.Name)
	assert.Equal(t, "family", body.Profile.Role)
	assert.Equal(t, f.patient.UserID, body.Profile.PatientID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SignIns.WithLabelValues("ok")))
}

func TestLoginErrors(t *testing.T) {
	f := testServer(t)

	tests := []struct {
		name string
		body map[string]string
		want int
		msg  string
	}{
		{"missing fields", map[string]string{"email": "rose@example.com"}, http.StatusBadRequest, "please fill in all fields"},
		{"bad password", map[string]string{"email": "rose@example.com", "password": "nope"}, http.StatusUnauthorized, "invalid email or password"},
		{"unknown email", map[string]string{"email": "who@example.com", "password": "x"}, http.StatusUnauthorized, "invalid email or password"},
		{"wrong role", map[string]string{"email": "rose@example.com", "password": "petals", "role": "family"}, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "POST", "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.want, w.Code)
			var body map[string]string
			decodeBody(t, w, &body)
			assert.Contains(t, body["error"], tt.msg)
		})
	}
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.SignIns.WithLabelValues("rejected")))
}

func TestLoginBadJSON(t *testing.T) {
	f := testServer(t)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequiresToken(t *testing.T) {
	f := testServer(t)

	for _, path := range []string{"/api/me", "/api/memories", "/api/timeline", "/api/dashboard"} {
		w := f.do(t, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := f.do(t, "GET", "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "POST", "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "GET", "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me profileJSON
	decodeBody(t, w, &me)
	assert.Equal(t, "Rose", me.Name)
	assert.Equal(t, 16, me.FontSize)
	assert.Equal(t, "light", me.Theme)

	w = f.do(t, "PUT", "/api/me", token, map[string]any{"font_size": 20, "theme": "dark", "high_contrast": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &me)
	assert.Equal(t, "Rose", me.Name, "omitted fields keep their value")
	assert.Equal(t, 20, me.FontSize)
	assert.Equal(t, "dark", me.Theme)
	assert.True(t, me.HighContrast)

	n, err := f.db.CountActivities(f.patient.UserID, store.ActivityProfileUpdated)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProfileValidation(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "PUT", "/api/me", token, map[string]any{"email": "not-an-email", "font_size": 99, "theme": "neon"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "email must be a valid email", body.Fields["email"])
	assert.Equal(t, "font_size must be at most 32", body.Fields["font_size"])
	assert.Contains(t, body.Fields, "theme")
}

func TestProfileEmailConflict(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "tom@example.com", "thorns")

	w := f.do(t, "PUT", "/api/me", token, map[string]any{"email": "rose@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "email already in use")

	acct, err := f.db.GetAccountByEmail("tom@example.com")
	require.NoError(t, err)
	require.NotNil(t, acct, "email should be unchanged")
}

func TestMemoryCRUD(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "POST", "/api/memories", token, map[string]any{
		"title":   "  Beach day ",
		"date":    "2024-02-11",
		"type":    "photo",
		"content": "https://example.com/beach.jpg",
		"people":  []string{"Tom", " ", "Tom", "Ann"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created memory.Record
	decodeBody(t, w, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Beach day", created.Title)
	assert.Equal(t, []string{"Tom", "Ann"}, created.People)
	assert.Equal(t, f.patient.UserID, created.OwnerID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MemoriesSaved.WithLabelValues("create", "photo")))

	w = f.do(t, "GET", "/api/memories/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Memory memory.Record  `json:"memory"`
		Card   map[string]any `json:"card"`
	}
	decodeBody(t, w, &got)
	assert.Equal(t, "Beach day", got.Memory.Title)
	assert.Equal(t, "February 11, 2024", got.Card["date_label"])

	w = f.do(t, "PUT", "/api/memories/"+created.ID, token, map[string]any{"title": "Beach afternoon"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated memory.Record
	decodeBody(t, w, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Beach afternoon", updated.Title)
	assert.Equal(t, "2024-02-11", updated.Date, "unchanged fields survive a partial update")

	w = f.do(t, "GET", "/api/memories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = f.do(t, "DELETE", "/api/memories/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/api/memories/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, "DELETE", "/api/memories/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMemoryValidation(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "POST", "/api/memories", token, map[string]any{
		"date": "2024-02-11",
		"type": "photo",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "Please enter a title for your memory", body.Fields["title"])
	assert.Equal(t, "Please upload a photo", body.Fields["content"])
	assert.NotEmpty(t, body.Error)
}

func TestFamilySharesPatientMemories(t *testing.T) {
	f := testServer(t)
	family := f.login(t, "tom@example.com", "thorns")
	patient := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "POST", "/api/memories", family, map[string]any{
		"title": "Sunday lunch", "date": "2024-03-03", "type": "text", "content": "Roast and stories.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec memory.Record
	decodeBody(t, w, &rec)
	assert.Equal(t, f.patient.UserID, rec.OwnerID)
	assert.Equal(t, f.family.UserID, rec.CreatedBy)

	w = f.do(t, "GET", "/api/memories/"+rec.ID, patient, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimelineViews(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	for _, m := range []map[string]any{
		{"title": "Garden", "date": "2024-03-05", "type": "text", "content": "Tulips came up."},
		{"title": "Beach", "date": "2024-02-11", "type": "photo", "content": "media://beach.jpg"},
		{"title": "Market", "date": "2024-03-01", "type": "text", "content": "Bought pears."},
	} {
		w := f.do(t, "POST", "/api/memories", token, m)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := f.do(t, "GET", "/api/timeline?view=timeline", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tl struct {
		View   string `json:"view"`
		Empty  bool   `json:"empty"`
		Total  int    `json:"total"`
		Groups []struct {
			Label     string `json:"label"`
			Connector bool   `json:"connector"`
			Items     []struct {
				Marker int `json:"marker"`
				Card   struct {
					Title   string         `json:"title"`
					Content map[string]any `json:"content"`
				} `json:"card"`
			} `json:"items"`
		} `json:"groups"`
	}
	decodeBody(t, w, &tl)
	assert.Equal(t, "timeline", tl.View)
	assert.False(t, tl.Empty)
	assert.Equal(t, 3, tl.Total)
	require.Len(t, tl.Groups, 2)
	assert.Equal(t, "March 2024", tl.Groups[0].Label)
	assert.Equal(t, "February 2024", tl.Groups[1].Label)
	assert.True(t, tl.Groups[0].Connector)
	require.Len(t, tl.Groups[0].Items, 2)
	assert.Equal(t, "Garden", tl.Groups[0].Items[0].Card.Title)
	assert.Equal(t, 5, tl.Groups[0].Items[0].Marker)
	assert.Equal(t, "http://media.test/media/beach.jpg", tl.Groups[1].Items[0].Card.Content["uri"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TimelineBuilds.WithLabelValues("timeline")))

	w = f.do(t, "GET", "/api/timeline?view=carousel", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimelineEmpty(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "GET", "/api/timeline", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tl struct {
		View    string `json:"view"`
		Empty   bool   `json:"empty"`
		Message string `json:"message"`
	}
	decodeBody(t, w, &tl)
	assert.Equal(t, "grid", tl.View)
	assert.True(t, tl.Empty)
	assert.NotEmpty(t, tl.Message)
}

func TestDashboard(t *testing.T) {
	f := testServer(t)
	patient := f.login(t, "rose@example.com", "petals")

	w := f.do(t, "POST", "/api/memories", patient, map[string]any{
		"title": "Garden", "date": "2024-03-05", "type": "text", "content": "Tulips.", "people": []string{"Tom"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, "POST", "/api/activities/routine", patient, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	family := f.login(t, "tom@example.com", "thorns")
	w = f.do(t, "GET", "/api/dashboard", family, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var d struct {
		Greeting    string `json:"greeting"`
		Role        string `json:"role"`
		PatientName string `json:"patient_name"`
		LastActive  string `json:"last_active"`
		Stats       struct {
			Total         int `json:"total"`
			Texts         int `json:"texts"`
			People        int `json:"people"`
			FamilyMembers int `json:"family_members"`
			Routines      int `json:"routines_completed"`
		} `json:"stats"`
		Recent     []map[string]any `json:"recent"`
		Activities []struct {
			Kind  string `json:"kind"`
			Title string `json:"title"`
		} `json:"activities"`
	}
	decodeBody(t, w, &d)
	assert.Equal(t, "Good morning!", d.Greeting)
	assert.Equal(t, "family", d.Role)
	assert.Equal(t, "Rose", d.PatientName)
	assert.NotEmpty(t, d.LastActive)
	assert.NotEqual(t, "never", d.LastActive)
	assert.Equal(t, 1, d.Stats.Total)
	assert.Equal(t, 1, d.Stats.Texts)
	assert.Equal(t, 1, d.Stats.People)
	assert.Equal(t, 1, d.Stats.FamilyMembers)
	assert.Equal(t, 1, d.Stats.Routines)
	assert.Len(t, d.Recent, 1)

	kinds := make(map[string]bool)
	for _, a := range d.Activities {
		kinds[a.Kind] = true
	}
	assert.True(t, kinds[store.ActivityMemoryAdded])
	assert.True(t, kinds[store.ActivityRoutineCompleted])
}

func TestRoutinePatientOnly(t *testing.T) {
	f := testServer(t)
	family := f.login(t, "tom@example.com", "thorns")

	w := f.do(t, "POST", "/api/activities/routine", family, map[string]string{"title": "Walk"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	patient := f.login(t, "rose@example.com", "petals")
	w = f.do(t, "POST", "/api/activities/routine", patient, map[string]string{"title": "Morning walk"})
	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Morning walk", body["title"])
}

func uploadRequest(t *testing.T, token, kind string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", kind))
	fw, err := mw.CreateFormFile("file", "upload.bin")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadPhoto(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, uploadRequest(t, token, "photo", img.Bytes()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var saved media.Saved
	decodeBody(t, w, &saved)
	assert.True(t, strings.HasPrefix(saved.Ref, "media://"))
	assert.Equal(t, "image/png", saved.MIME)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MediaUploads.WithLabelValues("photo", "ok")))

	// The stored file is served back under /media/.
	req := httptest.NewRequest("GET", "/media/"+saved.Name, nil)
	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, img.Bytes(), w.Body.Bytes())
}

func TestMediaDirNotListed(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, uploadRequest(t, token, "photo", img.Bytes()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved media.Saved
	decodeBody(t, w, &saved)

	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, httptest.NewRequest("GET", "/media/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), saved.Name)

	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, httptest.NewRequest("GET", "/media/"+saved.Name, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadRejectsMismatchedKind(t *testing.T) {
	f := testServer(t)
	token := f.login(t, "rose@example.com", "petals")

	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, uploadRequest(t, token, "photo", []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MediaUploads.WithLabelValues("photo", "rejected")))

	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, uploadRequest(t, token, "video", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownAPIRoute(t *testing.T) {
	f := testServer(t)

	w := f.do(t, "GET", "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "not found", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := testServer(t)
	f.do(t, "GET", "/api/health", "", nil)

	w := f.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memobloom_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/api/health"`)
}

func TestCORSPreflight(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	srv := New(Deps{DB: db, AllowedOrigins: []string{"http://localhost:5173"}}, "test")

	req := httptest.NewRequest("OPTIONS", "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
