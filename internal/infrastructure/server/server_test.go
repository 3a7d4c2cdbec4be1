package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/restoreview/core/internal/adapters/repository"
	"github.com/restoreview/core/internal/infrastructure/config"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/infrastructure/metrics"
)

type testServer struct {
	srv   *Server
	store *repository.DocumentStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		App: config.AppConfig{Name: "restoreview", Version: "test", Environment: "test"},
		Storage: config.StorageConfig{
			DataFile:       filepath.Join(dir, "data.json"),
			UploadDir:      filepath.Join(dir, "uploads"),
			MaxUploadBytes: 64,
		},
		JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "restoreview-test"},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  1000,
			RateLimitWindow:    time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	m := metrics.New()
	store, err := repository.NewDocumentStore(cfg.Storage.DataFile, repository.WithSaveObserver(m.ObserveDocumentWrite))
	if err != nil {
		t.Fatal(err)
	}

	srv, err := New(cfg, store, m, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{srv: srv, store: store}
}

func (ts *testServer) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, httptest.NewRequest(http.MethodGet, target, nil), cookies...)
}

func (ts *testServer) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(t, req)
}

func (ts *testServer) postJSON(t *testing.T, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.postJSONAuth(t, target, body, "")
}

func (ts *testServer) postJSONAuth(t *testing.T, target, body, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return ts.do(t, req)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No restaurants yet.") {
		t.Errorf("empty index body:\n%s", rec.Body.String())
	}

	if _, err := ts.store.AddRestaurant("Čili Pica", "Rīga", "pizza"); err != nil {
		t.Fatal(err)
	}
	body := ts.get(t, "/").Body.String()
	if !strings.Contains(body, "Čili Pica") || !strings.Contains(body, "/restaurant/%C4%8Cili%20Pica") {
		t.Errorf("restaurant not listed:\n%s", body)
	}
}

func TestAddRestaurant(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm(t, "/add_restaurant", url.Values{
		"name":        {"Pelmeni"},
		"address":     {"Kaļķu iela 7"},
		"description": {"dumplings"},
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q", loc)
	}

	flash := cookieNamed(rec, "flash")
	if flash == nil {
		t.Fatal("no flash cookie")
	}
	page := ts.get(t, "/", flash)
	if !strings.Contains(page.Body.String(), "Restaurant Pelmeni added!") {
		t.Errorf("flash not shown:\n%s", page.Body.String())
	}
	if cleared := cookieNamed(page, "flash"); cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("flash cookie not cleared: %+v", cleared)
	}

	restaurants := ts.store.ListRestaurants()
	if len(restaurants) != 1 || restaurants[0].ID != 1 || restaurants[0].Address != "Kaļķu iela 7" {
		t.Errorf("stored restaurants = %+v", restaurants)
	}
}

func TestAddRestaurantMissingFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm(t, "/add_restaurant", url.Values{"name": {"Pelmeni"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/add_restaurant" {
		t.Errorf("Location = %q", loc)
	}
	if n := ts.store.Stats().Restaurants; n != 0 {
		t.Errorf("restaurants = %d, want 0", n)
	}

	page := ts.get(t, "/add_restaurant", cookieNamed(rec, "flash"))
	if !strings.Contains(page.Body.String(), "Please fill in all fields.") {
		t.Errorf("flash not shown:\n%s", page.Body.String())
	}
}

func TestViewRestaurant(t *testing.T) {
	ts := newTestServer(t)
	r, _ := ts.store.AddRestaurant("Čili Pica", "Rīga", "")
	if _, err := ts.store.AddReview(0, r.ID, json.RawMessage(`"4"`), "good crust"); err != nil {
		t.Fatal(err)
	}

	rec := ts.get(t, "/restaurant/%C4%8Cili%20Pica")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "good crust") {
		t.Errorf("review missing:\n%s", rec.Body.String())
	}

	visited := cookieNamed(rec, "last_visited")
	if visited == nil {
		t.Fatal("no last_visited cookie")
	}
	if visited.Value != url.QueryEscape("Čili Pica") {
		t.Errorf("last_visited = %q", visited.Value)
	}

	index := ts.get(t, "/", visited)
	if !strings.Contains(index.Body.String(), "Last visited: <a href=\"/restaurant/%C4%8Cili%20Pica\">Čili Pica</a>") {
		t.Errorf("last visited not shown:\n%s", index.Body.String())
	}
}

func TestRestaurantNamesWithReservedCharacters(t *testing.T) {
	ts := newTestServer(t)

	names := []string{"a%41", "Pizza 50%", "Kafe/Bārs", "Čili Pica", "50%2F50"}
	for _, name := range names {
		if _, err := ts.store.AddRestaurant(name, "addr", ""); err != nil {
			t.Fatal(err)
		}
	}
	// a name that only matches after decoding twice
	if _, err := ts.store.AddRestaurant("aA", "addr", ""); err != nil {
		t.Fatal(err)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			escaped := url.PathEscape(name)

			rec := ts.get(t, "/restaurant/"+escaped)
			if rec.Code != http.StatusOK {
				t.Fatalf("GET /restaurant/%s: status = %d", escaped, rec.Code)
			}
			if visited := cookieNamed(rec, "last_visited"); visited == nil || visited.Value != url.QueryEscape(name) {
				t.Errorf("last_visited = %+v", visited)
			}

			if rec := ts.get(t, "/add_review/"+escaped); rec.Code != http.StatusOK {
				t.Errorf("GET /add_review/%s: status = %d", escaped, rec.Code)
			}

			rec = ts.postForm(t, "/add_review/"+escaped, url.Values{"rating": {"5"}, "comment": {"ok"}})
			if rec.Code != http.StatusFound {
				t.Fatalf("POST /add_review/%s: status = %d", escaped, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/restaurant/"+escaped {
				t.Errorf("Location = %q", loc)
			}
		})
	}

	r, _ := ts.store.FindRestaurantByName("aA")
	if n := len(ts.store.ListReviewsFor(r.ID)); n != 0 {
		t.Errorf("review for a%%41 landed on aA: %d reviews", n)
	}
}

func TestViewRestaurantNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{"/restaurant/Nowhere", "/add_review/Nowhere"} {
		rec := ts.get(t, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
		if rec.Body.String() != "Restaurant not found" {
			t.Errorf("%s: body = %q", target, rec.Body.String())
		}
		if cookieNamed(rec, "last_visited") != nil {
			t.Errorf("%s: last_visited set for unknown restaurant", target)
		}
	}
}

func TestAddReview(t *testing.T) {
	ts := newTestServer(t)
	r, _ := ts.store.AddRestaurant("Pelmeni", "Kaļķu iela 7", "")

	rec := ts.postForm(t, "/add_review/Pelmeni", url.Values{"rating": {"5"}, "comment": {"Great"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/restaurant/Pelmeni" {
		t.Errorf("Location = %q", loc)
	}

	reviews := ts.store.ListReviewsFor(r.ID)
	if len(reviews) != 1 {
		t.Fatalf("reviews = %+v", reviews)
	}
	if string(reviews[0].Rating) != `"5"` || reviews[0].Comment != "Great" || reviews[0].UserID != 0 {
		t.Errorf("stored review = %+v", reviews[0])
	}

	page := ts.get(t, "/restaurant/Pelmeni", cookieNamed(rec, "flash"))
	if !strings.Contains(page.Body.String(), "Review for Pelmeni added!") {
		t.Errorf("flash not shown:\n%s", page.Body.String())
	}
}

func TestAddReviewMissingFields(t *testing.T) {
	ts := newTestServer(t)
	ts.store.AddRestaurant("Pelmeni", "Kaļķu iela 7", "")

	for _, form := range []url.Values{
		{"rating": {"5"}},
		{"comment": {"Great"}},
		{},
	} {
		rec := ts.postForm(t, "/add_review/Pelmeni", form)
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/add_review/Pelmeni" {
			t.Errorf("Location = %q", loc)
		}
		page := ts.get(t, "/add_review/Pelmeni", cookieNamed(rec, "flash"))
		if !strings.Contains(page.Body.String(), "Please fill in both fields.") {
			t.Errorf("flash not shown for %v", form)
		}
	}

	if n := ts.store.Stats().Reviews; n != 0 {
		t.Errorf("reviews = %d, want 0", n)
	}
}

func TestAllReviews(t *testing.T) {
	ts := newTestServer(t)
	a, _ := ts.store.AddRestaurant("A", "x", "")
	b, _ := ts.store.AddRestaurant("B", "y", "")
	ts.store.AddReview(0, b.ID, json.RawMessage(`"3"`), "fine")
	ts.store.AddReview(0, a.ID, json.RawMessage(`5`), "superb")

	body := ts.get(t, "/all_reviews").Body.String()
	for _, want := range []string{"<td>B</td><td>3</td><td>fine</td>", "<td>A</td><td>5</td><td>superb</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
	if strings.Index(body, "fine") > strings.Index(body, "superb") {
		t.Error("reviews not in stored order")
	}
}

func TestAPIRestaurants(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, "/api/v1/restaurants", `{"name":"Pelmeni"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var errResp struct {
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatal(err)
	}
	if len(errResp.Fields) != 1 || errResp.Fields[0] != "address" {
		t.Errorf("fields = %v", errResp.Fields)
	}

	rec = ts.postJSON(t, "/api/v1/restaurants", `{"name":"Pelmeni","address":"Kaļķu iela 7"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.postJSON(t, "/api/v1/restaurants/1/reviews", `{"rating":4.5,"comment":"tasty"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("review status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.get(t, "/api/v1/restaurants/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var detail struct {
		Restaurant struct {
			Name string `json:"name"`
		} `json:"restaurant"`
		Reviews []struct {
			Rating json.RawMessage `json:"rating"`
		} `json:"reviews"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Restaurant.Name != "Pelmeni" || len(detail.Reviews) != 1 || string(detail.Reviews[0].Rating) != "4.5" {
		t.Errorf("detail = %+v", detail)
	}

	for target, want := range map[string]int{
		"/api/v1/restaurants/99":         http.StatusNotFound,
		"/api/v1/restaurants/99/reviews": http.StatusNotFound,
		"/api/v1/restaurants/abc":        http.StatusBadRequest,
	} {
		if rec := ts.get(t, target); rec.Code != want {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, want)
		}
	}

	if rec := ts.postJSON(t, "/api/v1/restaurants/99/reviews", `{"rating":"5","comment":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("review for unknown restaurant: status = %d", rec.Code)
	}
}

func TestAPIUsers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, "/api/v1/users", `{"username":"anna","password":"correct horse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("password hash leaked: %s", rec.Body.String())
	}

	if rec := ts.postJSON(t, "/api/v1/users", `{"username":"Anna"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d", rec.Code)
	}
	if rec := ts.postJSON(t, "/api/v1/users", `{"username":"al"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("short username: status = %d", rec.Code)
	}

	list := ts.get(t, "/api/v1/users")
	if list.Code != http.StatusOK || strings.Contains(list.Body.String(), "password_hash") {
		t.Errorf("list = %d %s", list.Code, list.Body.String())
	}
}

func TestLoginAndBearerReview(t *testing.T) {
	ts := newTestServer(t)
	if _, err := ts.store.AddRestaurant("Pelmeni", "Kaļķu iela 7", ""); err != nil {
		t.Fatal(err)
	}

	if rec := ts.postJSON(t, "/api/v1/users", `{"username":"bo","password":"first-password"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register bo: status = %d", rec.Code)
	}
	rec := ts.postJSON(t, "/api/v1/users", `{"username":"anna","password":"correct horse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d: %s", rec.Code, rec.Body.String())
	}
	var user struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatal(err)
	}

	for body, want := range map[string]int{
		`{"username":"anna","password":"wrong horse"}`:     http.StatusUnauthorized,
		`{"username":"nobody","password":"correct horse"}`: http.StatusUnauthorized,
		`{"username":"anna"}`:                              http.StatusBadRequest,
	} {
		if rec := ts.postJSON(t, "/api/v1/auth/login", body); rec.Code != want {
			t.Errorf("login %s: status = %d, want %d", body, rec.Code, want)
		}
	}

	rec = ts.postJSON(t, "/api/v1/auth/login", `{"username":"anna","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Errorf("password hash leaked: %s", rec.Body.String())
	}
	var auth struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &auth); err != nil {
		t.Fatal(err)
	}
	if auth.TokenType != "Bearer" || auth.AccessToken == "" {
		t.Fatalf("auth response = %+v", auth)
	}

	// the token wins over a user_id in the body
	rec = ts.postJSONAuth(t, "/api/v1/restaurants/1/reviews", `{"user_id":1,"rating":5,"comment":"as anna"}`, "Bearer "+auth.AccessToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("bearer review: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.postJSON(t, "/api/v1/restaurants/1/reviews", `{"rating":"3","comment":"anonymous"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("anonymous review: status = %d: %s", rec.Code, rec.Body.String())
	}

	for _, header := range []string{"Bearer not-a-token", "Basic YW5uYTp4", "Bearer "} {
		rec := ts.postJSONAuth(t, "/api/v1/restaurants/1/reviews", `{"rating":1,"comment":"rejected"}`, header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d", header, rec.Code)
		}
	}

	reviews := ts.store.ListReviewsFor(1)
	if len(reviews) != 2 {
		t.Fatalf("reviews = %+v", reviews)
	}
	if reviews[0].UserID != user.ID || reviews[0].Comment != "as anna" {
		t.Errorf("bearer review = %+v, want user_id %d", reviews[0], user.ID)
	}
	if reviews[1].UserID != 0 {
		t.Errorf("anonymous review user_id = %d", reviews[1].UserID)
	}
}

func upload(t *testing.T, ts *testServer, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.do(t, req)
}

func TestAPIImages(t *testing.T) {
	ts := newTestServer(t)
	ts.store.AddRestaurant("Pelmeni", "Kaļķu iela 7", "")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

	rec := upload(t, ts, "/api/v1/restaurants/1/images", "front.png", png)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var image struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &image); err != nil {
		t.Fatal(err)
	}
	if image.ContentType != "image/png" || image.Size != int64(len(png)) || !strings.HasSuffix(image.Filename, ".png") {
		t.Errorf("image = %+v", image)
	}

	served := ts.get(t, "/uploads/"+image.Filename)
	if served.Code != http.StatusOK || !bytes.Equal(served.Body.Bytes(), png) {
		t.Errorf("stored file not served: %d", served.Code)
	}

	list := ts.get(t, "/api/v1/restaurants/1/images")
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), image.Filename) {
		t.Errorf("list = %d %s", list.Code, list.Body.String())
	}

	if rec := upload(t, ts, "/api/v1/restaurants/1/images", "notes.txt", []byte("just text")); rec.Code != http.StatusBadRequest {
		t.Errorf("text upload: status = %d", rec.Code)
	}
	big := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 100)...)
	if rec := upload(t, ts, "/api/v1/restaurants/1/images", "big.png", big); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large upload: status = %d", rec.Code)
	}
	if rec := upload(t, ts, "/api/v1/restaurants/9/images", "front.png", png); rec.Code != http.StatusNotFound {
		t.Errorf("unknown restaurant: status = %d", rec.Code)
	}
	if n := ts.store.Stats().Images; n != 1 {
		t.Errorf("images = %d, want 1", n)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{"/health", "/ready", "/health/detailed"} {
		if rec := ts.get(t, target); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}

	ts.postForm(t, "/add_restaurant", url.Values{"name": {"A"}, "address": {"x"}})

	out := ts.get(t, "/metrics").Body.String()
	for _, want := range []string{
		`document_writes_total{op="add_restaurant",result="ok"} 1`,
		`document_records{collection="restaurants"} 1`,
		`http_requests_total{method="POST",path="/add_restaurant",status="302"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in metrics", want)
		}
	}
}
