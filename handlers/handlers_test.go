package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"pixeltrack/api/middleware"
	"pixeltrack/api/models"
	"pixeltrack/api/tracking"
)

const (
	ownerID      = 7
	activePixel  = "7b0f6a52-3c1e-4d7a-9f55-2f4b8f1c0a11"
	pausedPixel  = "0e3c8f2d-91a4-4b6e-8c1d-5a7e2b9f4c33"
	foreignPixel = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	visitorID    = "5d9c2a1e-7b3f-4e8d-a6c0-1f2e3d4c5b6a"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePixels struct {
	mu      sync.Mutex
	pixels  map[string]*models.Pixel
	created []*models.Pixel
	updated []models.Pixel
	err     error
}

func newFakePixels() *fakePixels {
	return &fakePixels{pixels: map[string]*models.Pixel{
		activePixel:  {ID: activePixel, AccountID: ownerID, Name: "Shop", Domain: "shop.example", Status: models.PixelActive},
		pausedPixel:  {ID: pausedPixel, AccountID: ownerID, Name: "Blog", Domain: "blog.example", Status: models.PixelPaused},
		foreignPixel: {ID: foreignPixel, AccountID: ownerID + 1, Name: "Other", Domain: "other.example", Status: models.PixelActive},
	}}
}

func (f *fakePixels) Create(_ context.Context, p *models.Pixel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, p)
	f.pixels[p.ID] = p
	return nil
}

func (f *fakePixels) Get(_ context.Context, id string) (*models.Pixel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.pixels[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (f *fakePixels) Update(_ context.Context, p *models.Pixel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.pixels[p.ID]; !ok {
		return models.ErrNotFound
	}
	f.updated = append(f.updated, *p)
	f.pixels[p.ID] = p
	return nil
}

func (f *fakePixels) ListByAccount(_ context.Context, accountID int) ([]models.Pixel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Pixel
	for _, id := range []string{activePixel, pausedPixel, foreignPixel} {
		if p := f.pixels[id]; p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeIngester struct {
	got tracking.IngestRequest
	err error
}

func (f *fakeIngester) Ingest(_ context.Context, req tracking.IngestRequest) (tracking.Result, error) {
	f.got = req
	if f.err != nil {
		return tracking.Result{}, f.err
	}
	return tracking.Result{
		Visitor:         &models.Visitor{ID: visitorID, PixelID: req.PixelID},
		PageView:        &models.PageView{ID: "pv-1", VisitorID: visitorID, PixelID: req.PixelID, URL: req.URL},
		FirstForSession: true,
	}, nil
}

type fakeLeads struct {
	got   *models.Lead
	limit int
	err   error
}

func (f *fakeLeads) Create(_ context.Context, l *models.Lead) error {
	f.got = l
	return f.err
}

func (f *fakeLeads) ListByPixel(_ context.Context, pixelID string, limit int) ([]models.Lead, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []models.Lead{{ID: "lead-1", VisitorID: visitorID, PixelID: pixelID, Source: "form"}}, nil
}

type fakeVisitors struct {
	limit int
}

func (f *fakeVisitors) ListByPixel(_ context.Context, pixelID string, limit int) ([]models.Visitor, error) {
	f.limit = limit
	return []models.Visitor{{ID: visitorID, PixelID: pixelID, VisitCount: 2}}, nil
}

type fakeDashboard struct {
	summaryIDs []string
	days       int
	err        error
}

func (f *fakeDashboard) Summary(_ context.Context, ids []string) (models.DashboardSummary, error) {
	f.summaryIDs = ids
	return models.DashboardSummary{TotalPageViews: 3, UniqueVisitors: 2, LeadsCapture: 1, ConversionRate: 50}, f.err
}

func (f *fakeDashboard) Traffic(_ context.Context, _ string, days int) ([]models.TrafficPoint, error) {
	f.days = days
	if f.err != nil {
		return nil, f.err
	}
	return []models.TrafficPoint{{Date: time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC), PageViews: 3, UniqueVisitors: 2}}, nil
}

func (f *fakeDashboard) Geographic(context.Context, string) ([]models.GeoCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.GeoCount{{Country: "Germany", Count: 2}}, nil
}

type fakeRollups struct {
	from, to time.Time
}

func (f *fakeRollups) GetDailyAggregates(_ context.Context, pixelID string, from, to time.Time) ([]models.DailyAggregate, error) {
	f.from, f.to = from, to
	return []models.DailyAggregate{{PixelID: pixelID, Date: to, PageViews: 4}}, nil
}

var errStore = errors.New("store unavailable")

// asUser stands in for AuthRequired.
func asUser(id int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari")
	req.RemoteAddr = "81.2.69.160:40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	return v
}
