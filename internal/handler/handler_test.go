package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/impact-dashboard/internal/leaderboard"
	"github.com/mmeshcher/impact-dashboard/internal/middleware"
	"github.com/mmeshcher/impact-dashboard/internal/model"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
	"github.com/mmeshcher/impact-dashboard/internal/repository"
	"github.com/mmeshcher/impact-dashboard/internal/service"
	"github.com/mmeshcher/impact-dashboard/internal/store"
)

type stubService struct {
	leaderboardResp  []leaderboard.RankedEntry
	leaderboardErr   error
	leaderboardLimit int

	createResp model.Record
	createErr  error

	deleteErr error
}

func (s *stubService) Leaderboard(ctx context.Context, role model.Role, limit int) ([]leaderboard.RankedEntry, error) {
	s.leaderboardLimit = limit
	return s.leaderboardResp, s.leaderboardErr
}

func (s *stubService) Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error) {
	return s.createResp, s.createErr
}

func (s *stubService) Delete(ctx context.Context, collection model.Collection, id string) error {
	return s.deleteErr
}

type stubFetcher struct {
	mu    sync.Mutex
	data  map[model.Collection][]model.Record
	err   error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, collection model.Collection, query url.Values) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data[collection], nil
}

func (f *stubFetcher) Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error) {
	return nil, errors.New("not implemented")
}

func (f *stubFetcher) Delete(ctx context.Context, collection model.Collection, id string) error {
	return errors.New("not implemented")
}

func newTestHandler(t *testing.T, svc Service, f *stubFetcher) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	builder := service.NewService(f, logger)
	registry := refresh.NewRegistry(builder.Fetcher(), builder.Build, time.Minute, logger)
	session := middleware.NewSessionMiddleware("test-secret")

	return NewHandler(svc, registry, logger, session)
}

func donorData() *stubFetcher {
	return &stubFetcher{
		data: map[model.Collection][]model.Record{
			model.CollectionDonations: {
				{"id": "d1", "donorId": "7", "amount": "500", "paymentStatus": "COMPLETED"},
				{"id": "d2", "donorId": "7", "amount": "300", "paymentStatus": "PENDING"},
			},
			model.CollectionDonorGamifications: {
				{"donorId": "7", "totalPoints": float64(150)},
			},
		},
	}
}

func do(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func TestGetDashboard_Success(t *testing.T) {
	h := newTestHandler(t, &stubService{}, donorData())
	router := h.SetupRouter()

	res := do(t, router, http.MethodGet, "/api/dashboard/donor/7", "")
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.NotEmpty(t, res.Cookies(), "session cookie must be issued")

	var body struct {
		Role  string `json:"role"`
		Donor struct {
			TotalDonated  float64 `json:"totalDonated"`
			PendingAmount float64 `json:"pendingAmount"`
		} `json:"donor"`
		Banner string `json:"banner"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "donor", body.Role)
	assert.Equal(t, float64(500), body.Donor.TotalDonated)
	assert.Equal(t, float64(300), body.Donor.PendingAmount)
	assert.Empty(t, body.Banner)
}

func TestGetDashboard_RemountRefetches(t *testing.T) {
	f := donorData()
	h := newTestHandler(t, &stubService{}, f)
	router := h.SetupRouter()

	first := do(t, router, http.MethodGet, "/api/dashboard/donor/7", "")
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)
	cookie := first.Cookies()[0]

	f.mu.Lock()
	calls := f.calls
	f.data[model.CollectionDonations] = append(f.data[model.CollectionDonations],
		model.Record{"id": "d9", "donorId": "7", "amount": "100", "paymentStatus": "COMPLETED"})
	f.mu.Unlock()

	second := do(t, router, http.MethodGet, "/api/dashboard/donor/7", "", cookie)
	defer second.Body.Close()
	require.Equal(t, http.StatusOK, second.StatusCode)

	var body struct {
		Donor struct {
			TotalDonated float64 `json:"totalDonated"`
		} `json:"donor"`
	}
	require.NoError(t, json.NewDecoder(second.Body).Decode(&body))
	assert.Equal(t, float64(600), body.Donor.TotalDonated, "donation written elsewhere is visible after reopening")

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Greater(t, f.calls, calls)
}

func TestGetDashboard_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "unknown role", target: "/api/dashboard/admin/7", want: http.StatusNotFound},
		{name: "invalid key", target: "/api/dashboard/donor/bad!key", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{}, donorData())

			res := do(t, h.SetupRouter(), http.MethodGet, tt.target, "")
			res.Body.Close()
			assert.Equal(t, tt.want, res.StatusCode)
		})
	}
}

func TestGetDashboard_NoData(t *testing.T) {
	h := newTestHandler(t, &stubService{}, &stubFetcher{err: errors.New("store down")})
	router := h.SetupRouter()

	var cookies []*http.Cookie
	for attempt := 1; attempt <= 2; attempt++ {
		res := do(t, router, http.MethodGet, "/api/dashboard/school/5", "", cookies...)
		require.Equal(t, http.StatusServiceUnavailable, res.StatusCode, "attempt %d", attempt)

		var body map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		res.Body.Close()
		assert.NotEmpty(t, body["banner"], "attempt %d", attempt)
		assert.Len(t, body["unavailable"], 4)

		if cookies == nil {
			cookies = res.Cookies()
			require.NotEmpty(t, cookies)
		}
	}
}

func TestWriteDashboard_Errors(t *testing.T) {
	h := newTestHandler(t, &stubService{}, donorData())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "stale", err: fmt.Errorf("wrap: %w", refresh.ErrStale), want: http.StatusConflict},
		{name: "unknown scope", err: refresh.ErrUnknownScope, want: http.StatusNotFound},
		{name: "cancelled", err: context.Canceled, want: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeDashboard(rec, service.Dashboard{}, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRefresh(t *testing.T) {
	f := donorData()
	h := newTestHandler(t, &stubService{}, f)
	router := h.SetupRouter()

	res := do(t, router, http.MethodPost, "/api/refresh", "")
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "nothing opened yet")
	cookie := res.Cookies()[0]

	res = do(t, router, http.MethodGet, "/api/dashboard/donor/7", "", cookie)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	calls := f.calls

	res = do(t, router, http.MethodPost, "/api/refresh", "", cookie)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Greater(t, f.calls, calls)
}

func TestGetLeaderboard(t *testing.T) {
	svc := &stubService{
		leaderboardResp: []leaderboard.RankedEntry{{Rank: 1, ActorID: "8", Name: "Bob", TotalPoints: 900}},
	}
	h := newTestHandler(t, svc, donorData())
	router := h.SetupRouter()

	tests := []struct {
		target    string
		wantCode  int
		wantLimit int
	}{
		{target: "/api/leaderboard/donor", wantCode: http.StatusOK, wantLimit: 10},
		{target: "/api/leaderboard/ngo?limit=3", wantCode: http.StatusOK, wantLimit: 3},
		{target: "/api/leaderboard/donor?limit=1000", wantCode: http.StatusOK, wantLimit: 100},
		{target: "/api/leaderboard/donor?limit=abc", wantCode: http.StatusBadRequest},
		{target: "/api/leaderboard/admin", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			svc.leaderboardLimit = 0

			res := do(t, router, http.MethodGet, tt.target, "")
			defer res.Body.Close()

			require.Equal(t, tt.wantCode, res.StatusCode)
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantLimit, svc.leaderboardLimit)

			var entries []leaderboard.RankedEntry
			require.NoError(t, json.NewDecoder(res.Body).Decode(&entries))
			require.Len(t, entries, 1)
			assert.Equal(t, "Bob", entries[0].Name)
		})
	}
}

func TestGetLeaderboard_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unknown role", err: service.ErrUnknownRole, want: http.StatusNotFound},
		{name: "no data", err: refresh.ErrNoData, want: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{leaderboardErr: tt.err}, donorData())

			res := do(t, h.SetupRouter(), http.MethodGet, "/api/leaderboard/donor", "")
			res.Body.Close()
			assert.Equal(t, tt.want, res.StatusCode)
		})
	}
}

func TestCreateRecord_RefreshesOpenDashboard(t *testing.T) {
	f := donorData()
	svc := &stubService{createResp: model.Record{"id": "d3"}}
	h := newTestHandler(t, svc, f)
	router := h.SetupRouter()

	res := do(t, router, http.MethodGet, "/api/dashboard/donor/7", "")
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	cookie := res.Cookies()[0]

	f.mu.Lock()
	f.data[model.CollectionDonations] = append(f.data[model.CollectionDonations],
		model.Record{"id": "d3", "donorId": "7", "amount": "25", "paymentStatus": "COMPLETED"})
	f.mu.Unlock()

	res = do(t, router, http.MethodPost, "/api/donations", `{"donorId":"7","amount":25}`, cookie)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var body struct {
		Record    map[string]any `json:"record"`
		Refreshed bool           `json:"refreshed"`
		Dashboard struct {
			Donor struct {
				TotalDonated float64 `json:"totalDonated"`
			} `json:"donor"`
		} `json:"dashboard"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "d3", body.Record["id"])
	assert.True(t, body.Refreshed)
	assert.Equal(t, float64(525), body.Dashboard.Donor.TotalDonated)
}

func TestCreateRecord_WithoutOpenDashboard(t *testing.T) {
	h := newTestHandler(t, &stubService{createResp: model.Record{"id": "p1"}}, donorData())

	res := do(t, h.SetupRouter(), http.MethodPost, "/api/ngo-projects", `{"title":"Wells"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, false, body["refreshed"])
	assert.NotContains(t, body, "dashboard")
}

func TestCreateRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "invalid json", body: `{"amount":`, want: http.StatusBadRequest},
		{name: "store rejected", body: `{}`, err: fmt.Errorf("%w: 500", store.ErrUnexpectedStatus), want: http.StatusBadGateway},
		{name: "store not configured", body: `{}`, err: store.ErrNotConfigured, want: http.StatusBadGateway},
		{name: "duplicate", body: `{"id":"d1"}`, err: repository.ErrRecordExists, want: http.StatusConflict},
		{name: "internal", body: `{}`, err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{createErr: tt.err}, donorData())

			res := do(t, h.SetupRouter(), http.MethodPost, "/api/donations", tt.body)
			res.Body.Close()
			assert.Equal(t, tt.want, res.StatusCode)
		})
	}
}

func TestDeleteRecord(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{name: "school project", target: "/api/school-projects/sp1", want: http.StatusOK},
		{name: "ngo project", target: "/api/ngo-projects/np1", want: http.StatusOK},
		{name: "donations are not deletable", target: "/api/donations/d1", want: http.StatusNotFound},
		{name: "unknown collection", target: "/api/widgets/1", want: http.StatusNotFound},
		{name: "invalid id", target: "/api/ngo-projects/bad!id", want: http.StatusBadRequest},
		{name: "missing record", target: "/api/ngo-projects/np9", err: repository.ErrRecordNotFound, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{deleteErr: tt.err}, donorData())

			res := do(t, h.SetupRouter(), http.MethodDelete, tt.target, "")
			res.Body.Close()
			assert.Equal(t, tt.want, res.StatusCode)
		})
	}
}

func TestHealthAndFallbacks(t *testing.T) {
	h := newTestHandler(t, &stubService{}, donorData())
	router := h.SetupRouter()

	res := do(t, router, http.MethodGet, "/healthz", "")
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(t, router, http.MethodGet, "/api/unknown/path/here", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = do(t, router, http.MethodPut, "/api/donations", "")
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestHandlers_OutsideRouter(t *testing.T) {
	h := newTestHandler(t, &stubService{}, donorData())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/donor/7", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code, "role is read from the route context")

	req = req.WithContext(middleware.WithSessionID(req.Context(), "s1"))
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing session")
}
