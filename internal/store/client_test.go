package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

func TestClientFetch(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantLen    int
		wantErr    error
		wantAnyErr bool
	}{
		{name: "bare array", status: http.StatusOK, body: `[{"id":1},{"id":2}]`, wantLen: 2},
		{name: "data envelope", status: http.StatusOK, body: `{"data":[{"id":1}],"meta":{}}`, wantLen: 1},
		{name: "null body", status: http.StatusOK, body: `null`, wantLen: 0},
		{name: "empty body", status: http.StatusOK, body: ``, wantLen: 0},
		{name: "no content", status: http.StatusNoContent, wantLen: 0},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrUnexpectedStatus},
		{name: "not found", status: http.StatusNotFound, wantErr: ErrUnexpectedStatus},
		{name: "malformed json", status: http.StatusOK, body: `[{"id":`, wantAnyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/donations", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			records, err := c.Fetch(context.Background(), model.CollectionDonations, nil)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.NotNil(t, records)
				assert.Len(t, records, tt.wantLen)
			}
		})
	}
}

func TestClientFetch_QueryAndNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/school-projects", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("school"))
		_, _ = io.WriteString(w, `[{"id":12345678901234567890,"amount":10.10}]`)
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), 0)
	records, err := c.Fetch(context.Background(), model.CollectionSchoolProjects, url.Values{"school": {"5"}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, json.Number("12345678901234567890"), records[0]["id"])
	assert.Equal(t, json.Number("10.10"), records[0]["amount"])
}

func TestClientFetch_NotConfigured(t *testing.T) {
	c := NewClient("", time.Second)

	_, err := c.Fetch(context.Background(), model.CollectionDonations, nil)
	require.ErrorIs(t, err, ErrNotConfigured)

	var nilClient *Client
	_, err = nilClient.Fetch(context.Background(), model.CollectionDonations, nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientFetch_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(ctx, model.CollectionDonations, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClientCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"amount":50,"donorId":"7"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"d9","amount":50}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	record, err := c.Create(context.Background(), model.CollectionDonations, json.RawMessage(`{"amount":50,"donorId":"7"}`))
	require.NoError(t, err)
	assert.Equal(t, "d9", record["id"])
}

func TestClientCreate_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Create(context.Background(), model.CollectionNgoProjects, json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClientDelete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "not found", status: http.StatusNotFound, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/school-projects/a%2Fb", r.URL.EscapedPath())
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			err := c.Delete(context.Background(), model.CollectionSchoolProjects, "a/b")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnexpectedStatus)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDecodeRecords_SingleObject(t *testing.T) {
	records, err := DecodeRecords([]byte(`{"id":"x"}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x", records[0]["id"])

	_, err = DecodeRecords([]byte(`"text"`))
	require.Error(t, err)
}
