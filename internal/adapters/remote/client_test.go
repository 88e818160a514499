package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"source":"sqlite","latest_year":2022,"year":2022,"years":[2022],"regions":["All"],
"top_countries":[],"totals_by_year":[{"year":2022,"total_usd_billions":1.5}],"table_rows":[]}`

func TestClient_Dashboard_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboard", r.URL.Path)
		assert.Equal(t, "2021", r.URL.Query().Get("year"))
		assert.Equal(t, "Europe & Central Asia", r.URL.Query().Get("region"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "req-1", r.Header.Get(RequestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	year := 2021
	c := NewClient(srv.URL+"/", 5*time.Second, nil)
	p, err := c.Dashboard(context.Background(), Query{Year: &year, Region: "Europe & Central Asia", Limit: 5}, "req-1")
	require.NoError(t, err)

	d, err := normalize.Dashboard(p)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Upstream)
	assert.Len(t, d.TotalsByYear, 1)
}

func TestClient_Dashboard_OmitsYearWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("year"))
		assert.Equal(t, "All", r.URL.Query().Get("region"))
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).Dashboard(context.Background(), Query{Region: "All", Limit: 5}, "")
	require.NoError(t, err)
}

func TestClient_Dashboard_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).Dashboard(context.Background(), Query{Region: "All", Limit: 5}, "")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "API error 500: database unavailable", err.Error())
	assert.True(t, IsStatus(err, 500))
}

func TestClient_Dashboard_StatusErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).Dashboard(context.Background(), Query{Region: "All", Limit: 5}, "")
	require.Error(t, err)
	assert.Equal(t, "API error 503", err.Error())
	assert.Equal(t, "API error 404", (&StatusError{Code: 404, Body: ""}).Error())
}

func TestClient_Dashboard_TruncatesLongBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).Dashboard(context.Background(), Query{Region: "All", Limit: 5}, "")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Body, maxErrorBody)
}

func TestClient_Dashboard_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).Dashboard(context.Background(), Query{Region: "All", Limit: 5}, "")
	assert.ErrorIs(t, err, normalize.ErrDecode)
}

func TestClient_Dashboard_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL, time.Second, nil).Dashboard(ctx, Query{Region: "All", Limit: 5}, "")
	assert.ErrorIs(t, err, context.Canceled)
}
