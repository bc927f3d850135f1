package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOura rewires a client to a fake API server.
func fakeOura(t *testing.T, handler http.HandlerFunc) *OuraClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewOuraClient("test-token")
	require.NoError(t, err)
	client.baseURL = ts.URL
	return client
}

func intPtr(v int) *int { return &v }

func TestNewOuraClientRequiresToken(t *testing.T) {
	_, err := NewOuraClient("")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestGetSleepDataSendsAuthAndRange(t *testing.T) {
	client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usercollection/sleep", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-05-03", r.URL.Query().Get("end_date"))

		w.Write([]byte(`{"data":[{"day":"2024-05-01","score":80}]}`))
	})

	records, err := client.GetSleepData(context.Background(), "2024-05-01", "2024-05-03")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-05-01", records[0].Day)
	require.NotNil(t, records[0].Score)
	assert.Equal(t, 80, *records[0].Score)
}

func TestGetSleepDataPagination(t *testing.T) {
	calls := 0
	client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			assert.Empty(t, r.URL.Query().Get("next_token"))
			w.Write([]byte(`{"data":[{"day":"2024-05-01"},{"day":"2024-05-02"}],"next_token":"page2"}`))
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("next_token"))
		w.Write([]byte(`{"data":[{"day":"2024-05-03"}]}`))
	})

	records, err := client.GetSleepData(context.Background(), "2024-05-01", "2024-05-03")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, records, 3)
}

func TestGetSleepDataUpstreamError(t *testing.T) {
	client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid token"}`))
	})

	_, err := client.GetSleepData(context.Background(), "", "")
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestGetLastNight(t *testing.T) {
	t.Run("record found", func(t *testing.T) {
		client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
			yesterday := yesterdayDate()
			assert.Equal(t, yesterday, r.URL.Query().Get("start_date"))
			assert.Equal(t, yesterday, r.URL.Query().Get("end_date"))
			w.Write([]byte(`{"data":[{"day":"` + yesterdayDate() + `","score":72}]}`))
		})

		record, err := client.GetLastNight(context.Background())
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 72, *record.Score)
	})

	t.Run("no data", func(t *testing.T) {
		client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[]}`))
		})

		record, err := client.GetLastNight(context.Background())
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}

func TestGetPastWeekSortsDescending(t *testing.T) {
	client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
		start, end := pastWeekRange()
		assert.Equal(t, start, r.URL.Query().Get("start_date"))
		assert.Equal(t, end, r.URL.Query().Get("end_date"))

		w.Write([]byte(`{"data":[
			{"day":"2024-05-01","score":10},
			{"day":"2024-05-03","score":30},
			{"day":"2024-05-02","score":20}
		]}`))
	})

	records, err := client.GetPastWeek(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-05-03", records[0].Day)
	assert.Equal(t, "2024-05-02", records[1].Day)
	assert.Equal(t, "2024-05-01", records[2].Day)
}

func TestValidateToken(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/usercollection/personal_info", r.URL.Path)
			w.Write([]byte(`{"id":"user-1","email":"user@example.com"}`))
		})
		assert.NoError(t, client.ValidateToken(context.Background()))
	})

	t.Run("rejected", func(t *testing.T) {
		client := fakeOura(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		err := client.ValidateToken(context.Background())
		require.Error(t, err)
		var upErr *UpstreamError
		assert.True(t, errors.As(err, &upErr))
	})
}
