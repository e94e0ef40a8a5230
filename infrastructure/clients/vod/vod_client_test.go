package vod

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
)

func TestClient_List(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/provide/vod/", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":1,"msg":"ok","total":"2","list":[{"vod_id":11,"type_name":"Drama"},{"vod_id":"12","vod_class":"Drama"}]}`))
	}))
	defer srv.Close()

	client, err := NewVODClient(&Config{BaseURL: srv.URL + "/api/provide/vod/", Timeout: time.Second})
	require.NoError(t, err)

	res, err := client.List(context.Background(), &dto.VodListRequest{Page: 2, Limit: 18, TypeID: "Drama"})
	require.NoError(t, err)

	assert.Equal(t, []string{"list"}, gotQuery["ac"])
	assert.Equal(t, []string{"2"}, gotQuery["pg"])
	assert.Equal(t, []string{"18"}, gotQuery["limit"])
	assert.Equal(t, []string{"Drama"}, gotQuery["t"])
	assert.NotContains(t, gotQuery, "wd")
	assert.NotContains(t, gotQuery, "class")

	require.Len(t, res.Items(), 2)
	assert.Equal(t, int64(2), res.TotalCount())
	assert.Equal(t, "11", model.RecordID(res.Items()[0]))
	assert.Equal(t, "Drama", model.RecordCategory(res.Items()[1]))
}

func TestClient_Detail(t *testing.T) {
	var gotIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "detail", r.URL.Query().Get("ac"))
		gotIDs = r.URL.Query().Get("ids")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"list": []map[string]interface{}{{"vod_id": "1", "vod_name": "One"}},
		})
	}))
	defer srv.Close()

	client, err := NewVODClient(&Config{BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := client.Detail(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, "1,2,3", gotIDs)
	assert.Equal(t, "One", model.NormalizeVideo(res.Items()[0]).Title)

	empty, err := client.Detail(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Items())
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewVODClient(&Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.List(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamStatus))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client, err := NewVODClient(&Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Detail(context.Background(), []string{"1"})
	assert.ErrorContains(t, err, "failed to decode")
}

func TestNewVODClient_RequiresBaseURL(t *testing.T) {
	_, err := NewVODClient(&Config{})
	assert.Error(t, err)
	_, err = NewVODClient(nil)
	assert.Error(t, err)
}
