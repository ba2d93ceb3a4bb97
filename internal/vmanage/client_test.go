package vmanage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeVManage(t *testing.T, authOK bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/j_security_check", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if authOK && r.PostForm.Get("j_username") == "admin" {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123"})
		}
		// vManage returns 200 either way; a failed login just omits the cookie.
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/dataservice/client/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("csrf-token-value"))
	})
	mux.HandleFunc("/dataservice/device", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csrf-token-value", r.Header.Get("X-XSRF-TOKEN"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"system-ip":"10.0.0.1","site-id":"101","personality":"vedge","reachability":"reachable"},
			{"system-ip":"10.0.0.2","site-id":101,"personality":"vedge","reachability":"reachable"},
			{"system-ip":"10.0.0.3","site-id":"101","personality":"vedge","reachability":"unreachable"},
			{"system-ip":"10.0.0.4","site-id":"202","personality":"vedge","reachability":"reachable"},
			{"system-ip":"1.1.1.1","site-id":"101","personality":"vsmart","reachability":"reachable"}
		]}`))
	})
	mux.HandleFunc("/dataservice/device/bfd/state/device", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10.0.0.1", r.URL.Query().Get("deviceId"))
		assert.Equal(t, "biz-internet", r.URL.Query().Get("local-color"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"state":"down","local-color":"biz-internet"},
			{"state":"up","local-color":"mpls"}
		]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(baseURL, "admin", "secret", zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestAuthenticate(t *testing.T) {
	server := newFakeVManage(t, true)
	client := newTestClient(t, server.URL)

	require.NoError(t, client.Authenticate(context.Background()))
	assert.Equal(t, "csrf-token-value", client.token)
}

func TestAuthenticateRejectedWithoutCookie(t *testing.T) {
	server := newFakeVManage(t, false)
	client := newTestClient(t, server.URL)

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticateConnectionFailure(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestDevicesFiltersInventory(t *testing.T) {
	server := newFakeVManage(t, true)
	client := newTestClient(t, server.URL)
	require.NoError(t, client.Authenticate(context.Background()))

	devices, err := client.Devices(context.Background(), []int{101})
	require.NoError(t, err)

	// Controllers, unreachable devices and unconfigured sites are skipped;
	// string and numeric site IDs both count.
	assert.Equal(t, map[int][]string{101: {"10.0.0.1", "10.0.0.2"}}, devices)
}

func TestBFDState(t *testing.T) {
	server := newFakeVManage(t, true)
	client := newTestClient(t, server.URL)
	require.NoError(t, client.Authenticate(context.Background()))

	records, err := client.BFDState(context.Background(), "10.0.0.1", "biz-internet")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "down", records[0].State)
	assert.Equal(t, "biz-internet", records[0].Color)
}

func TestBFDStateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server.URL)

	_, err := client.BFDState(context.Background(), "10.0.0.1", "mpls")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpectedStatus)
}
