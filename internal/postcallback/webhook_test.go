package postcallback

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/domain"
)

func TestFactoryPostsAndDecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "acct-1", req.AccountID)
		json.NewEncoder(w).Encode(response{OK: true, ThreadID: "t1"})
	}))
	defer srv.Close()

	factory := NewFactory(srv.Client(), Endpoints{domain.PlatformThreads: srv.URL}, time.Second)
	cb := factory(domain.PlatformThreads)

	result, err := cb("acct-1", "hello")
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, "t1", result.ThreadID)
	require.False(t, result.Failed())
}

func TestFactoryUnknownPlatformFailsClosed(t *testing.T) {
	factory := NewFactory(nil, Endpoints{}, time.Second)
	cb := factory(domain.PlatformFacebook)

	_, err := cb("acct-1", "hello")
	require.Error(t, err)
}

func TestFactoryShadowFailTreatedAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(response{OK: true, ShadowFail: true})
	}))
	defer srv.Close()

	factory := NewFactory(srv.Client(), Endpoints{domain.PlatformThreads: srv.URL}, time.Second)
	result, err := factory(domain.PlatformThreads)("acct-1", "hello")
	require.NoError(t, err)
	require.True(t, result.Failed())
}
