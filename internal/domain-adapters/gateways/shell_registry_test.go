package gateways

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

var testCreds = entities.Credentials{User: "alice", Password: "s3cr&t"}

func newCFRM(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/composablelogic/by_shell/Themisto", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		assert.Equal(t, "s3cr&t", r.URL.Query().Get("password"))
		_, _ = w.Write([]byte(`[{"id": 11}, {"id": 12}]`))
	})
	mux.HandleFunc("/composablelogic/by_shell/Empty", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/composablelogic/12/meta", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": 12, "cert": "c12", "shell": "Themisto"}`))
	})
	mux.HandleFunc("/composablelogic/12/dcp", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("DCP-BYTES"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestShellRegistry_LatestShell(t *testing.T) {
	srv := newCFRM(t)
	r := NewShellRegistry(ShellRegistryConfig{URL: srv.URL, Timeout: 5 * time.Second})

	release, err := r.LatestShell(context.Background(), "Themisto", testCreds)
	require.NoError(t, err)
	assert.Equal(t, "12", release.ID.String())
	assert.Equal(t, "c12", release.Cert)
	assert.JSONEq(t, `{"id": 12, "cert": "c12", "shell": "Themisto"}`, string(release.Meta))

	_, err = r.LatestShell(context.Background(), "Empty", testCreds)
	assert.ErrorContains(t, err, "no base designs")

	_, err = r.LatestShell(context.Background(), "Unknown", testCreds)
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestShellRegistry_DownloadDcp(t *testing.T) {
	srv := newCFRM(t)
	r := NewShellRegistry(ShellRegistryConfig{URL: srv.URL, Timeout: 5 * time.Second})

	var buf bytes.Buffer
	require.NoError(t, r.DownloadDcp(context.Background(), entities.IntIdent(12), testCreds, &buf))
	assert.Equal(t, "DCP-BYTES", buf.String())
}

func TestShellRegistry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	r := NewShellRegistry(ShellRegistryConfig{URL: srv.URL, Timeout: 5 * time.Second, Retries: 3})
	r.client.RetryWaitMin = time.Millisecond
	r.client.RetryWaitMax = 5 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, r.DownloadDcp(context.Background(), entities.IntIdent(1), testCreds, &buf))
	assert.Equal(t, "late", buf.String())
	assert.Equal(t, int32(3), calls.Load())
}

func TestShellRegistry_ErrorsHidePassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewShellRegistry(ShellRegistryConfig{URL: srv.URL, Timeout: time.Second, Retries: 0})
	_, err := r.LatestShell(context.Background(), "Themisto", testCreds)
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "s3cr"), err.Error())
}

func TestNewShellRegistry_DefaultsScheme(t *testing.T) {
	r := NewShellRegistry(ShellRegistryConfig{URL: "10.12.0.132:8080/"})
	assert.Equal(t, "http://10.12.0.132:8080", r.baseURL)
}
