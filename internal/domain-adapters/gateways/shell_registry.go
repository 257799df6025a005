package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces"
)

// maxMetaSize bounds metadata and listing responses; dcp downloads are streamed
const maxMetaSize = 10 * 1024 * 1024

// ShellRegistry talks to the cloudFPGA resource manager (CFRM)
type ShellRegistry struct {
	baseURL string
	client  *retryablehttp.Client
}

// ShellRegistryConfig configures the CFRM client
type ShellRegistryConfig struct {
	URL     string // host:port or full URL
	Timeout time.Duration
	Retries int
	Logger  interfaces.Logger
}

// NewShellRegistry creates a CFRM client with retries on transient failures
func NewShellRegistry(cfg ShellRegistryConfig) *ShellRegistry {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil
	if cfg.Logger != nil {
		client.Logger = &retryLogger{logger: cfg.Logger}
	}

	base := strings.TrimRight(cfg.URL, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	return &ShellRegistry{baseURL: base, client: client}
}

// LatestShell returns the newest base design for shellType together with its metadata
func (r *ShellRegistry) LatestShell(ctx context.Context, shellType string, creds entities.Credentials) (*entities.ShellRelease, error) {
	listing, err := r.get(ctx, "/composablelogic/by_shell/"+url.PathEscape(shellType), creds)
	if err != nil {
		return nil, fmt.Errorf("failed to list shells: %w", err)
	}

	var shells []struct {
		ID entities.Ident `json:"id"`
	}
	if err := json.Unmarshal(listing, &shells); err != nil {
		return nil, fmt.Errorf("invalid shell listing: %w", err)
	}
	if len(shells) == 0 {
		return nil, fmt.Errorf("no base designs published for shell %q", shellType)
	}
	latest := shells[len(shells)-1].ID

	meta, err := r.get(ctx, "/composablelogic/"+url.PathEscape(latest.String())+"/meta", creds)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata of %s: %w", latest, err)
	}

	var parsed struct {
		Cert string `json:"cert"`
	}
	if err := json.Unmarshal(meta, &parsed); err != nil {
		return nil, fmt.Errorf("invalid metadata of %s: %w", latest, err)
	}

	return &entities.ShellRelease{ID: latest, Meta: meta, Cert: parsed.Cert}, nil
}

// DownloadDcp streams the base design binary into w
func (r *ShellRegistry) DownloadDcp(ctx context.Context, id entities.Ident, creds entities.Credentials, w io.Writer) error {
	resp, err := r.do(ctx, "/composablelogic/"+url.PathEscape(id.String())+"/dcp", creds)
	if err != nil {
		return fmt.Errorf("failed to download dcp %s: %w", id, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write dcp %s: %w", id, err)
	}
	return nil
}

func (r *ShellRegistry) get(ctx context.Context, path string, creds entities.Credentials) ([]byte, error) {
	resp, err := r.do(ctx, path, creds)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetaSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (r *ShellRegistry) do(ctx context.Context, path string, creds entities.Credentials) (*http.Response, error) {
	q := url.Values{}
	q.Set("username", creds.User)
	q.Set("password", creds.Password)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "cfbuild/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		// transport errors echo the URL; keep the password out of them
		return nil, fmt.Errorf("failed to connect to CFRM: %s", strings.ReplaceAll(err.Error(), q.Encode(), "<redacted>"))
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("CFRM returned HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// retryLogger adapts the domain logger to retryablehttp's leveled logger
type retryLogger struct {
	logger interfaces.Logger
}

func (l *retryLogger) Error(msg string, kv ...interface{}) { l.logger.Error(msg, fields(kv)...) }
func (l *retryLogger) Info(msg string, kv ...interface{})  { l.logger.Debug(msg, fields(kv)...) }
func (l *retryLogger) Debug(msg string, kv ...interface{}) { l.logger.Debug(msg, fields(kv)...) }
func (l *retryLogger) Warn(msg string, kv ...interface{})  { l.logger.Warn(msg, fields(kv)...) }

func fields(kv []interface{}) []interfaces.Field {
	out := make([]interfaces.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := fmt.Sprint(kv[i]), kv[i+1]
		if key == "url" {
			// credentials travel in the query string
			value = strings.SplitN(fmt.Sprint(value), "?", 2)[0]
		}
		out = append(out, interfaces.F(key, value))
	}
	return out
}
