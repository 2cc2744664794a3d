package ipa

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	krbclient "github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

// FreeIPA session API endpoints.
const (
	loginPasswordPath  = "/ipa/session/login_password"
	loginKerberosPath  = "/ipa/session/login_kerberos"
	jsonRPCPath        = "/ipa/session/json"
	changePasswordPath = "/ipa/session/change_password"
)

// rejectionHeader carries the backend's reason when a form endpoint refuses
// a login or password change.
const rejectionHeader = "X-IPA-Rejection-Reason"

// rpcRequest is the JSON-RPC request envelope. FreeIPA commands take
// positional arguments and named options as the two params members.
type rpcRequest struct {
	Method string `json:"method"`
	Params [2]any `json:"params"`
	ID     string `json:"id"`
}

// rpcResponse is the JSON-RPC response envelope.
type rpcResponse struct {
	Result    any       `json:"result"`
	Error     *rpcError `json:"error"`
	ID        any       `json:"id"`
	Principal string    `json:"principal"`
	Version   string    `json:"version"`
}

// rpcError is the JSON-RPC error member.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// rpcClient implements Client against the FreeIPA JSON-RPC session API.
// Authentication state lives in the cookie jar; one rpcClient represents one
// backend session.
type rpcClient struct {
	cfg  *Config
	log  Logger
	base string

	http *retryablehttp.Client
	std  *http.Client
	krb  *krbclient.Client

	mu        sync.Mutex
	principal string
}

// NewClient creates a backend client from the given configuration. The
// client holds no session until Login succeeds.
func NewClient(cfg *Config, logger Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewValidationError("client setup", err.Error())
	}
	if logger == nil {
		logger = NewNopLogger()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, NewTransportError("client setup", err)
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	if !cfg.VerifySSL {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	std := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.Timeout,
	}

	retry := retryablehttp.NewClient()
	retry.HTTPClient = std
	retry.RetryMax = cfg.RetryMax
	retry.RetryWaitMin = cfg.RetryWaitMin
	retry.RetryWaitMax = cfg.RetryWaitMax
	retry.CheckRetry = retryPolicy
	retry.Logger = nil
	if hcl, ok := logger.(*HCLogger); ok {
		retry.Logger = hcl.HCLog()
	}

	return &rpcClient{
		cfg:  cfg,
		log:  logger,
		base: cfg.BaseURL(),
		http: retry,
		std:  std,
	}, nil
}

// retryPolicy retries transport-level failures and gateway errors only.
// Directory writes are not idempotent, so command-level server errors are
// surfaced instead of replayed.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// Login establishes an authenticated session with the backend.
func (c *rpcClient) Login(ctx context.Context) error {
	fields := SanitizeFields(map[string]any{
		"server":      c.cfg.Server,
		"username":    c.cfg.Username,
		"auth_method": c.cfg.AuthMethod.String(),
	})

	return LogOperation(c.log, "login", fields, func() error {
		switch c.cfg.AuthMethod {
		case AuthMethodKerberos:
			return c.loginKerberos(ctx)
		default:
			return c.loginPassword(ctx)
		}
	})
}

func (c *rpcClient) loginPassword(ctx context.Context) error {
	form := url.Values{
		"user":     {c.cfg.Username},
		"password": {c.cfg.Password},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.base+loginPasswordPath, []byte(form.Encode()))
	if err != nil {
		return NewTransportError("login", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Referer", c.base+"/ipa")

	resp, err := c.http.Do(req)
	if err != nil {
		return NewTransportError("login", err)
	}
	defer drainBody(resp)

	if resp.StatusCode == http.StatusOK {
		c.setPrincipal(c.cfg.Username)
		return nil
	}

	if reason := resp.Header.Get(rejectionHeader); reason != "" {
		return NewAuthError("login", "rejected: "+reason)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return NewAuthError("login", "invalid credentials")
	}
	return NewTransportError("login", fmt.Errorf("unexpected status %d", resp.StatusCode))
}

func (c *rpcClient) loginKerberos(ctx context.Context) error {
	kc, err := newKerberosClient(c.cfg, c.log)
	if err != nil {
		return &Error{
			Op:       "login",
			Category: ErrorCategoryAuthentication,
			Message:  "kerberos setup failed: " + err.Error(),
			Cause:    err,
		}
	}
	c.krb = kc

	spnegoClient := spnego.NewClient(kc, c.std, servicePrincipal(c.cfg.Host()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+loginKerberosPath, nil)
	if err != nil {
		return NewTransportError("login", err)
	}
	req.Header.Set("Referer", c.base+"/ipa")

	resp, err := spnegoClient.Do(req)
	if err != nil {
		return NewTransportError("login", err)
	}
	defer drainBody(resp)

	if resp.StatusCode == http.StatusOK {
		c.setPrincipal(kerberosPrincipal(kc))
		return nil
	}

	if reason := resp.Header.Get(rejectionHeader); reason != "" {
		return NewAuthError("login", "rejected: "+reason)
	}
	return NewAuthError("login", fmt.Sprintf("negotiation failed with status %d", resp.StatusCode))
}

// Logout ends the backend session. Best-effort; the server forgets the
// session cookie either way once the client is discarded.
func (c *rpcClient) Logout(ctx context.Context) error {
	_, err := c.Call(ctx, "session_logout", nil, nil)
	return err
}

// Ping issues the backend liveness probe and returns its raw result payload.
func (c *rpcClient) Ping(ctx context.Context) (any, error) {
	return c.Call(ctx, "ping", nil, nil)
}

// Principal returns the authenticated principal reported by the backend.
func (c *rpcClient) Principal() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

// Call executes a FreeIPA command. It returns the envelope's result member;
// a JSON-RPC error member or transport failure becomes a categorized *Error.
func (c *rpcClient) Call(ctx context.Context, method string, args []string, options map[string]any) (any, error) {
	if args == nil {
		args = []string{}
	}
	opts := make(map[string]any, len(options)+1)
	maps.Copy(opts, options)
	if _, ok := opts["version"]; !ok {
		opts["version"] = c.cfg.APIVersion
	}

	payload, err := json.Marshal(rpcRequest{
		Method: method,
		Params: [2]any{args, opts},
		ID:     uuid.NewString(),
	})
	if err != nil {
		return nil, NewValidationError(method, "encode request: "+err.Error())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.base+jsonRPCPath, payload)
	if err != nil {
		return nil, NewTransportError(method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.base+"/ipa")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, NewTransportError(method, err)
	}
	defer drainBody(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewAuthError(method, "session expired")
	case resp.StatusCode != http.StatusOK:
		return nil, NewTransportError(method, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, NewTransportError(method, fmt.Errorf("decode response: %w", err))
	}

	if decoded.Error != nil {
		return nil, NewRPCError(method, decoded.Error.Code, decoded.Error.Name, decoded.Error.Message)
	}
	if decoded.Principal != "" {
		c.setPrincipal(decoded.Principal)
	}

	return decoded.Result, nil
}

// ChangePassword performs a self-service password change through the
// dedicated form endpoint. The old password must be valid; backend policy
// rejections are reported through the rejection header.
func (c *rpcClient) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	form := url.Values{
		"user":         {username},
		"old_password": {oldPassword},
		"new_password": {newPassword},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.base+changePasswordPath, []byte(form.Encode()))
	if err != nil {
		return NewTransportError("change_password", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Referer", c.base+"/ipa")

	resp, err := c.http.Do(req)
	if err != nil {
		return NewTransportError("change_password", err)
	}
	defer drainBody(resp)

	if reason := resp.Header.Get(rejectionHeader); reason != "" {
		category := ErrorCategoryBackendRejected
		if reason == "invalid-password" {
			category = ErrorCategoryAuthentication
		}
		return &Error{
			Op:       "change_password",
			Category: category,
			Message:  "rejected: " + reason,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return NewTransportError("change_password", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return nil
}

// Close releases client resources. It does not log out; Logout is a separate
// best-effort step owned by the session manager.
func (c *rpcClient) Close() error {
	if c.krb != nil {
		c.krb.Destroy()
		c.krb = nil
	}
	c.std.CloseIdleConnections()
	return nil
}

func (c *rpcClient) setPrincipal(principal string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.principal = principal
}

// drainBody discards the remaining response body so the underlying
// connection can be reused.
func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
