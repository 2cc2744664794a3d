package ipa

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config holds the static connection configuration for a FreeIPA backend.
// The session manager keeps one Config for the lifetime of the process and
// uses it for every connect and reconnect.
type Config struct {
	// Connection settings
	Server     string        // Backend host, host:port, or full URL
	VerifySSL  bool          // TLS certificate verification
	APIVersion string        // JSON-RPC API version sent with every call
	Timeout    time.Duration // Per-call timeout (login, ping, directory calls)

	// Authentication settings
	AuthMethod AuthMethod // Password or Kerberos
	Username   string     // Principal for authentication
	Password   string     // Credential for password authentication

	// Kerberos settings
	KerberosConfig string // Path to krb5.conf
	KerberosKeytab string // Path to keytab file
	KerberosCCache string // Path to credential cache

	// Retry settings
	RetryMax     int           // Maximum HTTP retry attempts
	RetryWaitMin time.Duration // Initial backoff duration
	RetryWaitMax time.Duration // Maximum backoff duration
}

// DefaultConfig returns a secure default configuration.
func DefaultConfig() *Config {
	return &Config{
		VerifySSL:      true,
		APIVersion:     "2.5",
		Timeout:        30 * time.Second,
		AuthMethod:     AuthMethodPassword,
		KerberosConfig: "/etc/krb5.conf",
		RetryMax:       3,
		RetryWaitMin:   500 * time.Millisecond,
		RetryWaitMax:   30 * time.Second,
	}
}

// Validate checks the configuration for values that would make every
// connection attempt fail.
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}

	switch c.AuthMethod {
	case AuthMethodPassword:
		if c.Username == "" {
			return fmt.Errorf("username is required for password authentication")
		}
		if c.Password == "" {
			return fmt.Errorf("password is required for password authentication")
		}
	case AuthMethodKerberos:
		if c.Username == "" && c.KerberosCCache == "" && c.KerberosKeytab == "" {
			return fmt.Errorf("kerberos authentication requires a principal, keytab, or credential cache")
		}
	default:
		return fmt.Errorf("unsupported auth method: %s", c.AuthMethod)
	}

	if c.APIVersion == "" {
		return fmt.Errorf("api version must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RetryMax < 0 || c.RetryMax > 10 {
		return fmt.Errorf("retry max must be between 0 and 10")
	}
	if c.RetryWaitMin > c.RetryWaitMax {
		return fmt.Errorf("retry wait min must not exceed retry wait max")
	}

	return nil
}

// BaseURL returns the backend base URL. Bare hostnames get an https scheme;
// an explicit scheme in Server is kept as-is.
func (c *Config) BaseURL() string {
	server := strings.TrimRight(c.Server, "/")
	if strings.Contains(server, "://") {
		return server
	}
	return "https://" + server
}

// Host returns the backend hostname without scheme or port.
func (c *Config) Host() string {
	host := c.Server
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	host = strings.TrimRight(host, "/")
	if idx := strings.IndexByte(host, '/'); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// AuthMethod defines authentication method types.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password" // Form login with username/password
	AuthMethodKerberos AuthMethod = "kerberos" // SPNEGO negotiation
)

// String returns the string representation of the authentication method.
func (a AuthMethod) String() string {
	return string(a)
}

// ParseAuthMethod maps a configuration value to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "password":
		return AuthMethodPassword, nil
	case "kerberos", "gssapi":
		return AuthMethodKerberos, nil
	default:
		return "", fmt.Errorf("unsupported auth method: %q", s)
	}
}

// Client provides high-level FreeIPA session API operations. The session
// manager owns at most one Client at a time; handlers reach the backend only
// through it.
type Client interface {
	// Session lifecycle
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Close() error

	// Health and identity
	Ping(ctx context.Context) (any, error)
	Principal() string

	// Generic RPC; args and options follow the FreeIPA command signature
	// convention (positional arguments, named options).
	Call(ctx context.Context, method string, args []string, options map[string]any) (any, error)

	// User operations
	UserFind(ctx context.Context, sizeLimit int) (any, error)
	UserShow(ctx context.Context, uid string) (any, error)
	UserAdd(ctx context.Context, req *UserAddRequest) (any, error)
	UserMod(ctx context.Context, uid string, fields *UserModFields) (any, error)

	// Group operations
	GroupFind(ctx context.Context, filter *GroupFilter) (any, error)
	GroupShow(ctx context.Context, cn string) (any, error)
	GroupAdd(ctx context.Context, cn, description string) (any, error)
	GroupAddMember(ctx context.Context, cn, user string) (any, error)
	GroupRemoveMember(ctx context.Context, cn, user string) (any, error)

	// Password operations
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

// UserAddRequest represents a request to create a new user account.
type UserAddRequest struct {
	UID       string `json:"uid"`       // Required: login name
	GivenName string `json:"givenname"` // Required: first name
	Surname   string `json:"sn"`        // Required: last name
	Mail      string `json:"mail"`      // Optional: mail address, blank is passed through
	Password  string `json:"password"`  // Optional: initial password, blank is passed through
}

// UserModFields enumerates the modifiable user attributes. Only non-nil
// fields are forwarded to the backend; attributes outside this set cannot be
// expressed.
type UserModFields struct {
	GivenName *string `json:"givenname,omitempty"`       // First name
	Surname   *string `json:"sn,omitempty"`              // Last name
	FullName  *string `json:"cn,omitempty"`              // Full name
	Mail      *string `json:"mail,omitempty"`            // Mail address
	Phone     *string `json:"telephonenumber,omitempty"` // Telephone number
	Title     *string `json:"title,omitempty"`           // Job title
	OrgUnit   *string `json:"ou,omitempty"`              // Organizational unit
	Password  *string `json:"userpassword,omitempty"`    // Password (admin reset)
	Disabled  *bool   `json:"nsaccountlock,omitempty"`   // Account lock flag
}

// Options maps the supplied fields to FreeIPA option names.
func (f *UserModFields) Options() map[string]any {
	opts := make(map[string]any)
	if f == nil {
		return opts
	}

	setString := func(key string, v *string) {
		if v != nil {
			opts[key] = *v
		}
	}
	setString("givenname", f.GivenName)
	setString("sn", f.Surname)
	setString("cn", f.FullName)
	setString("mail", f.Mail)
	setString("telephonenumber", f.Phone)
	setString("title", f.Title)
	setString("ou", f.OrgUnit)
	setString("userpassword", f.Password)
	if f.Disabled != nil {
		opts["nsaccountlock"] = *f.Disabled
	}

	return opts
}

// Empty reports whether no field is set.
func (f *UserModFields) Empty() bool {
	return len(f.Options()) == 0
}

// GroupFilter represents the optional filters for a group listing. Supplied
// name and description filters are passed to the backend jointly; the size
// limit is always applied.
type GroupFilter struct {
	SizeLimit   int    `json:"sizelimit"`             // Maximum entries to return
	Name        string `json:"cn,omitempty"`          // Group name filter
	Description string `json:"description,omitempty"` // Description filter
}

// Options maps the filter to FreeIPA option names.
func (f *GroupFilter) Options() map[string]any {
	opts := map[string]any{"sizelimit": f.SizeLimit}
	if f.Name != "" {
		opts["cn"] = f.Name
	}
	if f.Description != "" {
		opts["description"] = f.Description
	}
	return opts
}

// RetryableError indicates an error that can be retried.
type RetryableError interface {
	error
	IsRetryable() bool
}
