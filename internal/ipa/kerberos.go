package ipa

import (
	"fmt"
	"os"
	"strings"

	krbclient "github.com/jcmturner/gokrb5/v8/client"
	krbconfig "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/keytab"
)

// newKerberosClient creates a Kerberos client for SPNEGO negotiation.
// Priority order: credential cache → keytab → password.
func newKerberosClient(cfg *Config, log Logger) (*krbclient.Client, error) {
	krb5Path := cfg.KerberosConfig
	if krb5Path == "" {
		krb5Path = "/etc/krb5.conf"
	}
	if !fileExists(krb5Path) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s; "+
			"create it or point FREEIPA_KRB5_CONF at a valid krb5.conf", krb5Path)
	}

	krb5conf, err := krbconfig.Load(krb5Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", krb5Path, err)
	}

	username, realm := splitPrincipal(cfg.Username, krb5conf.LibDefaults.DefaultRealm)

	// Priority 1: explicit credential cache
	if cfg.KerberosCCache != "" && fileExists(cfg.KerberosCCache) {
		return clientFromCCache(cfg.KerberosCCache, krb5conf)
	}

	// Priority 2: default credential cache, when one exists
	if ccachePath := defaultCCachePath(); fileExists(ccachePath) {
		log.Debug("Using default credential cache", map[string]any{"path": ccachePath})
		if cl, err := clientFromCCache(ccachePath, krb5conf); err == nil {
			return cl, nil
		}
		log.Debug("Default credential cache unusable, trying other credentials", nil)
	}

	if realm == "" {
		return nil, fmt.Errorf("kerberos realm could not be determined: include it in the principal (user@REALM) or set default_realm in krb5.conf")
	}

	// Priority 3: explicit keytab
	if cfg.KerberosKeytab != "" && fileExists(cfg.KerberosKeytab) {
		return clientFromKeytab(username, realm, cfg.KerberosKeytab, krb5conf)
	}

	// Priority 4: default keytab, when the principal is known
	if username != "" {
		if keytabPath := defaultKeytabPath(); fileExists(keytabPath) {
			return clientFromKeytab(username, realm, keytabPath, krb5conf)
		}
	}

	// Priority 5: password
	if username != "" && cfg.Password != "" {
		cl := krbclient.NewWithPassword(username, realm, cfg.Password, krb5conf, krbclient.DisablePAFXFAST(true))
		if err := cl.AffirmLogin(); err != nil {
			return nil, fmt.Errorf("kerberos password login for %s@%s: %w", username, realm, err)
		}
		return cl, nil
	}

	return nil, fmt.Errorf("no suitable credentials found for kerberos authentication: provide a credential cache, keytab, or password")
}

func clientFromCCache(path string, krb5conf *krbconfig.Config) (*krbclient.Client, error) {
	ccache, err := credentials.LoadCCache(path)
	if err != nil {
		return nil, fmt.Errorf("load credential cache %s: %w", path, err)
	}
	cl, err := krbclient.NewFromCCache(ccache, krb5conf, krbclient.DisablePAFXFAST(true))
	if err != nil {
		return nil, fmt.Errorf("credential cache %s: %w", path, err)
	}
	return cl, nil
}

func clientFromKeytab(username, realm, path string, krb5conf *krbconfig.Config) (*krbclient.Client, error) {
	kt, err := keytab.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load keytab %s: %w", path, err)
	}
	cl := krbclient.NewWithKeytab(username, realm, kt, krb5conf, krbclient.DisablePAFXFAST(true))
	if err := cl.AffirmLogin(); err != nil {
		return nil, fmt.Errorf("kerberos keytab login for %s@%s: %w", username, realm, err)
	}
	return cl, nil
}

// servicePrincipal constructs the HTTP service principal name for the
// backend host. The SPN never includes a port.
func servicePrincipal(host string) string {
	return "HTTP/" + host
}

// kerberosPrincipal renders the authenticated principal as user@REALM.
func kerberosPrincipal(cl *krbclient.Client) string {
	if cl == nil || cl.Credentials == nil {
		return ""
	}
	username := cl.Credentials.UserName()
	realm := cl.Credentials.Domain()
	if realm == "" {
		return username
	}
	return username + "@" + realm
}

// splitPrincipal separates user@REALM, falling back to the supplied default
// realm for bare usernames.
func splitPrincipal(principal, defaultRealm string) (string, string) {
	if idx := strings.LastIndex(principal, "@"); idx >= 0 {
		return principal[:idx], principal[idx+1:]
	}
	return principal, defaultRealm
}

// defaultCCachePath returns the default credential cache location.
func defaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

// defaultKeytabPath returns the default keytab location.
func defaultKeytabPath() string {
	if kt := os.Getenv("KRB5_KTNAME"); kt != "" {
		return strings.TrimPrefix(kt, "FILE:")
	}
	return "/etc/krb5.keytab"
}

// fileExists checks if a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}
