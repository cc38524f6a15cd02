package httpx

import (
	"os"
	"path/filepath"

	"golang.org/x/crypto/acme/autocert"
)

// autoCert issues Let's Encrypt certificates, only for the domain if set.
func autoCert(domain string) *autocert.Manager {
	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache(certCache()),
	}
	if domain != "" {
		m.HostPolicy = autocert.HostWhitelist(domain)
	}
	return m
}

func certCache() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "kingball", "autocert")
}
