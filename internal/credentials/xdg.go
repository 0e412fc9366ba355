package credentials

import (
	"os"
	"path/filepath"
)

// EnvCredentialsPath names an explicit authorized-user file, as understood by
// Google client libraries.
const EnvCredentialsPath = "GOOGLE_APPLICATION_CREDENTIALS"

// DefaultCredsPath is where `gcloud auth application-default login` writes
// its authorized-user file.
func DefaultCredsPath() string {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		xdgConfigHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(xdgConfigHome, "gcloud", "application_default_credentials.json")
}

// AppCredsPath is the proxy's own authorized-user file location.
func AppCredsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "gauth-proxy", "authorized_user.json")
}

// ResolveCredsPath picks the file to load: explicit, then
// GOOGLE_APPLICATION_CREDENTIALS, then the gcloud default if it exists,
// then AppCredsPath.
func ResolveCredsPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvCredentialsPath); p != "" {
		return p
	}
	if p := DefaultCredsPath(); p != "" && FileExists(p) {
		return p
	}
	return AppCredsPath()
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
