package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "snip"

// GetSnipDir returns the directory holding settings.json.
func GetSnipDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, appName)
	case "darwin": // MacOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", appName)
	default: // Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appName)
	}
}

// Returns directory for state files (database, lock, token)
func GetStateDir() string {
	if runtime.GOOS != "linux" {
		return GetSnipDir()
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, _ := os.UserHomeDir()
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, appName)
}

// Returns directory for logs
func GetLogsDir() string {
	return filepath.Join(GetStateDir(), "logs")
}

// GetRuntimeDir returns the directory for the port file of a running server.
func GetRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return filepath.Join(runtimeDir, appName)
		}
	}
	return GetStateDir()
}

// GetDBPath returns the SQLite database file path.
func GetDBPath() string {
	return filepath.Join(GetStateDir(), appName+".db")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{GetSnipDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
