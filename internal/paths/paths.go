// Package paths knows where imsgwatch and Messages keep their files.
package paths

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.imsgwatch.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".imsgwatch")
}

// ConfigPath returns the config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// ChangeLogPath returns the default change log.
func ChangeLogPath() string {
	return filepath.Join(BaseDir(), "changes.log")
}

// SocketPath returns the UDS socket path of the health endpoint.
func SocketPath() string {
	return filepath.Join(BaseDir(), "imsgwatch.sock")
}

// LogDir returns the daemon log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the daemon log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "imsgwatch.log")
}

// DefaultChatDBPath returns ~/Library/Messages/chat.db.
func DefaultChatDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// EnsureDir creates the base directory tree with proper permissions.
func EnsureDir() error {
	for _, d := range []string{BaseDir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
