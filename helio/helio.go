// Package helio holds application-wide defaults shared by the helio packages.
package helio

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "helio"

	// DefaultExportFile matches the download name the assistant has always offered.
	DefaultExportFile = "chat_history.json"

	// DefaultHistoryDSN keeps the session index in memory; it dies with the session.
	DefaultHistoryDSN = "file::memory:"

	DefaultModel = "gemini-2.5-flash"
)

var (
	DefaultConfigPath = filepath.Join(userConfigDir(), DefaultAppName)
)

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}
