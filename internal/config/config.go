package config

import "os"

const (
	DefaultOutputPath = "~/Documents/AppleNotes"

	// DefaultDataPath is the Notes group container that holds
	// NoteStore.sqlite and all attachment media.
	DefaultDataPath = "~/Library/Group Containers/group.com.apple.notes"
)

// OutputPath returns the export destination from APPLE_NOTES_OUTPUT,
// falling back to DefaultOutputPath.
func OutputPath() string {
	if env := os.Getenv("APPLE_NOTES_OUTPUT"); env != "" {
		return env
	}
	return DefaultOutputPath
}

// DataPath returns the source data folder from APPLE_NOTES_DATA,
// falling back to DefaultDataPath. Pointing it elsewhere allows
// importing from a copied-off container.
func DataPath() string {
	if env := os.Getenv("APPLE_NOTES_DATA"); env != "" {
		return env
	}
	return DefaultDataPath
}
