package ports

import "applenotes/internal/domain"

// Vault defines the output filesystem rooted at the export destination.
type Vault interface {
	// Root returns the destination root folder.
	Root() *domain.Folder

	// CreateFolders materializes a directory path, creating missing
	// parents. It fails if the path exists and is not a directory.
	CreateFolders(path string) (*domain.Folder, error)

	// SaveMarkdown writes content to <folder>/<sanitized title> and
	// returns the resulting file.
	SaveMarkdown(folder *domain.Folder, title, content string) (*domain.File, error)

	// WriteFile replaces the contents of an already-created file.
	WriteFile(path string, data []byte) error

	// Chtimes sets a file's access and modification times from unix
	// millisecond timestamps.
	Chtimes(path string, atimeMillis, mtimeMillis int64) error

	// AvailablePathForAttachment returns a collision-free path under the
	// attachments directory for the desired filename, avoiding both
	// paths present on disk and paths already claimed this run.
	AvailablePathForAttachment(filename string, claimed map[string]bool) (string, error)
}
