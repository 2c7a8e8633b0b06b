package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"applenotes/internal/domain"
	"applenotes/internal/ports"
)

// Vault implements ports.Vault on the local filesystem, rooted at the
// export destination.
type Vault struct {
	root *domain.Folder
}

// Ensure Vault implements ports.Vault
var _ ports.Vault = (*Vault)(nil)

// New creates the output root directory and returns a vault rooted
// there. An unselectable output root is a setup failure.
func New(outputPath string) (*Vault, error) {
	if strings.HasPrefix(outputPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(home, outputPath[1:])
	}

	v := &Vault{}
	root, err := v.CreateFolders(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output root: %w", err)
	}
	v.root = root
	return v, nil
}

// Root returns the destination root folder.
func (v *Vault) Root() *domain.Folder {
	return v.root
}

// CreateFolders materializes a directory path. Leading dots are stripped
// per segment since hidden folders stay invisible in most vault apps.
// The call is idempotent for directories; a path occupied by anything
// else is an error.
func (v *Vault) CreateFolders(path string) (*domain.Folder, error) {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, segment := range segments {
		segments[i] = strings.TrimLeft(segment, ".")
	}
	cleaned := filepath.Clean(filepath.FromSlash(strings.Join(segments, "/")))

	info, err := os.Stat(cleaned)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%s exists and is not a directory", cleaned)
	case err != nil:
		if err := os.MkdirAll(cleaned, 0755); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", cleaned, err)
		}
	}

	return &domain.Folder{
		Path: cleaned,
		Name: filepath.Base(cleaned),
	}, nil
}

// SaveMarkdown writes content to <folder>/<sanitized title> and returns
// the resulting file.
func (v *Vault) SaveMarkdown(folder *domain.Folder, title, content string) (*domain.File, error) {
	name := domain.SanitizeFileName(title)
	path := filepath.Join(folder.Path, name)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	basename, extension := domain.Splitext(name)
	now := time.Now().UnixMilli()
	return &domain.File{
		Path:      path,
		Name:      name,
		Basename:  basename,
		Extension: extension,
		Parent:    folder,
		Stat: domain.FileStats{
			CTime: now,
			MTime: now,
			Size:  int64(len(content)),
		},
	}, nil
}

// WriteFile replaces the contents of an already-created file.
func (v *Vault) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// Chtimes sets access and modification times from unix milliseconds.
func (v *Vault) Chtimes(path string, atimeMillis, mtimeMillis int64) error {
	return os.Chtimes(path, time.UnixMilli(atimeMillis), time.UnixMilli(mtimeMillis))
}

// AvailablePathForAttachment negotiates a collision-free path under the
// attachments directory. Both on-disk files and paths claimed earlier in
// the run count as taken; the first free numeric suffix wins.
func (v *Vault) AvailablePathForAttachment(filename string, claimed map[string]bool) (string, error) {
	basename, extension := domain.Splitext(filename)
	basename = domain.CollapseWhitespace(basename)

	attachments, err := v.CreateFolders(filepath.Join(v.root.Path, "attachments"))
	if err != nil {
		return "", err
	}

	fullExt := ""
	if extension != "" {
		fullExt = "." + extension
	}

	path := filepath.Join(attachments.Path, basename+fullExt)
	for i := 1; claimed[path] || fileExists(path); i++ {
		path = filepath.Join(attachments.Path, fmt.Sprintf("%s_%d%s", basename, i, fullExt))
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
