package importer

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"applenotes/internal/domain"
)

// errFolderCycle surfaces a corrupted parent chain instead of recursing
// until the stack blows.
var errFolderCycle = errors.New("folder parent chain contains a cycle")

// resolveAccount records an account's display name and media root. The
// moment a second account shows up the run switches to multi-account
// mode, which adds an account-name directory level for folders resolved
// from then on.
func (im *Importer) resolveAccount(id int64) error {
	if !im.multiAccount && len(im.resolvedAccounts) > 0 {
		im.multiAccount = true
	}

	row, err := im.store.Account(id)
	if err != nil {
		return err
	}

	im.resolvedAccounts[id] = &domain.Account{
		Name: row.Name,
		UUID: row.Identifier,
		Path: im.store.AccountPath(row.Identifier),
	}
	return nil
}

// ResolveFolder maps a folder to its output directory, resolving the
// parent chain first. Smart folders and (unless trash import is on)
// trash folders resolve to nil: they have no output location and their
// contents are unreachable through this path.
func (im *Importer) ResolveFolder(id int64) (*domain.Folder, error) {
	if folder, ok := im.resolvedFolders[id]; ok {
		return folder, nil
	}
	if im.resolvingFolders[id] {
		return nil, errFolderCycle
	}
	im.resolvingFolders[id] = true
	defer delete(im.resolvingFolders, id)

	row, err := im.store.Folder(id)
	if err != nil {
		return nil, err
	}

	var prefix string
	switch {
	case row.FolderType == domain.FolderSmart:
		// Smart folders are saved searches; nothing lives in them.
		return nil, nil
	case row.FolderType == domain.FolderTrash && !im.ImportTrashed:
		im.trashFolders = append(im.trashFolders, id)
		return nil, nil
	case row.Parent.Valid:
		parent, err := im.ResolveFolder(row.Parent.Int64)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, nil
		}
		prefix = parent.Path + "/"
	case im.multiAccount:
		// No parent, so the account level is ours to add.
		account := im.resolvedAccounts[row.Owner]
		if account == nil {
			return nil, fmt.Errorf("folder %d has unresolved owning account %d", id, row.Owner)
		}
		prefix = im.rootFolder.Path + "/" + account.Name + "/"
	default:
		prefix = im.rootFolder.Path + "/"
	}

	// The account's default folder maps straight onto its prefix, so
	// notes in "Notes" land at the root instead of under Notes/.
	if !strings.HasPrefix(row.Identifier, "DefaultFolder") {
		prefix += domain.SanitizeFileName(row.Title)
	}

	resolved, err := im.vault.CreateFolders(prefix)
	if err != nil {
		return nil, err
	}

	im.log.Debug("resolved folder", zap.Int64("id", id), zap.String("path", resolved.Path))
	im.resolvedFolders[id] = resolved
	im.owners[id] = row.Owner
	return resolved, nil
}
