package ports

import "applenotes/internal/domain"

// NoteStore defines read access to the source Notes database. One store
// handle is shared for the whole run and must be closed when the run
// ends, on success or failure.
type NoteStore interface {
	// EntityKeys returns the z_ent discriminator for each entity name
	// (ICAccount, ICFolder, ICNote, ICAttachment, ICMedia), loaded from
	// z_primarykey.
	EntityKeys() (map[string]int64, error)

	// Listing queries driving the top-level import loop.
	AccountIDs() ([]int64, error)
	Folders() ([]domain.FolderListing, error)
	Notes(excludedFolders []int64) ([]domain.NoteListing, error)

	// Per-id row loads.
	Account(id int64) (*domain.AccountRow, error)
	Folder(id int64) (*domain.FolderRow, error)
	Note(id int64) (*domain.NoteRow, error)
	ScanAttachment(id int64) (*domain.ScanRow, error)
	ScanPageAttachment(id int64) (*domain.ScanPageRow, error)
	DrawingAttachment(id int64) (*domain.DrawingRow, error)
	MediaAttachment(id int64) (*domain.MediaRow, error)

	// Identifier lookups, used while formatting payloads: note links and
	// attachment references carry external UUIDs, not primary keys.
	NoteID(identifier string) (int64, error)
	AttachmentID(identifier string) (id int64, typeUTI string, err error)

	// AccountPath returns the account-scoped media root for an account
	// identifier.
	AccountPath(identifier string) string

	// AttachmentSource reads an attachment binary at a path relative to
	// the account's media root, retrying under the shared group
	// container when the account-scoped read fails. accountPath may be
	// empty, in which case only the shared root is tried.
	AttachmentSource(accountPath, sourcePath string) ([]byte, error)

	Close() error
}
