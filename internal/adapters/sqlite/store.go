package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"applenotes/internal/domain"
	"applenotes/internal/ports"
)

const noteDB = "NoteStore.sqlite"

// Store implements ports.NoteStore against a read-only clone of the
// Notes database. The database and its WAL sidecars are copied into a
// per-run temp directory first, so the live store is never touched.
type Store struct {
	db       *sql.DB
	dataPath string // shared group container root
	tmpDir   string
	keys     map[string]int64
	log      *zap.Logger
}

// Ensure Store implements NoteStore
var _ ports.NoteStore = (*Store)(nil)

// Open clones the Notes database found under dataPath and opens the
// clone read-only. An inaccessible data folder is a setup failure.
func Open(dataPath string, log *zap.Logger) (*Store, error) {
	dataPath = expandHome(dataPath)

	info, err := os.Stat(dataPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access notes data folder %s: %w", dataPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notes data folder %s is not a directory", dataPath)
	}

	tmpDir := filepath.Join(os.TempDir(), "applenotes-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	original := filepath.Join(dataPath, noteDB)
	clone := filepath.Join(tmpDir, noteDB)
	if err := copyFile(original, clone); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to clone note store: %w", err)
	}
	// WAL sidecars only exist while Notes has uncommitted pages.
	for _, ext := range []string{"-shm", "-wal"} {
		if err := copyFile(original+ext, clone+ext); err != nil && !os.IsNotExist(err) {
			os.RemoveAll(tmpDir)
			return nil, fmt.Errorf("failed to clone note store sidecar: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+clone+"?mode=ro")
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to open note store: %w", err)
	}

	log.Debug("cloned note store", zap.String("clone", clone))

	return &Store{db: db, dataPath: dataPath, tmpDir: tmpDir, log: log}, nil
}

// Close releases the database handle and removes the cloned store.
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.tmpDir != "" {
		os.RemoveAll(s.tmpDir)
	}
	return err
}

// EntityKeys loads the z_ent discriminator per entity name from
// z_primarykey. The result is cached for the life of the store.
func (s *Store) EntityKeys() (map[string]int64, error) {
	if s.keys != nil {
		return s.keys, nil
	}

	rows, err := s.db.Query(`SELECT z_ent, z_name FROM z_primarykey`)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var ent int64
		var name string
		if err := rows.Scan(&ent, &name); err != nil {
			return nil, err
		}
		keys[name] = ent
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.keys = keys
	return keys, nil
}

func (s *Store) entityKey(name string) (int64, error) {
	keys, err := s.EntityKeys()
	if err != nil {
		return 0, err
	}
	key, ok := keys[name]
	if !ok {
		return 0, fmt.Errorf("entity %s not present in store", name)
	}
	return key, nil
}

// AccountIDs returns the primary keys of all accounts.
func (s *Store) AccountIDs() ([]int64, error) {
	key, err := s.entityKey("ICAccount")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT z_pk FROM ziccloudsyncingobject WHERE z_ent = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Folders returns the primary key and title of all folders.
func (s *Store) Folders() ([]domain.FolderListing, error) {
	key, err := s.entityKey("ICFolder")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT z_pk, ztitle2 FROM ziccloudsyncingobject WHERE z_ent = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.FolderListing
	for rows.Next() {
		var f domain.FolderListing
		var title sql.NullString
		if err := rows.Scan(&f.ID, &title); err != nil {
			return nil, err
		}
		f.Title = title.String
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// Notes returns all titled notes outside the excluded folders. Notes
// without a folder reference are kept; they land in the export root.
func (s *Store) Notes(excludedFolders []int64) ([]domain.NoteListing, error) {
	key, err := s.entityKey("ICNote")
	if err != nil {
		return nil, err
	}

	query := `SELECT z_pk, zfolder, ztitle1 FROM ziccloudsyncingobject
		WHERE z_ent = ? AND ztitle1 IS NOT NULL`
	args := []any{key}
	if len(excludedFolders) > 0 {
		query += ` AND (zfolder IS NULL OR zfolder NOT IN (` +
			strings.TrimSuffix(strings.Repeat("?,", len(excludedFolders)), ",") + `))`
		for _, id := range excludedFolders {
			args = append(args, id)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.NoteListing
	for rows.Next() {
		var n domain.NoteListing
		if err := rows.Scan(&n.ID, &n.Folder, &n.Title); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Account loads one account row.
func (s *Store) Account(id int64) (*domain.AccountRow, error) {
	key, err := s.entityKey("ICAccount")
	if err != nil {
		return nil, err
	}

	var row domain.AccountRow
	var name, identifier sql.NullString
	err = s.db.QueryRow(`
		SELECT zname, zidentifier FROM ziccloudsyncingobject
		WHERE z_ent = ? AND z_pk = ?
	`, key, id).Scan(&name, &identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	row.Name = name.String
	row.Identifier = identifier.String
	return &row, nil
}

// Folder loads one folder row.
func (s *Store) Folder(id int64) (*domain.FolderRow, error) {
	key, err := s.entityKey("ICFolder")
	if err != nil {
		return nil, err
	}

	var row domain.FolderRow
	var title, identifier sql.NullString
	var folderType sql.NullInt64
	err = s.db.QueryRow(`
		SELECT ztitle2, zparent, zidentifier, zfoldertype, zowner
		FROM ziccloudsyncingobject
		WHERE z_ent = ? AND z_pk = ?
	`, key, id).Scan(&title, &row.Parent, &identifier, &folderType, &row.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load folder %d: %w", id, err)
	}
	row.Title = title.String
	row.Identifier = identifier.String
	row.FolderType = domain.FolderType(folderType.Int64)
	return &row, nil
}

// Note loads one note row joined with its compressed payload. The
// NULL-padded subselect keeps the query valid on store editions whose
// schema predates the newer creation-date and password columns.
func (s *Store) Note(id int64) (*domain.NoteRow, error) {
	var row domain.NoteRow
	var hexData, title sql.NullString
	var passwordProtected sql.NullInt64
	err := s.db.QueryRow(`
		SELECT
			hex(nd.zdata) AS zhexdata, zcso.ztitle1, zcso.zfolder,
			zcso.zcreationdate1, zcso.zcreationdate2, zcso.zcreationdate3,
			zcso.zmodificationdate1, zcso.zispasswordprotected
		FROM
			zicnotedata AS nd,
			(SELECT
				*, NULL AS zcreationdate3, NULL AS zcreationdate2,
				NULL AS zispasswordprotected FROM ziccloudsyncingobject
			) AS zcso
		WHERE
			zcso.z_pk = nd.znote
			AND zcso.z_pk = ?
	`, id).Scan(
		&hexData, &title, &row.Folder,
		&row.CreationDate1, &row.CreationDate2, &row.CreationDate3,
		&row.ModificationDate, &passwordProtected,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", id, err)
	}
	row.HexData = hexData.String
	row.Title = title.String
	row.PasswordProtected = passwordProtected.Int64 != 0
	return &row, nil
}

// ScanAttachment loads the row backing a scanned-document attachment.
func (s *Store) ScanAttachment(id int64) (*domain.ScanRow, error) {
	key, err := s.entityKey("ICAttachment")
	if err != nil {
		return nil, err
	}

	var row domain.ScanRow
	var identifier sql.NullString
	err = s.db.QueryRow(`
		SELECT
			zidentifier, ztitle, zfallbackpdfgeneration, zcreationdate, zmodificationdate, znote
		FROM
			(SELECT *, NULL AS zfallbackpdfgeneration FROM ziccloudsyncingobject)
		WHERE
			z_ent = ? AND z_pk = ?
	`, key, id).Scan(
		&identifier, &row.Title, &row.FallbackPDFGeneration,
		&row.CreationDate, &row.ModificationDate, &row.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan attachment %d: %w", id, err)
	}
	row.Identifier = identifier.String
	return &row, nil
}

// ScanPageAttachment loads the row backing a single scanned page.
func (s *Store) ScanPageAttachment(id int64) (*domain.ScanPageRow, error) {
	key, err := s.entityKey("ICAttachment")
	if err != nil {
		return nil, err
	}

	var row domain.ScanPageRow
	var identifier sql.NullString
	err = s.db.QueryRow(`
		SELECT
			zidentifier, zsizeheight, zsizewidth, zcreationdate, zmodificationdate, znote
		FROM ziccloudsyncingobject
		WHERE
			z_ent = ? AND z_pk = ?
	`, key, id).Scan(
		&identifier, &row.SizeHeight, &row.SizeWidth,
		&row.CreationDate, &row.ModificationDate, &row.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan page %d: %w", id, err)
	}
	row.Identifier = identifier.String
	return &row, nil
}

// DrawingAttachment loads the row backing a handwritten drawing.
func (s *Store) DrawingAttachment(id int64) (*domain.DrawingRow, error) {
	key, err := s.entityKey("ICAttachment")
	if err != nil {
		return nil, err
	}

	var row domain.DrawingRow
	var identifier sql.NullString
	err = s.db.QueryRow(`
		SELECT
			zidentifier, zfallbackimagegeneration, zcreationdate, zmodificationdate,
			znote, zhandwritingsummary
		FROM
			(SELECT *, NULL AS zfallbackimagegeneration FROM ziccloudsyncingobject)
		WHERE
			z_ent = ? AND z_pk = ?
	`, key, id).Scan(
		&identifier, &row.FallbackImageGeneration,
		&row.CreationDate, &row.ModificationDate, &row.Note, &row.HandwritingSummary,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load drawing %d: %w", id, err)
	}
	row.Identifier = identifier.String
	return &row, nil
}

// MediaAttachment loads a generic media attachment, joining the media
// object with the syncing object that owns it.
func (s *Store) MediaAttachment(id int64) (*domain.MediaRow, error) {
	key, err := s.entityKey("ICMedia")
	if err != nil {
		return nil, err
	}

	var row domain.MediaRow
	var identifier, filename sql.NullString
	err = s.db.QueryRow(`
		SELECT
			a.zidentifier, a.zfilename,
			a.zgeneration1, b.zcreationdate, b.zmodificationdate, b.znote
		FROM
			(SELECT *, NULL AS zgeneration1 FROM ziccloudsyncingobject) AS a,
			ziccloudsyncingobject AS b
		WHERE
			a.z_ent = ? AND a.z_pk = ? AND a.z_pk = b.zmedia
	`, key, id).Scan(
		&identifier, &filename, &row.Generation,
		&row.CreationDate, &row.ModificationDate, &row.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load media attachment %d: %w", id, err)
	}
	row.Identifier = identifier.String
	row.Filename = filename.String
	return &row, nil
}

// NoteID maps a note's external identifier to its primary key.
func (s *Store) NoteID(identifier string) (int64, error) {
	key, err := s.entityKey("ICNote")
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRow(`
		SELECT z_pk FROM ziccloudsyncingobject
		WHERE z_ent = ? AND zidentifier = ? COLLATE NOCASE
	`, key, identifier).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up note %s: %w", identifier, err)
	}
	return id, nil
}

// AttachmentID maps an attachment's external identifier to its primary
// key and type UTI.
func (s *Store) AttachmentID(identifier string) (int64, string, error) {
	key, err := s.entityKey("ICAttachment")
	if err != nil {
		return 0, "", err
	}

	var id int64
	var uti sql.NullString
	err = s.db.QueryRow(`
		SELECT z_pk, ztypeuti FROM ziccloudsyncingobject
		WHERE z_ent = ? AND zidentifier = ? COLLATE NOCASE
	`, key, identifier).Scan(&id, &uti)
	if err != nil {
		return 0, "", fmt.Errorf("failed to look up attachment %s: %w", identifier, err)
	}
	return id, uti.String, nil
}

// AccountPath returns the media root for an account identifier.
func (s *Store) AccountPath(identifier string) string {
	return filepath.Join(s.dataPath, "Accounts", identifier)
}

// AttachmentSource reads an attachment binary, preferring the account
// media root and falling back to the shared group container.
func (s *Store) AttachmentSource(accountPath, sourcePath string) ([]byte, error) {
	if accountPath != "" {
		if data, err := os.ReadFile(filepath.Join(accountPath, sourcePath)); err == nil {
			return data, nil
		}
	}
	data, err := os.ReadFile(filepath.Join(s.dataPath, sourcePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment source %s: %w", sourcePath, err)
	}
	return data, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return path
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
