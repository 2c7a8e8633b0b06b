package domain

import "database/sql"

// FolderType mirrors the ZFOLDERTYPE discriminator in the Notes store.
type FolderType int64

const (
	FolderRegular FolderType = 0
	FolderTrash   FolderType = 1
	FolderSmart   FolderType = 3
)

// Attachment type identifiers (UTIs) that need special source-path handling.
// Anything else is treated as generic media.
const (
	AttachmentPaperDocScan = "com.apple.paper.doc.scan"
	AttachmentPaperDocPDF  = "com.apple.paper.doc.pdf"
	AttachmentScan         = "com.apple.notes.gallery"
	AttachmentDrawing      = "com.apple.drawing.2"
)

// Account is a resolved Notes account: where on disk its media lives and
// what to call its folder level in multi-account exports.
type Account struct {
	Name string
	UUID string
	Path string // account-scoped media root inside the group container
}

// Folder is a materialized output directory.
type Folder struct {
	Path string
	Name string
}

// FileStats carries the timestamps and size recorded on an output file,
// as unix milliseconds.
type FileStats struct {
	CTime int64
	MTime int64
	Size  int64
}

// File is a materialized output file (a note or an attachment).
type File struct {
	Path      string
	Name      string
	Basename  string
	Extension string
	Parent    *Folder
	Stat      FileStats
}

// AccountRow is the raw account record from ziccloudsyncingobject.
type AccountRow struct {
	Name       string
	Identifier string
}

// FolderRow is the raw folder record. Parent is NULL for account-root
// folders.
type FolderRow struct {
	Title      string
	Parent     sql.NullInt64
	Identifier string
	FolderType FolderType
	Owner      int64
}

// NoteRow is the raw note record joined with its payload. The three
// creation-date columns exist because the schema gained more specific
// fields over OS versions; older stores report NULL for the newer ones.
type NoteRow struct {
	HexData           string
	Title             string
	Folder            sql.NullInt64
	CreationDate1     sql.NullFloat64
	CreationDate2     sql.NullFloat64
	CreationDate3     sql.NullFloat64
	ModificationDate  sql.NullFloat64
	PasswordProtected bool
}

// NoteListing is one entry of the top-level note scan.
type NoteListing struct {
	ID     int64
	Folder sql.NullInt64
	Title  string
}

// FolderListing is one entry of the top-level folder scan.
type FolderListing struct {
	ID    int64
	Title string
}

// ScanRow backs the paper-doc scan and fallback-PDF attachment kinds.
// FallbackPDFGeneration is NULL on OS versions that predate generations.
type ScanRow struct {
	Identifier            string
	Title                 sql.NullString
	FallbackPDFGeneration sql.NullString
	CreationDate          sql.NullFloat64
	ModificationDate      sql.NullFloat64
	Note                  int64
}

// ScanPageRow backs the per-page scan preview attachment kind.
type ScanPageRow struct {
	Identifier       string
	SizeWidth        int64
	SizeHeight       int64
	CreationDate     sql.NullFloat64
	ModificationDate sql.NullFloat64
	Note             int64
}

// DrawingRow backs handwritten drawings. FallbackImageGeneration is set
// on macOS 14 / iOS 17 and later; its presence switches the source-path
// convention.
type DrawingRow struct {
	Identifier              string
	FallbackImageGeneration sql.NullString
	CreationDate            sql.NullFloat64
	ModificationDate        sql.NullFloat64
	Note                    int64
	HandwritingSummary      sql.NullString
}

// MediaRow backs generic media attachments, joined from the media object
// and its owning syncing object.
type MediaRow struct {
	Identifier       string
	Filename         string
	Generation       sql.NullString
	CreationDate     sql.NullFloat64
	ModificationDate sql.NullFloat64
	Note             int64
}
