package importer

import (
	"database/sql"

	"go.uber.org/zap"

	"applenotes/internal/domain"
	"applenotes/internal/ports"
)

// ResolveNote materializes one note as a markdown file. The empty file
// is created and cached before the payload is decoded: a payload that
// links back to this note (directly or through another note) then
// resolves to the cached entry instead of recursing forever.
func (im *Importer) ResolveNote(id int64) (*domain.File, error) {
	if file, ok := im.resolvedFiles[id]; ok {
		return file, nil
	}

	row, err := im.store.Note(id)
	if err != nil {
		return nil, err
	}

	if row.PasswordProtected {
		im.report.Skipped(row.Title, "note is password protected")
		return nil, nil
	}

	folder := im.rootFolder
	if row.Folder.Valid {
		if resolved := im.resolvedFolders[row.Folder.Int64]; resolved != nil {
			folder = resolved
		}
	}

	file, err := im.vault.SaveMarkdown(folder, row.Title+".md", "")
	if err != nil {
		return nil, err
	}

	im.log.Debug("importing note", zap.String("title", row.Title))
	im.resolvedFiles[id] = file
	if row.Folder.Valid {
		if owner, ok := im.owners[row.Folder.Int64]; ok {
			im.owners[id] = owner
		}
	}

	converter, err := im.decodeData(row.HexData)
	if err != nil {
		return nil, err
	}
	content, err := converter.Format()
	if err != nil {
		return nil, err
	}
	if err := im.vault.WriteFile(file.Path, []byte(content)); err != nil {
		return nil, err
	}

	ctime := domain.DecodeNullTime(firstRecordedTime(
		row.CreationDate3, row.CreationDate2, row.CreationDate1, row.ModificationDate,
	))
	mtime := domain.DecodeNullTime(row.ModificationDate)
	if err := im.vault.Chtimes(file.Path, mtime, ctime); err != nil {
		return nil, err
	}
	file.Stat = domain.FileStats{CTime: ctime, MTime: mtime, Size: int64(len(content))}

	im.parsedNotes++
	im.report.Progress(im.parsedNotes, im.noteCount)
	return file, nil
}

// decodeData turns a hex-encoded gzipped payload into a converter bound
// to this engine, so formatting can resolve notes and attachments.
func (im *Importer) decodeData(hexData string) (ports.Converter, error) {
	msg, err := im.registry.Decode(hexData, im.converters.MessageType())
	if err != nil {
		return nil, err
	}
	return im.converters.New(im, msg), nil
}

// firstRecordedTime picks the most specific recorded timestamp. The
// creation-date columns are ordered newest schema first; the
// modification date is the last resort before "no time recorded".
func firstRecordedTime(candidates ...sql.NullFloat64) sql.NullFloat64 {
	for _, c := range candidates {
		if c.Valid && c.Float64 >= 1 {
			return c
		}
	}
	return sql.NullFloat64{}
}

// LookupNote maps a note link's UUID to a primary key.
func (im *Importer) LookupNote(identifier string) (int64, error) {
	return im.store.NoteID(identifier)
}

// LookupAttachment maps an embedded attachment UUID to its primary key
// and type UTI.
func (im *Importer) LookupAttachment(identifier string) (int64, string, error) {
	return im.store.AttachmentID(identifier)
}

// HandwritingSummary returns recognized drawing text recorded while the
// drawing was resolved, when handwriting import is enabled.
func (im *Importer) HandwritingSummary(id int64) string {
	return im.handwriting[id]
}
