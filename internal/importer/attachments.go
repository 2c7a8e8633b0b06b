package importer

import (
	"database/sql"
	"fmt"
	"path"
	"path/filepath"

	"applenotes/internal/domain"
)

// attachmentSpec is what a subtype branch computes: where the binary
// lives relative to a media root, and what to call the output file.
type attachmentSpec struct {
	sourcePath string
	outName    string
	outExt     string
	note       int64
	ctime      sql.NullFloat64
	mtime      sql.NullFloat64
	summary    string
}

// ResolveAttachment relocates one attachment binary into the vault,
// dispatching on the type UTI to find the subtype-specific source path.
// Failures are scoped to this attachment: the caller gets nil and the
// owning note keeps formatting.
func (im *Importer) ResolveAttachment(id int64, typeUTI string) (*domain.File, error) {
	if file, ok := im.resolvedFiles[id]; ok {
		return file, nil
	}

	spec, err := im.attachmentSpec(id, typeUTI)
	if err != nil {
		im.report.Failed(fmt.Sprintf("attachment %d", id), err.Error())
		return nil, nil
	}

	// Prefer the owning account's media root; the owner is inherited
	// through the note's folder and may be unknown when that folder
	// never resolved, in which case only the shared root is tried.
	var accountPath string
	if account := im.resolvedAccounts[im.owners[spec.note]]; account != nil {
		accountPath = account.Path
	}

	binary, err := im.store.AttachmentSource(accountPath, spec.sourcePath)
	if err != nil {
		im.report.Failed(spec.sourcePath, err.Error())
		return nil, nil
	}

	outPath, err := im.vault.AvailablePathForAttachment(spec.outName+"."+spec.outExt, im.claimedPaths)
	if err != nil {
		im.report.Failed(spec.sourcePath, err.Error())
		return nil, nil
	}
	im.claimedPaths[outPath] = true

	if err := im.vault.WriteFile(outPath, binary); err != nil {
		im.report.Failed(spec.sourcePath, err.Error())
		return nil, nil
	}

	ctime := domain.DecodeNullTime(spec.ctime)
	mtime := domain.DecodeNullTime(spec.mtime)
	if err := im.vault.Chtimes(outPath, mtime, ctime); err != nil {
		im.report.Failed(spec.sourcePath, err.Error())
		return nil, nil
	}

	if im.IncludeHandwriting && spec.summary != "" {
		im.handwriting[id] = spec.summary
	}

	file := &domain.File{
		Path:      outPath,
		Name:      filepath.Base(outPath),
		Basename:  spec.outName,
		Extension: spec.outExt,
		Parent:    im.rootFolder,
		Stat: domain.FileStats{
			CTime: ctime,
			MTime: mtime,
			Size:  int64(len(binary)),
		},
	}
	im.resolvedFiles[id] = file
	im.report.AttachmentImported(file.Path)
	return file, nil
}

// attachmentSpec dispatches on the type UTI. Each branch is a pure
// mapping from row fields to a source path and output name; unknown
// UTIs are generic media.
func (im *Importer) attachmentSpec(id int64, typeUTI string) (attachmentSpec, error) {
	switch typeUTI {
	case domain.AttachmentPaperDocScan, domain.AttachmentPaperDocPDF:
		// The fallback PDF only exists once the scan was modified.
		row, err := im.store.ScanAttachment(id)
		if err != nil {
			return attachmentSpec{}, err
		}
		outName := "Scan"
		if row.Title.Valid && row.Title.String != "" {
			outName = row.Title.String
		}
		return attachmentSpec{
			sourcePath: path.Join("FallbackPDFs", row.Identifier, row.FallbackPDFGeneration.String, "FallbackPDF.pdf"),
			outName:    outName,
			outExt:     "pdf",
			note:       row.Note,
			ctime:      row.CreationDate,
			mtime:      row.ModificationDate,
		}, nil

	case domain.AttachmentScan:
		row, err := im.store.ScanPageAttachment(id)
		if err != nil {
			return attachmentSpec{}, err
		}
		return attachmentSpec{
			sourcePath: path.Join("Previews",
				fmt.Sprintf("%s-1-%dx%d-0.jpeg", row.Identifier, row.SizeWidth, row.SizeHeight)),
			outName: "Scan Page",
			outExt:  "jpg",
			note:    row.Note,
			ctime:   row.CreationDate,
			mtime:   row.ModificationDate,
		}, nil

	case domain.AttachmentDrawing:
		row, err := im.store.DrawingAttachment(id)
		if err != nil {
			return attachmentSpec{}, err
		}
		spec := attachmentSpec{
			outName: "Drawing",
			outExt:  "png",
			note:    row.Note,
			ctime:   row.CreationDate,
			mtime:   row.ModificationDate,
			summary: row.HandwritingSummary.String,
		}
		if row.FallbackImageGeneration.Valid && row.FallbackImageGeneration.String != "" {
			// macOS 14 / iOS 17 and later
			spec.sourcePath = path.Join("FallbackImages", row.Identifier,
				row.FallbackImageGeneration.String, "FallbackImage.png")
		} else {
			spec.sourcePath = path.Join("FallbackImages", row.Identifier+".jpg")
		}
		return spec, nil

	default:
		row, err := im.store.MediaAttachment(id)
		if err != nil {
			return attachmentSpec{}, err
		}
		basename, extension := domain.Splitext(row.Filename)
		return attachmentSpec{
			sourcePath: path.Join("Media", row.Identifier, row.Generation.String, row.Filename),
			outName:    basename,
			outExt:     extension,
			note:       row.Note,
			ctime:      row.CreationDate,
			mtime:      row.ModificationDate,
		}, nil
	}
}
