package importer_test

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"applenotes/internal/adapters/markdown"
	"applenotes/internal/adapters/vault"
	"applenotes/internal/domain"
	"applenotes/internal/importer"
	"applenotes/internal/noteproto"
)

type attachmentRef struct {
	id  int64
	uti string
}

// fakeStore implements ports.NoteStore from in-memory rows.
type fakeStore struct {
	accountOrder []int64
	accounts     map[int64]*domain.AccountRow
	folderOrder  []int64
	folders      map[int64]*domain.FolderRow
	noteOrder    []int64
	notes        map[int64]*domain.NoteRow
	noteUUIDs    map[string]int64
	attachUUIDs  map[string]attachmentRef
	scans        map[int64]*domain.ScanRow
	scanPages    map[int64]*domain.ScanPageRow
	drawings     map[int64]*domain.DrawingRow
	media        map[int64]*domain.MediaRow
	sources      map[string][]byte

	noteLoads        map[int64]int
	requestedSources []string
	excludedSeen     []int64
	closed           bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:    map[int64]*domain.AccountRow{},
		folders:     map[int64]*domain.FolderRow{},
		notes:       map[int64]*domain.NoteRow{},
		noteUUIDs:   map[string]int64{},
		attachUUIDs: map[string]attachmentRef{},
		scans:       map[int64]*domain.ScanRow{},
		scanPages:   map[int64]*domain.ScanPageRow{},
		drawings:    map[int64]*domain.DrawingRow{},
		media:       map[int64]*domain.MediaRow{},
		sources:     map[string][]byte{},
		noteLoads:   map[int64]int{},
	}
}

func (s *fakeStore) EntityKeys() (map[string]int64, error) {
	return map[string]int64{
		"ICAccount": 1, "ICFolder": 2, "ICNote": 3, "ICAttachment": 4, "ICMedia": 5,
	}, nil
}

func (s *fakeStore) AccountIDs() ([]int64, error) { return s.accountOrder, nil }

func (s *fakeStore) Folders() ([]domain.FolderListing, error) {
	var listings []domain.FolderListing
	for _, id := range s.folderOrder {
		listings = append(listings, domain.FolderListing{ID: id, Title: s.folders[id].Title})
	}
	return listings, nil
}

func (s *fakeStore) Notes(excluded []int64) ([]domain.NoteListing, error) {
	s.excludedSeen = excluded
	skip := map[int64]bool{}
	for _, id := range excluded {
		skip[id] = true
	}

	var listings []domain.NoteListing
	for _, id := range s.noteOrder {
		row := s.notes[id]
		if row.Folder.Valid && skip[row.Folder.Int64] {
			continue
		}
		listings = append(listings, domain.NoteListing{ID: id, Folder: row.Folder, Title: row.Title})
	}
	return listings, nil
}

func (s *fakeStore) Account(id int64) (*domain.AccountRow, error) {
	if row, ok := s.accounts[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no account %d", id)
}

func (s *fakeStore) Folder(id int64) (*domain.FolderRow, error) {
	if row, ok := s.folders[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no folder %d", id)
}

func (s *fakeStore) Note(id int64) (*domain.NoteRow, error) {
	s.noteLoads[id]++
	if row, ok := s.notes[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no note %d", id)
}

func (s *fakeStore) ScanAttachment(id int64) (*domain.ScanRow, error) {
	if row, ok := s.scans[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no scan attachment %d", id)
}

func (s *fakeStore) ScanPageAttachment(id int64) (*domain.ScanPageRow, error) {
	if row, ok := s.scanPages[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no scan page %d", id)
}

func (s *fakeStore) DrawingAttachment(id int64) (*domain.DrawingRow, error) {
	if row, ok := s.drawings[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no drawing %d", id)
}

func (s *fakeStore) MediaAttachment(id int64) (*domain.MediaRow, error) {
	if row, ok := s.media[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("no media attachment %d", id)
}

func (s *fakeStore) NoteID(identifier string) (int64, error) {
	if id, ok := s.noteUUIDs[identifier]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("no note with identifier %s", identifier)
}

func (s *fakeStore) AttachmentID(identifier string) (int64, string, error) {
	if ref, ok := s.attachUUIDs[identifier]; ok {
		return ref.id, ref.uti, nil
	}
	return 0, "", fmt.Errorf("no attachment with identifier %s", identifier)
}

func (s *fakeStore) AccountPath(identifier string) string {
	return filepath.Join("/src/Accounts", identifier)
}

func (s *fakeStore) AttachmentSource(accountPath, sourcePath string) ([]byte, error) {
	s.requestedSources = append(s.requestedSources, sourcePath)
	if data, ok := s.sources[sourcePath]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("no source at %s", sourcePath)
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type progressTick struct {
	current, total int
}

// fakeReporter records everything reported during a run.
type fakeReporter struct {
	failed      []string
	reasons     []string
	skipped     []string
	attachments []string
	progress    []progressTick
}

func (r *fakeReporter) Failed(name, reason string) {
	r.failed = append(r.failed, name)
	r.reasons = append(r.reasons, reason)
}
func (r *fakeReporter) Skipped(name, reason string)    { r.skipped = append(r.skipped, name) }
func (r *fakeReporter) AttachmentImported(path string) { r.attachments = append(r.attachments, path) }
func (r *fakeReporter) Progress(current, total int) {
	r.progress = append(r.progress, progressTick{current, total})
}

type harness struct {
	store    *fakeStore
	reporter *fakeReporter
	vault    *vault.Vault
	registry *noteproto.Registry
	engine   *importer.Importer
}

func newHarness(t *testing.T, store *fakeStore) *harness {
	t.Helper()

	out, err := vault.New(filepath.Join(t.TempDir(), "export"))
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	registry, err := noteproto.NewRegistry()
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	reporter := &fakeReporter{}
	engine := importer.New(store, out, reporter, registry,
		markdown.Factory{OmitFirstLine: true}, zap.NewNop())

	return &harness{
		store:    store,
		reporter: reporter,
		vault:    out,
		registry: registry,
		engine:   engine,
	}
}

type payloadRun struct {
	length        int
	link          string
	attachmentID  string
	attachmentUTI string
}

// buildPayload encodes a note document the way the store does:
// protobuf, gzip, hex.
func buildPayload(t *testing.T, registry *noteproto.Registry, text string, runs ...payloadRun) string {
	t.Helper()

	docMD, err := registry.MessageDescriptor(noteproto.DocumentType)
	if err != nil {
		t.Fatal(err)
	}

	doc := dynamicpb.NewMessage(docMD)
	noteField := docMD.Fields().ByName("note")
	note := dynamicpb.NewMessage(noteField.Message())
	noteFields := note.Descriptor().Fields()
	note.Set(noteFields.ByName("note_text"), protoreflect.ValueOfString(text))

	runField := noteFields.ByName("attribute_run")
	list := note.Mutable(runField).List()
	for _, r := range runs {
		run := dynamicpb.NewMessage(runField.Message())
		runFields := run.Descriptor().Fields()
		run.Set(runFields.ByName("length"), protoreflect.ValueOfInt32(int32(r.length)))
		if r.link != "" {
			run.Set(runFields.ByName("link"), protoreflect.ValueOfString(r.link))
		}
		if r.attachmentID != "" {
			infoField := runFields.ByName("attachment_info")
			info := dynamicpb.NewMessage(infoField.Message())
			infoFields := info.Descriptor().Fields()
			info.Set(infoFields.ByName("attachment_identifier"), protoreflect.ValueOfString(r.attachmentID))
			info.Set(infoFields.ByName("type_uti"), protoreflect.ValueOfString(r.attachmentUTI))
			run.Set(infoField, protoreflect.ValueOfMessage(info))
		}
		list.Append(protoreflect.ValueOfMessage(run))
	}
	doc.Set(noteField, protoreflect.ValueOfMessage(note))

	raw, err := proto.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return hex.EncodeToString(buf.Bytes())
}

func nullInt(v int64) sql.NullInt64       { return sql.NullInt64{Int64: v, Valid: true} }
func nullFloat(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }
func nullString(v string) sql.NullString  { return sql.NullString{String: v, Valid: true} }

func TestImport_SingleNoteEndToEnd(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.folderOrder = []int64{10}
	store.folders[10] = &domain.FolderRow{
		Title: "Notes", Identifier: "DefaultFolder-ABC", Owner: 1,
	}

	h := newHarness(t, store)
	store.noteOrder = []int64{100}
	store.notes[100] = &domain.NoteRow{
		HexData:          buildPayload(t, h.registry, "Groceries\nMilk\nEggs"),
		Title:            "Groceries",
		Folder:           nullInt(10),
		CreationDate1:    nullFloat(100),
		ModificationDate: nullFloat(200),
	}

	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	// The default folder contributes no path segment.
	notePath := filepath.Join(h.vault.Root().Path, "Groceries.md")
	data, err := os.ReadFile(notePath)
	if err != nil {
		t.Fatalf("expected note at %s: %v", notePath, err)
	}
	if string(data) != "Milk\nEggs" {
		t.Errorf("content = %q, want %q", data, "Milk\nEggs")
	}

	info, err := os.Stat(notePath)
	if err != nil {
		t.Fatal(err)
	}
	wantMtime := int64((100 + domain.CoreTimeOffset) * 1000)
	if got := info.ModTime().UnixMilli(); got != wantMtime {
		t.Errorf("mtime = %d, want %d", got, wantMtime)
	}

	if len(h.reporter.progress) != 1 || h.reporter.progress[0] != (progressTick{1, 1}) {
		t.Errorf("progress = %v, want one 1/1 tick", h.reporter.progress)
	}
	if len(h.reporter.failed) != 0 {
		t.Errorf("unexpected failures: %v", h.reporter.failed)
	}
	if !store.closed {
		t.Error("store was not closed after the run")
	}
}

func TestImport_FolderPathConstruction(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.folderOrder = []int64{10, 11}
	store.folders[10] = &domain.FolderRow{Title: "Work", Identifier: "F-10", Owner: 1}
	store.folders[11] = &domain.FolderRow{Title: "Projects", Identifier: "F-11", Parent: nullInt(10), Owner: 1}

	h := newHarness(t, store)
	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	nested := filepath.Join(h.vault.Root().Path, "Work", "Projects")
	if info, err := os.Stat(nested); err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s", nested)
	}
}

func TestImport_MultiAccountAddsAccountLevel(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1, 2}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.accounts[2] = &domain.AccountRow{Name: "On My Mac", Identifier: "ACC-2"}
	store.folderOrder = []int64{10}
	store.folders[10] = &domain.FolderRow{Title: "Work", Identifier: "F-10", Owner: 2}

	h := newHarness(t, store)
	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	want := filepath.Join(h.vault.Root().Path, "On My Mac", "Work")
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s", want)
	}
}

func TestImport_SmartAndTrashFolders(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.folderOrder = []int64{40, 41}
	store.folders[40] = &domain.FolderRow{
		Title: "Saved Search", Identifier: "F-40", FolderType: domain.FolderSmart, Owner: 1,
	}
	store.folders[41] = &domain.FolderRow{
		Title: "Recently Deleted", Identifier: "F-41", FolderType: domain.FolderTrash, Owner: 1,
	}

	h := newHarness(t, store)
	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	for _, name := range []string{"Saved Search", "Recently Deleted"} {
		if _, err := os.Stat(filepath.Join(h.vault.Root().Path, name)); err == nil {
			t.Errorf("folder %q should not materialize", name)
		}
	}
	if len(store.excludedSeen) != 1 || store.excludedSeen[0] != 41 {
		t.Errorf("excluded folders = %v, want [41]", store.excludedSeen)
	}
	if len(h.reporter.failed) != 0 {
		t.Errorf("exclusions are not failures: %v", h.reporter.failed)
	}
}

func TestImport_TrashedFoldersKeptWhenEnabled(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.folderOrder = []int64{41}
	store.folders[41] = &domain.FolderRow{
		Title: "Recently Deleted", Identifier: "F-41", FolderType: domain.FolderTrash, Owner: 1,
	}

	h := newHarness(t, store)
	h.engine.ImportTrashed = true
	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	want := filepath.Join(h.vault.Root().Path, "Recently Deleted")
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s", want)
	}
	if len(store.excludedSeen) != 0 {
		t.Errorf("excluded folders = %v, want none", store.excludedSeen)
	}
}

func TestResolveFolder_ParentCycleFails(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.folderOrder = []int64{20, 21}
	store.folders[20] = &domain.FolderRow{Title: "A", Identifier: "F-20", Parent: nullInt(21), Owner: 1}
	store.folders[21] = &domain.FolderRow{Title: "B", Identifier: "F-21", Parent: nullInt(20), Owner: 1}

	h := newHarness(t, store)
	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if len(h.reporter.failed) == 0 {
		t.Fatal("expected cycle to be reported as a folder failure")
	}
}

func TestResolveNote_AtMostOnce(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}

	h := newHarness(t, store)
	store.noteOrder = []int64{100}
	store.notes[100] = &domain.NoteRow{
		HexData: buildPayload(t, h.registry, "Once\nbody"),
		Title:   "Once",
	}

	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	first, err := h.engine.ResolveNote(100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	second, err := h.engine.ResolveNote(100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if first == nil || first != second {
		t.Error("second resolution should return the cached file")
	}
	if store.noteLoads[100] != 1 {
		t.Errorf("note row loaded %d times, want 1", store.noteLoads[100])
	}
}

func TestResolveNote_PasswordProtectedSkips(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.noteOrder = []int64{100}
	store.notes[100] = &domain.NoteRow{Title: "Secret", PasswordProtected: true}

	h := newHarness(t, store)
	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if len(h.reporter.skipped) != 1 || h.reporter.skipped[0] != "Secret" {
		t.Errorf("skipped = %v, want [Secret]", h.reporter.skipped)
	}
	if len(h.reporter.failed) != 0 {
		t.Errorf("a policy skip is not a failure: %v", h.reporter.failed)
	}
	if _, err := os.Stat(filepath.Join(h.vault.Root().Path, "Secret.md")); err == nil {
		t.Error("skipped note should not produce a file")
	}
}

func TestResolveNote_SelfLinkCycleSafe(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.noteUUIDs["uuid-loop"] = 100

	h := newHarness(t, store)
	text := "Loop\nsee link"
	store.noteOrder = []int64{100}
	store.notes[100] = &domain.NoteRow{
		HexData: buildPayload(t, h.registry, text,
			payloadRun{length: len("Loop\nsee ")},
			payloadRun{length: len("link"), link: "applenotes://showNote?identifier=uuid-loop"},
		),
		Title: "Loop",
	}

	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(h.vault.Root().Path, "Loop.md"))
	if err != nil {
		t.Fatalf("expected note file: %v", err)
	}
	if string(data) != "see [[Loop|link]]" {
		t.Errorf("content = %q, want %q", data, "see [[Loop|link]]")
	}
	if store.noteLoads[100] != 1 {
		t.Errorf("note row loaded %d times, want 1", store.noteLoads[100])
	}
}

func TestResolveAttachment_Disambiguation(t *testing.T) {
	store := newFakeStore()
	store.media[301] = &domain.MediaRow{
		Identifier: "M-1", Filename: "Photo.jpg", Note: 100,
		CreationDate: nullFloat(10), ModificationDate: nullFloat(20),
	}
	store.media[302] = &domain.MediaRow{
		Identifier: "M-2", Filename: "Photo.jpg", Note: 100,
		CreationDate: nullFloat(10), ModificationDate: nullFloat(20),
	}
	store.sources[filepath.Join("Media", "M-1", "Photo.jpg")] = []byte("one")
	store.sources[filepath.Join("Media", "M-2", "Photo.jpg")] = []byte("two")

	h := newHarness(t, store)
	first, err := h.engine.ResolveAttachment(301, "public.jpeg")
	if err != nil || first == nil {
		t.Fatalf("first attachment failed: %v", err)
	}
	second, err := h.engine.ResolveAttachment(302, "public.jpeg")
	if err != nil || second == nil {
		t.Fatalf("second attachment failed: %v", err)
	}

	if filepath.Base(first.Path) != "Photo.jpg" {
		t.Errorf("first = %q, want Photo.jpg", filepath.Base(first.Path))
	}
	if filepath.Base(second.Path) != "Photo_1.jpg" {
		t.Errorf("second = %q, want Photo_1.jpg", filepath.Base(second.Path))
	}
	if len(h.reporter.attachments) != 2 {
		t.Errorf("attachment successes = %d, want 2", len(h.reporter.attachments))
	}
}

func TestResolveAttachment_SourcePaths(t *testing.T) {
	tests := []struct {
		name     string
		uti      string
		setup    func(s *fakeStore)
		wantPath string
		wantName string
	}{
		{
			name: "scan pdf with generation",
			uti:  domain.AttachmentPaperDocScan,
			setup: func(s *fakeStore) {
				s.scans[400] = &domain.ScanRow{
					Identifier: "S-1", FallbackPDFGeneration: nullString("3"), Note: 100,
				}
			},
			wantPath: filepath.Join("FallbackPDFs", "S-1", "3", "FallbackPDF.pdf"),
			wantName: "Scan.pdf",
		},
		{
			name: "scan pdf without generation",
			uti:  domain.AttachmentPaperDocPDF,
			setup: func(s *fakeStore) {
				s.scans[400] = &domain.ScanRow{Identifier: "S-1", Note: 100}
			},
			wantPath: filepath.Join("FallbackPDFs", "S-1", "FallbackPDF.pdf"),
			wantName: "Scan.pdf",
		},
		{
			name: "scan page",
			uti:  domain.AttachmentScan,
			setup: func(s *fakeStore) {
				s.scanPages[400] = &domain.ScanPageRow{
					Identifier: "P-1", SizeWidth: 100, SizeHeight: 200, Note: 100,
				}
			},
			wantPath: filepath.Join("Previews", "P-1-1-100x200-0.jpeg"),
			wantName: "Scan_Page.jpg",
		},
		{
			name: "drawing with fallback generation",
			uti:  domain.AttachmentDrawing,
			setup: func(s *fakeStore) {
				s.drawings[400] = &domain.DrawingRow{
					Identifier: "D-1", FallbackImageGeneration: nullString("7"), Note: 100,
				}
			},
			wantPath: filepath.Join("FallbackImages", "D-1", "7", "FallbackImage.png"),
			wantName: "Drawing.png",
		},
		{
			name: "drawing legacy",
			uti:  domain.AttachmentDrawing,
			setup: func(s *fakeStore) {
				s.drawings[400] = &domain.DrawingRow{Identifier: "D-1", Note: 100}
			},
			wantPath: filepath.Join("FallbackImages", "D-1.jpg"),
			wantName: "Drawing.png",
		},
		{
			name: "generic media",
			uti:  "public.png",
			setup: func(s *fakeStore) {
				s.media[400] = &domain.MediaRow{
					Identifier: "M-1", Filename: "Dog photo.png",
					Generation: nullString("9"), Note: 100,
				}
			},
			wantPath: filepath.Join("Media", "M-1", "9", "Dog photo.png"),
			wantName: "Dog_photo.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tt.setup(store)
			store.sources[tt.wantPath] = []byte("binary")

			h := newHarness(t, store)
			file, err := h.engine.ResolveAttachment(400, tt.uti)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if file == nil {
				t.Fatalf("attachment did not resolve; failures: %v", h.reporter.reasons)
			}

			last := store.requestedSources[len(store.requestedSources)-1]
			if last != tt.wantPath {
				t.Errorf("source path = %q, want %q", last, tt.wantPath)
			}
			if filepath.Base(file.Path) != tt.wantName {
				t.Errorf("output name = %q, want %q", filepath.Base(file.Path), tt.wantName)
			}
		})
	}
}

func TestResolveAttachment_MissingSourceFailsSoftly(t *testing.T) {
	store := newFakeStore()
	store.scanPages[400] = &domain.ScanPageRow{
		Identifier: "P-1", SizeWidth: 10, SizeHeight: 10, Note: 100,
	}

	h := newHarness(t, store)
	file, err := h.engine.ResolveAttachment(400, domain.AttachmentScan)
	if err != nil {
		t.Fatalf("a missing source must not error out: %v", err)
	}
	if file != nil {
		t.Error("expected nil file for unreadable attachment")
	}

	wantPath := filepath.Join("Previews", "P-1-1-10x10-0.jpeg")
	if len(h.reporter.failed) != 1 || h.reporter.failed[0] != wantPath {
		t.Errorf("failed = %v, want [%s]", h.reporter.failed, wantPath)
	}
}

func TestImport_PerNoteFailureContinues(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}

	h := newHarness(t, store)
	store.noteOrder = []int64{100, 101}
	store.notes[100] = &domain.NoteRow{HexData: "not hex at all", Title: "Broken"}
	store.notes[101] = &domain.NoteRow{
		HexData: buildPayload(t, h.registry, "Fine\nbody"),
		Title:   "Fine",
	}

	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if len(h.reporter.failed) != 1 || h.reporter.failed[0] != "Broken" {
		t.Errorf("failed = %v, want [Broken]", h.reporter.failed)
	}
	if _, err := os.Stat(filepath.Join(h.vault.Root().Path, "Fine.md")); err != nil {
		t.Errorf("second note should still import: %v", err)
	}
	if !store.closed {
		t.Error("store was not closed after the run")
	}
}

func TestImport_NoteWithAttachmentEmbed(t *testing.T) {
	store := newFakeStore()
	store.accountOrder = []int64{1}
	store.accounts[1] = &domain.AccountRow{Name: "iCloud", Identifier: "ACC-1"}
	store.attachUUIDs["uuid-photo"] = attachmentRef{id: 301, uti: "public.jpeg"}
	store.media[301] = &domain.MediaRow{Identifier: "M-1", Filename: "Photo.jpg", Note: 100}
	store.sources[filepath.Join("Media", "M-1", "Photo.jpg")] = []byte("jpeg")

	h := newHarness(t, store)
	text := "Pics\n￼"
	store.noteOrder = []int64{100}
	store.notes[100] = &domain.NoteRow{
		HexData: buildPayload(t, h.registry, text,
			payloadRun{length: len([]rune("Pics\n"))},
			payloadRun{length: 1, attachmentID: "uuid-photo", attachmentUTI: "public.jpeg"},
		),
		Title: "Pics",
	}

	if err := h.engine.Import(); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(h.vault.Root().Path, "Pics.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "![[Photo.jpg]]" {
		t.Errorf("content = %q, want %q", data, "![[Photo.jpg]]")
	}

	attachment, err := os.ReadFile(filepath.Join(h.vault.Root().Path, "attachments", "Photo.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(attachment) != "jpeg" {
		t.Errorf("attachment bytes = %q", attachment)
	}
}
