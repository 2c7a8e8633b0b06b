package importer

import (
	"fmt"

	"go.uber.org/zap"

	"applenotes/internal/domain"
	"applenotes/internal/noteproto"
	"applenotes/internal/ports"
)

// Importer is the resolution engine for one import run. It walks the
// store's account → folder → note → attachment graph, materializing
// every entity at most once. All run-scoped state lives here: the
// resolution caches, the owner map, the trash exclusions, and the
// attachment paths claimed so far.
type Importer struct {
	store      ports.NoteStore
	vault      ports.Vault
	report     ports.Reporter
	registry   *noteproto.Registry
	converters ports.ConverterFactory
	log        *zap.Logger

	rootFolder *domain.Folder

	owners           map[int64]int64
	resolvedAccounts map[int64]*domain.Account
	resolvedFiles    map[int64]*domain.File
	resolvedFolders  map[int64]*domain.Folder
	resolvingFolders map[int64]bool
	claimedPaths     map[string]bool
	handwriting      map[int64]string
	trashFolders     []int64

	multiAccount bool
	noteCount    int
	parsedNotes  int

	// Run policy, set before Import is called.
	ImportTrashed      bool
	IncludeHandwriting bool
}

// Ensure the engine satisfies the converter back-reference contract
var _ ports.Resolver = (*Importer)(nil)

// New builds an engine with fresh run state. Nothing is shared between
// runs except the files already on disk.
func New(store ports.NoteStore, vault ports.Vault, report ports.Reporter, registry *noteproto.Registry, converters ports.ConverterFactory, log *zap.Logger) *Importer {
	return &Importer{
		store:            store,
		vault:            vault,
		report:           report,
		registry:         registry,
		converters:       converters,
		log:              log,
		rootFolder:       vault.Root(),
		owners:           make(map[int64]int64),
		resolvedAccounts: make(map[int64]*domain.Account),
		resolvedFiles:    make(map[int64]*domain.File),
		resolvedFolders:  make(map[int64]*domain.Folder),
		resolvingFolders: make(map[int64]bool),
		claimedPaths:     make(map[string]bool),
		handwriting:      make(map[int64]string),
	}
}

// Import runs the whole migration: accounts, then folders, then every
// non-trashed titled note. Failures inside any one entity are reported
// and the run moves on; only setup failures abort. The store handle is
// released on every path out.
func (im *Importer) Import() error {
	defer im.store.Close()

	if _, err := im.store.EntityKeys(); err != nil {
		return fmt.Errorf("source store is not a notes database: %w", err)
	}

	accountIDs, err := im.store.AccountIDs()
	if err != nil {
		return err
	}
	for _, id := range accountIDs {
		if err := im.resolveAccount(id); err != nil {
			im.report.Failed(fmt.Sprintf("account %d", id), err.Error())
			im.log.Warn("account failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	folders, err := im.store.Folders()
	if err != nil {
		return err
	}
	for _, f := range folders {
		if _, err := im.ResolveFolder(f.ID); err != nil {
			im.report.Failed(f.Title, err.Error())
			im.log.Warn("folder failed", zap.Int64("id", f.ID), zap.Error(err))
		}
	}

	// Notes under excluded trash folders never reach note resolution.
	notes, err := im.store.Notes(im.trashFolders)
	if err != nil {
		return err
	}
	im.noteCount = len(notes)

	for _, n := range notes {
		if _, err := im.ResolveNote(n.ID); err != nil {
			im.report.Failed(n.Title, err.Error())
			im.log.Warn("note failed", zap.Int64("id", n.ID), zap.Error(err))
		}
	}

	return nil
}
