package ports

// Reporter receives per-entity outcomes during an import run. Skips are
// policy decisions and are reported separately from failures.
type Reporter interface {
	Failed(name, reason string)
	Skipped(name, reason string)
	AttachmentImported(path string)
	Progress(current, total int)
}
