package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/metrics"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Directory    string
	Collection   string
	Distance     string
	ChunkSize    int
	ChunkOverlap int
	ParseWorkers int
	// Force re-embeds pages the ledger has already seen.
	Force bool
}

// Summary is what one run did. Stats is the collection state after the run.
type Summary struct {
	Files        int
	Pages        int
	SkippedPages int
	Chunks       int
	StaleHashes  int
	Stats        commonModels.CollectionStats
	Timings      map[string]time.Duration
}

type Pipeline struct {
	store     vectorDB.Store
	embedder  embedding.Embedder
	tokenizer Tokenizer
	ledger    commonModels.PageLedger
	extract   ExtractFunc
	logger    *logger_i.Logger
}

// NewPipeline wires one ingestion run. ledger may be nil, then every page is embedded.
func NewPipeline(store vectorDB.Store, embedder embedding.Embedder, tokenizer Tokenizer, ledger commonModels.PageLedger) *Pipeline {
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		tokenizer: tokenizer,
		ledger:    ledger,
		extract:   ExtractDocument,
		logger:    logger_i.NewLogger("Ingestion"),
	}
}

// WithExtractor swaps the document reader, tests use it to feed pages without real PDFs.
func (p *Pipeline) WithExtractor(fn ExtractFunc) *Pipeline {
	p.extract = fn
	return p
}

// Run executes extract, chunk, filter, embed, upsert and record once over the directory.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	log := p.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("collection", opts.Collection)
	summary := Summary{Timings: map[string]time.Duration{}}
	started := time.Now()

	files, err := ListDocuments(opts.Directory)
	if err != nil {
		return summary, err
	}
	summary.Files = len(files)
	if len(files) == 0 {
		log.Warn("No documents found", "directory", opts.Directory)
		return summary, nil
	}
	log.Info("Found documents", "count", len(files))

	step := time.Now()
	perFile, err := p.extractAll(ctx, files, opts.ParseWorkers)
	if err != nil {
		return summary, err
	}
	summary.Timings["extract"] = time.Since(step)

	skipSeen, err := p.ledgerApplies(ctx, opts)
	if err != nil {
		return summary, err
	}
	scope := p.ledgerScope(opts)

	var pages []commonModels.Page
	for i, filePages := range perFile {
		log.Info("Loaded document", "file", filepath.Base(files[i]), "pages", len(filePages))
		summary.Pages += len(filePages)

		fresh, skipped, stale, err := p.filterSeen(ctx, scope, filePages, skipSeen)
		if err != nil {
			return summary, err
		}
		if stale > 0 {
			log.Warn("Previously ingested pages no longer present", "file", filepath.Base(files[i]), "staleHashes", stale)
		}
		summary.SkippedPages += skipped
		summary.StaleHashes += stale
		pages = append(pages, fresh...)
	}
	metrics.AddSkippedPages(summary.SkippedPages)

	step = time.Now()
	chunks, err := ChunkPages(pages, opts.ChunkSize, opts.ChunkOverlap, p.tokenizer)
	if err != nil {
		return summary, err
	}
	summary.Timings["chunk"] = time.Since(step)
	summary.Chunks = len(chunks)
	log.Info("Created chunks", "chunks", len(chunks), "pages", len(pages), "skippedPages", summary.SkippedPages)

	if len(chunks) == 0 {
		log.Warn("No chunks to ingest")
		return summary, nil
	}

	if err := p.store.EnsureCollection(ctx, p.collectionSpec(opts)); err != nil {
		return summary, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	step = time.Now()
	vectors, err := p.embedder.Embed(ctx, texts, embedding.ModeDocument)
	if err != nil {
		return summary, fmt.Errorf("embedding chunks failed: %w", err)
	}
	summary.Timings["embed"] = time.Since(step)
	metrics.CaptureExecutionMetrics("embedding", summary.Timings["embed"])

	step = time.Now()
	if err := p.store.Upsert(ctx, opts.Collection, chunks, vectors); err != nil {
		return summary, fmt.Errorf("upserting chunks failed: %w", err)
	}
	summary.Timings["upsert"] = time.Since(step)
	metrics.CaptureExecutionMetrics("vector_upsert", summary.Timings["upsert"])
	metrics.AddIngestedChunks(len(chunks))

	if err := p.record(ctx, scope, pages); err != nil {
		return summary, err
	}

	stats, err := p.store.Stats(ctx, opts.Collection)
	if err != nil {
		return summary, err
	}
	summary.Stats = stats
	summary.Timings["total"] = time.Since(started)

	log.Info("Ingestion complete",
		"files", summary.Files,
		"pages", summary.Pages,
		"chunks", summary.Chunks,
		"points", stats.PointCount,
		"status", stats.Status,
		"duration", summary.Timings["total"].String())
	return summary, nil
}

// ListDocuments returns the supported files directly under dir, sorted by name.
func ListDocuments(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ragErrors.NewConfigurationError("PDF_DIRECTORY", "directory %s does not exist", dir)
		}
		return nil, ragErrors.NewConfigurationError("PDF_DIRECTORY", "cannot read %s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, ragErrors.NewConfigurationError("PDF_DIRECTORY", "%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ragErrors.NewConfigurationError("PDF_DIRECTORY", "cannot list %s: %v", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || commonModels.GetDocType(e.Name()) == commonModels.ERR {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// extractAll parses files in parallel. Results keep the order of files.
func (p *Pipeline) extractAll(ctx context.Context, files []string, workers int) ([][]commonModels.Page, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([][]commonModels.Page, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages, err := p.extract(path)
			if err != nil {
				return err
			}
			results[i] = pages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) collectionSpec(opts Options) vectorDB.CollectionSpec {
	return vectorDB.CollectionSpec{
		Name:      opts.Collection,
		Dimension: p.embedder.Dimension(),
		Distance:  opts.Distance,
	}
}

// ledgerScope names everything that shapes the stored points of a page. Changing any of it
// invalidates earlier records.
func (p *Pipeline) ledgerScope(opts Options) string {
	return fmt.Sprintf("%s|%s|%d|%d", opts.Collection, p.tokenizer.Name(), opts.ChunkSize, opts.ChunkOverlap)
}

// ledgerEntry includes the page number, a page that moved must be rewritten so its payload cites the new page.
func ledgerEntry(page commonModels.Page) string {
	return fmt.Sprintf("%d:%s", page.PageNumber, page.ContentHash)
}

// ledgerApplies reports whether recorded pages may be skipped. Records only describe points that
// still exist while the collection is present and holds points.
func (p *Pipeline) ledgerApplies(ctx context.Context, opts Options) (bool, error) {
	if p.ledger == nil || opts.Force {
		return false, nil
	}
	exists, err := p.store.CheckCollection(ctx, p.collectionSpec(opts))
	if err != nil {
		return false, err
	}
	if !exists {
		p.logger.Info("Collection absent, ignoring the ledger", "collection", opts.Collection)
		return false, nil
	}
	stats, err := p.store.Stats(ctx, opts.Collection)
	if err != nil {
		return false, err
	}
	if stats.PointCount == 0 {
		p.logger.Info("Collection empty, ignoring the ledger", "collection", opts.Collection)
		return false, nil
	}
	return true, nil
}

// filterSeen drops pages the ledger already holds when skipSeen is set and counts entries recorded
// earlier that this run did not see.
func (p *Pipeline) filterSeen(ctx context.Context, scope string, pages []commonModels.Page, skipSeen bool) (fresh []commonModels.Page, skipped int, stale int, err error) {
	if p.ledger == nil || len(pages) == 0 {
		return pages, 0, 0, nil
	}

	seen, err := p.ledger.Seen(ctx, scope, pages[0].Source)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading ingestion ledger: %w", err)
	}

	current := make(map[string]bool, len(pages))
	for _, page := range pages {
		entry := ledgerEntry(page)
		current[entry] = true
		if skipSeen && seen[entry] {
			skipped++
			continue
		}
		fresh = append(fresh, page)
	}
	for entry := range seen {
		if !current[entry] {
			stale++
		}
	}
	return fresh, skipped, stale, nil
}

func (p *Pipeline) record(ctx context.Context, scope string, pages []commonModels.Page) error {
	if p.ledger == nil {
		return nil
	}
	bySource := make(map[string][]string)
	var order []string
	for _, page := range pages {
		if _, ok := bySource[page.Source]; !ok {
			order = append(order, page.Source)
		}
		bySource[page.Source] = append(bySource[page.Source], ledgerEntry(page))
	}
	for _, source := range order {
		if err := p.ledger.Record(ctx, scope, source, bySource[source]); err != nil {
			return fmt.Errorf("recording ingestion ledger: %w", err)
		}
	}
	return nil
}
