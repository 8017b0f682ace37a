// Package ingest builds the library index: it walks a root for .docx files,
// parses their headings and citation blocks, embeds heading text, and writes
// everything to the store. Unchanged files are skipped by content hash.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"folio/internal/embedder"
	"folio/internal/store"
	"folio/internal/walker"
)

const embedBatchSize = 32

// Stats reports one ingest run.
type Stats struct {
	FilesTotal    int
	FilesIndexed  int
	FilesSkipped  int
	FilesRemoved  int
	HeadingsTotal int
}

// ProgressFunc receives ingest progress: files stored so far out of the
// files seen so far.
type ProgressFunc func(done, total int)

// Config holds the ingest options.
type Config struct {
	Workers        int
	EmbeddingModel string
}

// Ingester drives one library's ingest runs.
type Ingester struct {
	store *store.Store
	emb   *embedder.Embedder
	cfg   Config
	log   zerolog.Logger
}

// New creates an ingester. emb may be nil to skip heading embeddings; search
// then runs lexical only.
func New(s *store.Store, emb *embedder.Embedder, cfg Config, log zerolog.Logger) *Ingester {
	return &Ingester{store: s, emb: emb, cfg: cfg, log: log}
}

// docWork is a parsed document that needs (re-)indexing.
type docWork struct {
	info walker.DocInfo
	hash string
	doc  *Document
}

// embeddedDoc has its heading embeddings ready to store.
type embeddedDoc struct {
	work       docWork
	embeddings [][]float32
}

// Run ingests the library at root. Files whose content hash matches the
// stored one are skipped; files that disappeared from the library are
// removed from the index.
func (ing *Ingester) Run(ctx context.Context, root string, onProgress ProgressFunc) (*Stats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// A model switch invalidates every stored embedding.
	if ing.emb != nil {
		last, err := ing.store.GetMeta(ctx, "embedding_model")
		if err != nil {
			return nil, fmt.Errorf("read embedding model: %w", err)
		}
		if last != "" && last != ing.cfg.EmbeddingModel {
			ing.log.Info().Str("from", last).Str("to", ing.cfg.EmbeddingModel).
				Msg("embedding model changed, reindexing everything")
			if _, err := ing.store.PruneMissing(ctx, nil); err != nil {
				return nil, fmt.Errorf("drop stale index: %w", err)
			}
		}
	}

	stats, err := ing.runPipeline(ctx, absRoot, onProgress)
	if err != nil {
		return stats, err
	}

	if err := ing.store.RebuildFolders(ctx); err != nil {
		return stats, fmt.Errorf("rebuild folders: %w", err)
	}
	if err := ing.store.SetMeta(ctx, "root_path", absRoot); err != nil {
		return stats, fmt.Errorf("set root path: %w", err)
	}
	if ing.emb != nil {
		if err := ing.store.SetMeta(ctx, "embedding_model", ing.cfg.EmbeddingModel); err != nil {
			return stats, fmt.Errorf("set embedding model: %w", err)
		}
	}
	return stats, nil
}

func (ing *Ingester) runPipeline(ctx context.Context, absRoot string, onProgress ProgressFunc) (*Stats, error) {
	numWorkers := ing.cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	stats := &Stats{}
	var filesTotal atomic.Int64

	seenMu := sync.Mutex{}
	seen := make(map[string]bool)

	// Stage 1: walk.
	docCh, walkErrCh := walker.Walk(absRoot)

	// Stage 2: hash, skip unchanged, parse (N workers).
	workCh := make(chan docWork, numWorkers)
	var parseWg sync.WaitGroup
	for range numWorkers {
		parseWg.Add(1)
		go func() {
			defer parseWg.Done()
			for di := range docCh {
				filesTotal.Add(1)
				seenMu.Lock()
				seen[di.RelPath] = true
				seenMu.Unlock()

				src, err := os.ReadFile(di.Path)
				if err != nil {
					ing.log.Warn().Str("path", di.RelPath).Err(err).Msg("read failed")
					continue
				}
				sum := sha256.Sum256(src)
				hash := hex.EncodeToString(sum[:])

				existing, err := ing.store.FileHash(ctx, di.RelPath)
				if err == nil && existing == hash {
					continue // unchanged
				}

				doc, err := ParseDocx(di.Path)
				if err != nil {
					ing.log.Warn().Str("path", di.RelPath).Err(err).Msg("parse failed")
					continue
				}
				workCh <- docWork{info: di, hash: hash, doc: doc}
			}
		}()
	}
	go func() {
		parseWg.Wait()
		close(workCh)
	}()

	// Stage 3: embed headings (1 worker, sub-batches).
	embeddedCh := make(chan embeddedDoc, 4)
	var embedErr error
	var embedWg sync.WaitGroup
	embedWg.Add(1)
	go func() {
		defer embedWg.Done()
		defer close(embeddedCh)

		for w := range workCh {
			var embeddings [][]float32
			if ing.emb != nil && len(w.doc.Headings) > 0 {
				texts := make([]string, len(w.doc.Headings))
				for i, h := range w.doc.Headings {
					texts[i] = h.Text
				}
				for i := 0; i < len(texts); i += embedBatchSize {
					end := min(i+embedBatchSize, len(texts))
					embs, err := ing.emb.Embed(ctx, texts[i:end])
					if err != nil {
						embedErr = fmt.Errorf("embed %s: %w", w.info.RelPath, err)
						// Drain so the parse workers can finish.
						for range workCh {
						}
						return
					}
					embeddings = append(embeddings, embs...)
				}
			}
			embeddedCh <- embeddedDoc{work: w, embeddings: embeddings}
		}
	}()

	// Stage 4: store (1 worker, keeps SQLite writes serial).
	var storeErr error
	var storeWg sync.WaitGroup
	storeWg.Add(1)
	go func() {
		defer storeWg.Done()

		for ed := range embeddedCh {
			w := ed.work
			_, headingIDs, err := ing.store.ReplaceFile(ctx, store.FileRecord{
				FileName:     filepath.Base(w.info.RelPath),
				FolderPath:   parentDir(w.info.RelPath),
				RelativePath: w.info.RelPath,
				AbsolutePath: w.info.Path,
				Author:       w.doc.Author,
				Hash:         w.hash,
				Headings:     w.doc.Headings,
				Citations:    w.doc.Citations,
			})
			if err != nil {
				ing.log.Error().Str("path", w.info.RelPath).Err(err).Msg("store failed")
				storeErr = err
				continue
			}
			if len(ed.embeddings) > 0 {
				if err := ing.store.InsertHeadingEmbeddings(ctx, headingIDs, ed.embeddings); err != nil {
					ing.log.Error().Str("path", w.info.RelPath).Err(err).Msg("store embeddings failed")
					storeErr = err
					continue
				}
			}

			stats.FilesIndexed++
			stats.HeadingsTotal += len(w.doc.Headings)
			if onProgress != nil {
				onProgress(stats.FilesIndexed, int(filesTotal.Load()))
			}
		}
	}()

	storeWg.Wait()
	embedWg.Wait()

	if err := <-walkErrCh; err != nil {
		return stats, fmt.Errorf("walk: %w", err)
	}

	removed, err := ing.store.PruneMissing(ctx, seen)
	if err != nil {
		return stats, fmt.Errorf("prune missing: %w", err)
	}
	stats.FilesRemoved = removed

	stats.FilesTotal = int(filesTotal.Load())
	stats.FilesSkipped = stats.FilesTotal - stats.FilesIndexed

	if embedErr != nil {
		return stats, fmt.Errorf("embedding failed: %w", embedErr)
	}
	if storeErr != nil {
		return stats, fmt.Errorf("storage failed: %w", storeErr)
	}
	return stats, nil
}

func parentDir(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return ""
	}
	return dir
}
