// Package ingest is the extraction driver: it walks a source tree, picks
// the module for each file by mimetype, threads a carrier through the
// module and persists the resulting facts.
package ingest

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"fsminer/pkg/extract"
	"fsminer/pkg/graph"
)

const MaxWorkers = 8

// Stats summarizes one indexing run.
type Stats struct {
	// Files is the number of regular files handed to the workers.
	Files uint64
	// Extracted counts files whose facts were written. A file whose
	// module failed or matched no module still counts here: it is
	// indexed with its file-system facts.
	Extracted uint64
	// Failed counts files that produced no facts at all.
	Failed uint64
	Facts  uint64
}

// Run walks sourceDir and indexes every regular file into the store using
// the given module registry. A failing file is logged and counted, never
// fatal to the run.
func Run(ctx context.Context, s *graph.Store, reg *extract.Registry, cfg *Config, sourceDir string) (*Stats, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	workerCount := cfg.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
		if workerCount > MaxWorkers {
			workerCount = MaxWorkers
		}
	}

	stats := &Stats{}
	jobs := make(chan string, 100)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				atomic.AddUint64(&stats.Files, 1)
				n, err := ProcessFile(ctx, s, reg, cfg, sourceDir, path)
				if err != nil {
					slog.Error("extraction failed", "path", path, "error", err)
					atomic.AddUint64(&stats.Failed, 1)
					continue
				}
				atomic.AddUint64(&stats.Extracted, 1)
				atomic.AddUint64(&stats.Facts, uint64(n))
			}
		}()
	}

	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, ignored := range cfg.Ignore {
				if d.Name() == ignored {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		select {
		case jobs <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
	close(jobs)
	wg.Wait()

	return stats, walkErr
}

// ProcessFile runs the extraction pipeline for a single file: detect the
// mimetype, construct the carrier, run the module, persist the attached
// resource plus the file-system facts, release the carrier. Returns the
// number of facts written.
func ProcessFile(ctx context.Context, s *graph.Store, reg *extract.Registry, cfg *Config, sourceRoot, path string) (int, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, err
	}

	subject := extract.NewSubject(path)
	info, err := extract.New(subject, ContentID(sourceRoot, path), mt.String(), cfg.Graph, cfg.MaxText)
	if err != nil {
		return 0, err
	}
	defer info.Unref()

	mod, err := reg.Lookup(mt.String())
	if err != nil && !stderrors.Is(err, extract.ErrNoModule) {
		return 0, err
	}
	if mod != nil {
		if err := mod.ExtractMetadata(ctx, info); err != nil {
			// The file is still indexed with its file-system facts.
			slog.Warn("module failed, keeping file facts", "path", path, "mimetype", mt.String(), "error", err)
		}
	}

	facts := fileFacts(info)
	if res := info.Resource(); res != nil {
		facts = append(facts, res.Facts(cfg.Graph)...)
	}
	if err := s.AddBatch(facts); err != nil {
		return 0, err
	}
	return len(facts), nil
}

// ContentID derives the stable identifier for a file: a name-based UUID of
// its URI, so re-indexing the same tree yields the same ids.
func ContentID(sourceRoot, path string) string {
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil {
		rel = path
	}
	uri := "file://" + filepath.ToSlash(rel)
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri)).String()
}

// fileFacts describes the physical file itself, independent of whatever
// the module extracted.
func fileFacts(info *extract.Info) []graph.Fact {
	id := info.ContentID("")
	g := info.Graph()
	facts := []graph.Fact{
		graph.NewFactInGraph(id, "rdf:type", "nfo:FileDataObject", g),
		graph.NewFactInGraph(id, "nie:url", info.File().URI(), g),
		graph.NewFactInGraph(id, "nfo:fileName", filepath.Base(info.File().Path()), g),
	}
	if info.Mimetype() != "" {
		facts = append(facts, graph.NewFactInGraph(id, "nie:mimeType", info.Mimetype(), g))
	}
	if fi, err := os.Stat(info.File().Path()); err == nil {
		facts = append(facts,
			graph.NewFactInGraph(id, "nfo:fileSize", fi.Size(), g),
			graph.NewFactInGraph(id, "nfo:fileLastModified", fi.ModTime().UTC().Format("2006-01-02T15:04:05Z"), g),
		)
	}
	return facts
}
