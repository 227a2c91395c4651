package extract

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/storydex/pkg/catalog"
	"github.com/gnana997/storydex/pkg/parser"
	"github.com/gnana997/storydex/pkg/stories"
	"github.com/gnana997/storydex/pkg/util"
)

const defaultFileCacheEntries = 512

// SourceStrategy parses story definition files under the project root.
// Preferred: fastest, most complete, and requires no running process.
type SourceStrategy struct {
	root   string
	pm     *parser.Manager
	walker *stories.Walker
	files  *util.FileCache
	cache  *lru.Cache[string, cachedParse]
	logger *slog.Logger
}

// cachedParse keys a parsed file result to the file's identity on disk so
// watch-mode re-runs only re-parse what changed.
type cachedParse struct {
	mtime int64
	size  int64
	fs    *stories.FileStories
}

// NewSourceStrategy creates the source-parsing strategy.
func NewSourceStrategy(opts Options) *SourceStrategy {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	size := opts.CacheSize
	if size <= 0 {
		size = defaultFileCacheEntries
	}
	cache, _ := lru.New[string, cachedParse](size)

	pm := parser.NewManager(logger)
	return &SourceStrategy{
		root:   opts.Root,
		pm:     pm,
		walker: stories.NewWalker(pm, logger),
		files:  util.NewFileCache(0, logger),
		cache:  cache,
		logger: logger,
	}
}

// Provenance implements Strategy.
func (s *SourceStrategy) Provenance() catalog.Provenance {
	return catalog.ProvenanceSource
}

// Applicable implements Strategy. Source parsing needs a root directory and
// the parser capability.
func (s *SourceStrategy) Applicable(_ context.Context, caps Capabilities) bool {
	if !caps.Parser || s.root == "" {
		return false
	}
	info, err := os.Stat(s.root)
	return err == nil && info.IsDir()
}

// Extract discovers and parses every story file under the root. Files that
// fail to parse are logged and skipped; no single bad file aborts the run.
func (s *SourceStrategy) Extract(ctx context.Context) (*catalog.Catalog, error) {
	files, err := DiscoverStoryFiles(s.root)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("discovered story files", "count", len(files))

	parsed, failed := s.parseAll(ctx, files)
	if failed > 0 {
		s.logger.Warn("some story files failed to parse", "failed", failed, "parsed", len(parsed))
	}

	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		absRoot = s.root
	}

	cat := catalog.New(catalog.ProvenanceSource)
	// Sorted path order makes same-slug collisions resolve deterministically
	// (last-write-wins).
	for _, path := range files {
		fs, ok := parsed[path]
		if !ok {
			continue
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = path
		}
		for _, rec := range stories.BuildRecords(fs, filepath.ToSlash(rel)) {
			cat.Put(rec)
		}
	}
	return cat, nil
}

// parseAll parses files with a bounded worker pool, consulting the
// mtime-keyed cache first. Returns results by path and the failure count.
func (s *SourceStrategy) parseAll(ctx context.Context, files []string) (map[string]*stories.FileStories, int) {
	if len(files) == 0 {
		return nil, 0
	}

	numWorkers := util.OptimalPoolSize()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	type parseOutcome struct {
		path string
		fs   *stories.FileStories
		err  error
	}

	paths := make(chan string, numWorkers*2)
	results := make(chan parseOutcome, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				fs, err := s.parseOne(path)
				results <- parseOutcome{path: path, fs: fs, err: err}
			}
		}()
	}

	go func() {
		defer close(paths)
		for _, f := range files {
			select {
			case paths <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	parsed := make(map[string]*stories.FileStories, len(files))
	failed := 0
	for r := range results {
		if r.err != nil {
			s.logger.Warn("skipping unparsable story file", "file", r.path, "error", r.err)
			failed++
			continue
		}
		parsed[r.path] = r.fs
	}
	return parsed, failed
}

// parseOne parses a single file, serving unchanged files from the cache.
func (s *SourceStrategy) parseOne(path string) (*stories.FileStories, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if entry, ok := s.cache.Get(path); ok {
		if entry.mtime == info.ModTime().UnixNano() && entry.size == info.Size() {
			return entry.fs, nil
		}
		s.files.Evict(path)
	}

	source, err := s.files.Read(path)
	if err != nil {
		return nil, err
	}

	fs, err := s.walker.ParseFile(source, path)
	if err != nil {
		return nil, err
	}

	s.cache.Add(path, cachedParse{
		mtime: info.ModTime().UnixNano(),
		size:  info.Size(),
		fs:    fs,
	})
	return fs, nil
}

// Close releases parser and file-cache resources.
func (s *SourceStrategy) Close() {
	s.pm.Close()
	s.files.Close()
}
