package engine

// cache.go - extraction memo keyed by content hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/layerlint/layerlint/internal/extract"
	"github.com/layerlint/layerlint/internal/index"
	"github.com/layerlint/layerlint/pkg/core"
)

// cachedExtraction is the JSON payload memoized per file. Findings are
// never cached: a file that failed extraction is re-parsed on every run,
// so a stale finding cannot outlive its cause.
type cachedExtraction struct {
	Lines  int          `json:"lines"`
	Units  []*core.Unit `json:"units"`
	Parts  []string     `json:"parts,omitempty"`
	PartOf string       `json:"part_of,omitempty"`
}

// extractOne parses a single file, replaying the memo when the content
// hash matches a recorded entry. The second return reports a cache hit.
func (e *Engine) extractOne(f *core.FileInfo, force bool) (*extract.Result, bool) {
	if e.store == nil {
		return e.extractor.ExtractFile(f), false
	}

	content, err := os.ReadFile(f.Path)
	if err != nil {
		// Let the extractor produce its usual IO finding.
		return e.extractor.ExtractFile(f), false
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	if !force {
		if res, ok := e.cacheLookup(f, hash); ok {
			return res, true
		}
	}

	res := e.extractor.ExtractContent(f, string(content))
	if res.Failure == nil {
		e.cacheStore(res)
	}
	return res, false
}

// cacheLookup replays a memoized extraction when the stored hash matches
// the file's current content.
func (e *Engine) cacheLookup(f *core.FileInfo, hash string) (*extract.Result, bool) {
	rec, err := e.store.GetFileRecord(f.RelPath)
	if err != nil || rec == nil || rec.ContentHash != hash {
		return nil, false
	}

	var cached cachedExtraction
	if err := json.Unmarshal(rec.Units, &cached); err != nil {
		// A memo entry that no longer decodes is dropped, not trusted.
		_ = e.store.DeleteFileRecord(f.RelPath)
		return nil, false
	}

	return &extract.Result{
		RelPath: f.RelPath,
		Lines:   cached.Lines,
		Hash:    hash,
		Units:   cached.Units,
		Parts:   cached.Parts,
		PartOf:  cached.PartOf,
	}, true
}

// cacheStore memoizes a successful extraction.
func (e *Engine) cacheStore(res *extract.Result) {
	payload, err := json.Marshal(cachedExtraction{
		Lines:  res.Lines,
		Units:  res.Units,
		Parts:  res.Parts,
		PartOf: res.PartOf,
	})
	if err != nil {
		return
	}

	rec := &core.FileRecord{
		RelPath:     res.RelPath,
		ContentHash: res.Hash,
		Units:       payload,
		UpdatedAt:   time.Now(),
	}
	if err := e.store.PutFileRecord(rec); err != nil {
		e.logger.Debug("failed to memoize extraction", "file", res.RelPath, "error", err)
	}
}

// pruneCache drops memo entries for files that left the tree.
func (e *Engine) pruneCache(inv *index.Inventory) {
	keep := make(map[string]bool, len(inv.Files))
	for _, f := range inv.Files {
		keep[f.RelPath] = true
	}
	n, err := e.store.PruneFileRecords(keep)
	if err != nil {
		e.logger.Debug("failed to prune extraction memo", "error", err)
		return
	}
	if n > 0 {
		e.logger.Debug("pruned extraction memo", "removed", n)
	}
}
