package menucache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github.com/restomenu/menucache/internal/fetch"
	"github.com/restomenu/menucache/internal/imgcodec"
	"github.com/restomenu/menucache/internal/store"
)

// FormatVersion is the current on-disk cache format. A persisted version
// mismatch wipes every entry before the cache is used.
const FormatVersion = 1

// Eviction stops once usage falls to this fraction of the ceiling, so a
// cache hovering at the boundary does not evict on every insert.
const evictTarget = 0.8

const (
	imagesDir    = "images"
	settingsFile = "settings.json"
	metaFile     = "meta.json.zst"
)

// Cache is a bounded on-disk image cache with an in-memory hot set.
//
// Disk and metadata state live under one root directory and can be deleted
// at any time; the cache re-populates from source URLs. No operation lets an
// internal error escape: lookups degrade to misses, downloads report
// per-entry failures, and corrupt local state disables the cache
// persistently.
type Cache struct {
	dir  string
	opts *OpenOptions
	log  zerolog.Logger

	store *store.Local
	meta  *store.Meta
	hot   *lru.Cache[string, image.Image]

	fetcher fetch.Fetcher
	flight  singleflight.Group

	enabled atomic.Bool

	mu       sync.Mutex // guards settings and the download context
	settings store.Settings
	dlCtx    context.Context
	dlCancel context.CancelFunc
}

// Open creates or opens a cache rooted at dir.
//
// Open never fails on local-state problems: an uncreatable directory or a
// corrupt metadata table disables the cache persistently and returns a
// cache whose every operation is a no-op.
func Open(dir string, opts ...OpenOption) (*Cache, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Fetcher == nil {
		options.Fetcher = fetch.NewHTTPFetcher()
	}

	c := &Cache{
		dir:     dir,
		opts:    options,
		log:     options.Logger,
		fetcher: options.Fetcher,
	}
	c.hot, _ = lru.New[string, image.Image](options.HotSetSize)
	c.dlCtx, c.dlCancel = context.WithCancel(context.Background())

	c.settings = store.LoadSettings(c.settingsPath())
	if !c.settings.Enabled {
		c.log.Warn().Str("dir", dir).Msg("caching disabled by kill switch")
		return c, nil
	}

	local, err := store.NewLocal(filepath.Join(dir, imagesDir))
	if err != nil {
		c.log.Error().Err(err).Msg("cache dir uncreatable, disabling cache")
		c.disable()
		_ = store.RemoveMetaFile(c.metaPath())
		return c, nil
	}
	c.store = local

	if c.settings.Version != FormatVersion {
		c.log.Info().
			Int("from", c.settings.Version).
			Int("to", FormatVersion).
			Msg("cache format changed, wiping")
		_ = local.Clear()
		_ = store.RemoveMetaFile(c.metaPath())
		c.settings.Version = FormatVersion
		if err := store.SaveSettings(c.settingsPath(), c.settings); err != nil {
			c.log.Error().Err(err).Msg("persist format version")
		}
	}

	meta, err := store.LoadMeta(c.metaPath())
	if err != nil {
		c.log.Error().Err(err).Msg("metadata corrupt, disabling cache")
		_ = store.RemoveMetaFile(c.metaPath())
		c.disable()
		return c, nil
	}
	c.meta = meta
	c.enabled.Store(true)

	c.CleanupIfNeeded()
	return c, nil
}

// Key returns the cache key for a source URL.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

// Enabled reports whether the cache is active. A disabled cache turns every
// operation into a no-op so callers fall through to direct fetching.
func (c *Cache) Enabled() bool { return c.enabled.Load() }

// Get returns the cached decoded image for url, or (nil, false) on a miss.
// It checks the hot set first, then probes disk for both storage formats and
// promotes on hit. Get never performs network I/O and treats any disk or
// decode error as a miss.
func (c *Cache) Get(url string) (image.Image, bool) {
	if !c.enabled.Load() {
		return nil, false
	}

	key := Key(url)
	if img, ok := c.hot.Get(key); ok {
		c.meta.Touch(key, time.Now())
		return img, true
	}

	data, _, ok := c.store.Probe(key, imgcodec.Extensions())
	if !ok {
		return nil, false
	}
	img, err := imgcodec.Decode(data)
	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Msg("stored image undecodable")
		return nil, false
	}

	c.hot.Add(key, img)
	c.meta.Touch(key, time.Now())
	return img, true
}

// NeedsUpdate reports whether e should be re-fetched: true when the URL was
// never cached, when the cached record belongs to a different URL, or when
// e's timestamp is strictly newer than the cached one.
//
// This is a timestamp predicate, not a content comparison: a remote change
// without a timestamp bump goes unnoticed.
func (c *Cache) NeedsUpdate(e Entry) bool {
	if !c.enabled.Load() {
		return false
	}

	rec, ok := c.meta.Get(Key(e.URL))
	if !ok {
		return true
	}
	if rec.URL != e.URL {
		return true
	}
	return e.UpdatedAt.After(rec.Timestamp)
}

// PreloadIcons downloads and caches every stale entry concurrently and
// returns once all of them have settled. The result is the number of entries
// successfully cached.
func (c *Cache) PreloadIcons(ctx context.Context, entries []Entry) int {
	if !c.enabled.Load() {
		return 0
	}

	var loaded atomic.Int64
	p := pool.New().WithMaxGoroutines(c.opts.Concurrency)
	for _, e := range entries {
		if !c.NeedsUpdate(e) {
			continue
		}
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			if _, err := c.fetchAndCache(e); err != nil {
				c.log.Debug().Err(err).Str("url", e.URL).Msg("icon preload failed")
				return
			}
			loaded.Add(1)
		})
	}
	p.Wait()
	return int(loaded.Load())
}

// PreloadItems downloads stale entries in fixed-size batches: batch N+1 does
// not start until every download in batch N has settled. Batching caps
// concurrent connections; entries within a batch complete in no particular
// order. Returns the number of entries successfully cached.
func (c *Cache) PreloadItems(ctx context.Context, entries []Entry, batchSize int) int {
	if !c.enabled.Load() {
		return 0
	}
	if batchSize <= 0 {
		batchSize = c.opts.Concurrency
	}

	var pending []Entry
	for _, e := range entries {
		if c.NeedsUpdate(e) {
			pending = append(pending, e)
		}
	}

	var loaded atomic.Int64
	for start := 0; start < len(pending); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+batchSize, len(pending))

		p := pool.New().WithMaxGoroutines(batchSize)
		for _, e := range pending[start:end] {
			p.Go(func() {
				if _, err := c.fetchAndCache(e); err != nil {
					c.log.Debug().Err(err).Str("url", e.URL).Msg("item preload failed")
					return
				}
				loaded.Add(1)
			})
		}
		p.Wait()
	}
	return int(loaded.Load())
}

// fetchAndCache downloads, re-encodes and persists one entry. Concurrent
// calls for the same URL share a single download; every waiter receives the
// eventual result.
func (c *Cache) fetchAndCache(e Entry) (image.Image, error) {
	if !c.enabled.Load() {
		return nil, ErrDisabled
	}

	key := Key(e.URL)
	v, err, _ := c.flight.Do(key, func() (any, error) {
		ctx := c.downloadContext()

		data, err := c.fetcher.Fetch(ctx, e.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCanceled
			}
			return nil, err
		}

		img, err := imgcodec.Decode(data)
		if err != nil {
			return nil, err
		}

		// From here on failures return the decoded image anyway: a cache
		// that cannot persist still satisfies the current caller.
		encoded, ext, err := imgcodec.Encode(img, c.opts.JPEGQuality)
		if err != nil {
			c.log.Warn().Err(err).Str("url", e.URL).Msg("re-encode failed")
			return img, nil
		}
		if err := c.store.Write(key, ext, encoded, imgcodec.Extensions()...); err != nil {
			c.log.Warn().Err(err).Str("url", e.URL).Msg("cache write failed")
			return img, nil
		}

		c.meta.Set(key, store.Record{
			URL:        e.URL,
			Timestamp:  e.UpdatedAt,
			LastAccess: time.Now(),
		})
		if err := c.meta.Sync(); err != nil {
			c.log.Warn().Err(err).Msg("metadata sync failed")
			return img, nil
		}

		// Hot copy decodes from the stored bytes so memory matches disk.
		stored, err := imgcodec.Decode(encoded)
		if err != nil {
			stored = img
		}
		c.hot.Add(key, stored)
		c.log.Debug().Str("url", e.URL).Str("format", ext).Int("bytes", len(encoded)).Msg("cached image")
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// CancelDownloads aborts every in-flight download. Waiters on canceled
// downloads receive ErrCanceled rather than hanging. Writes and decodes
// already past the network stage complete normally.
func (c *Cache) CancelDownloads() {
	c.mu.Lock()
	cancel := c.dlCancel
	c.dlCtx, c.dlCancel = context.WithCancel(context.Background())
	c.mu.Unlock()
	cancel()
}

func (c *Cache) downloadContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dlCtx
}

// ClearMemory drops the in-memory hot set. Disk state is untouched; meant
// for memory-pressure signals.
func (c *Cache) ClearMemory() {
	c.hot.Purge()
}

// Clear cancels all downloads and deletes every cached image and metadata
// record. Idempotent and safe when the cache directory is already empty or
// missing.
func (c *Cache) Clear() error {
	c.CancelDownloads()
	c.hot.Purge()
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			return err
		}
	}
	if c.meta != nil {
		if err := c.meta.Remove(); err != nil {
			return err
		}
	}
	return nil
}

// CleanupIfNeeded evicts the oldest-accessed entries until disk usage falls
// to 80% of the ceiling. Entries without a metadata record order by file
// mtime. Returns the number of entries evicted.
func (c *Cache) CleanupIfNeeded() int {
	if !c.enabled.Load() || c.store == nil {
		return 0
	}

	usage := c.store.Usage()
	if usage <= c.opts.SizeLimit {
		return 0
	}
	target := int64(float64(c.opts.SizeLimit) * evictTarget)

	files, err := c.store.Files()
	if err != nil {
		c.log.Warn().Err(err).Msg("eviction scan failed")
		return 0
	}

	records := c.meta.Records()
	accessTime := func(f store.FileInfo) time.Time {
		if rec, ok := records[f.Key]; ok {
			return rec.LastAccess
		}
		return f.ModTime
	}
	sort.Slice(files, func(i, j int) bool {
		return accessTime(files[i]).Before(accessTime(files[j]))
	})

	removed := 0
	for _, f := range files {
		if usage <= target {
			break
		}
		if err := c.store.Delete(f.Key, []string{f.Ext}); err != nil {
			c.log.Warn().Err(err).Str("key", f.Key).Msg("evict failed")
			continue
		}
		c.meta.Delete(f.Key)
		c.hot.Remove(f.Key)
		usage -= f.Size
		removed++
	}
	if err := c.meta.Sync(); err != nil {
		c.log.Warn().Err(err).Msg("metadata sync failed")
	}

	c.log.Info().Int("evicted", removed).Int64("usage", usage).Msg("eviction sweep done")
	return removed
}

// Stats describes the current cache state.
type Stats struct {
	Entries   int
	DiskBytes int64
	HotSet    int
	SizeLimit int64
	Enabled   bool
}

func (c *Cache) Stats() Stats {
	s := Stats{
		SizeLimit: c.opts.SizeLimit,
		Enabled:   c.enabled.Load(),
		HotSet:    c.hot.Len(),
	}
	if c.store != nil {
		s.DiskBytes = c.store.Usage()
	}
	if c.meta != nil {
		s.Entries = c.meta.Len()
	}
	return s
}

// Close persists the metadata table.
func (c *Cache) Close() error {
	if c.meta != nil {
		return c.meta.Sync()
	}
	return nil
}

// disable flips the persisted kill switch off. Once disabled the cache stays
// disabled across restarts until the settings file is removed.
//
// Persistence is best-effort: when the cache root itself is unusable (the
// path occupied by a regular file, say) the settings file cannot be written
// either, and only the in-memory flag remains.
func (c *Cache) disable() {
	c.enabled.Store(false)
	c.mu.Lock()
	c.settings.Enabled = false
	s := c.settings
	c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		c.log.Error().Err(err).Msg("persist kill switch")
		return
	}
	if err := store.SaveSettings(c.settingsPath(), s); err != nil {
		c.log.Error().Err(err).Msg("persist kill switch")
	}
}

func (c *Cache) settingsPath() string { return filepath.Join(c.dir, settingsFile) }
func (c *Cache) metaPath() string     { return filepath.Join(c.dir, metaFile) }
