// Package menucache provides a bounded on-disk cache for menu imagery with
// an in-memory hot set and concurrent, de-duplicated downloads.
//
// Images are keyed by a sha256 digest of their source URL and stored as PNG
// (when the source has transparency) or JPEG (otherwise). A small metadata
// table tracks the source URL, its last-modified timestamp and the last
// access time of every entry, so staleness checks and LRU eviction never
// depend on filesystem metadata.
//
// Basic usage:
//
//	cache, _ := menucache.Open("/var/cache/menucache")
//	defer cache.Close()
//
//	// Synchronous lookup, never touches the network.
//	if img, ok := cache.Get("https://cdn.example.com/burger.jpg"); ok { ... }
//
//	// Fetch everything the feed says is new or changed.
//	feed, _ := menucache.ParseFeed(data)
//	cache.PreloadIcons(ctx, feed.IconEntries())
//	loaded := cache.PreloadItems(ctx, feed.ItemEntries(), 5)
//
//	// Maintenance
//	stats := cache.Stats()        // entries, disk usage, hot set length
//	cache.CleanupIfNeeded()       // evict oldest-accessed past the ceiling
//	cache.Clear()                 // drop everything
//
// The cache is a pure performance layer: every failure mode (uncreatable
// directory, corrupt metadata, failed downloads) degrades to cache misses
// rather than errors, and corrupt local state disables the cache persistently
// instead of crashing the host application.
package menucache
