// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package media

import (
	"strconv"
	"strings"

	"github.com/etoile-yachts/shipshape/internal/models"
)

// Fix records one repaired URL: where it was found, what it was, what it
// became. Used only for reporting; it carries no ownership over the
// record.
type Fix struct {
	Path     string
	Original string
	Resolved string
}

// ResolverConfig configures URL repair.
type ResolverConfig struct {
	// BaseURL is prepended to relative asset paths.
	BaseURL string

	// ImagePlaceholderURL and VideoPlaceholderURL replace paths that
	// reference a placeholder asset, and non-durable handles whose
	// content cannot be recovered.
	ImagePlaceholderURL string
	VideoPlaceholderURL string

	// StaticAliases maps exact legacy asset paths to their durable
	// locations. Checked before any prefix rule.
	StaticAliases map[string]string

	// MaxDepth bounds recursion through nested objects.
	MaxDepth int
}

// DefaultResolverConfig returns the marketplace's asset conventions.
func DefaultResolverConfig() ResolverConfig {
	base := "https://storage.googleapis.com/etoile-yachts.firebasestorage.app"
	return ResolverConfig{
		BaseURL:             base,
		ImagePlaceholderURL: base + "/images/yacht-placeholder.jpg",
		VideoPlaceholderURL: base + "/images/video-placeholder.mp4",
		StaticAliases: map[string]string{
			// Stock assets that predate the storage bucket.
			"/yacht-hero.jpg":     "https://images.unsplash.com/photo-1567899378494-47b22a2ae96a?w=1200&q=80",
			"/featured-yacht.jpg": "https://images.unsplash.com/photo-1569263979104-865ab7cd8d13?w=800&q=80",
			"/diving.jpg":         "https://images.unsplash.com/photo-1544551763-46a013bb70d5?w=800&q=80",
			"/resort.jpg":         "https://images.unsplash.com/photo-1582719478250-c89cae4dc85b?w=800&q=80",
		},
		MaxDepth: 6,
	}
}

// knownStaticPrefixes are the asset directories served from the storage
// bucket. Paths outside them still get the base URL prepended; the split
// exists so the known directories can diverge later without a data
// migration.
var knownStaticPrefixes = []string{
	"/images/",
	"/assets/",
	"/service-addons/",
	"/yacht-experiences/",
}

// mediaKeyHints mark the field names the resolver treats as
// media-bearing. A string leaf is only rewritten when its own key, or an
// ancestor key, matches one of these.
var mediaKeyHints = []string{
	"url", "media", "image", "video", "photo", "thumbnail", "banner", "cover",
}

// Resolver rewrites relative and non-durable URLs to durable absolute
// ones. Resolution is idempotent by construction: an already-absolute
// URL never matches the relative pattern, so re-running produces no
// changes.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a Resolver; zero-valued config fields fall back to
// DefaultResolverConfig.
func NewResolver(cfg ResolverConfig) *Resolver {
	def := DefaultResolverConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.ImagePlaceholderURL == "" {
		cfg.ImagePlaceholderURL = def.ImagePlaceholderURL
	}
	if cfg.VideoPlaceholderURL == "" {
		cfg.VideoPlaceholderURL = def.VideoPlaceholderURL
	}
	if cfg.StaticAliases == nil {
		cfg.StaticAliases = def.StaticAliases
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	return &Resolver{cfg: cfg}
}

// NeedsFix reports whether a URL is relative (single leading slash) or a
// non-durable same-session handle.
func NeedsFix(url string) bool {
	if strings.HasPrefix(url, "/") && !strings.HasPrefix(url, "//") {
		return true
	}
	return strings.HasPrefix(url, "blob:") || strings.HasPrefix(url, "file:")
}

// Resolve rewrites one URL. The returned bool reports whether the URL
// changed; an already-durable URL comes back byte-for-byte unchanged.
func (r *Resolver) Resolve(url string, mediaType models.MediaType) (string, bool) {
	if !NeedsFix(url) {
		return url, false
	}

	// Non-durable handles carry no recoverable path; the canonical
	// placeholder is the only durable replacement.
	if strings.HasPrefix(url, "blob:") || strings.HasPrefix(url, "file:") {
		return r.placeholder(mediaType), true
	}

	// 1. Exact match against the static-asset alias table.
	if alias, ok := r.cfg.StaticAliases[url]; ok {
		return alias, true
	}

	// 2. Placeholder paths map to the type-specific canonical placeholder.
	if strings.Contains(strings.ToLower(url), "placeholder") {
		return r.placeholder(mediaType), true
	}

	// 3. Known static-asset directories get the base URL prepended.
	for _, prefix := range knownStaticPrefixes {
		if strings.HasPrefix(url, prefix) {
			return r.join(url), true
		}
	}

	// 4. Everything else gets the base URL prepended unconditionally.
	return r.join(url), true
}

func (r *Resolver) placeholder(mediaType models.MediaType) string {
	if mediaType == models.MediaTypeVideo {
		return r.cfg.VideoPlaceholderURL
	}
	return r.cfg.ImagePlaceholderURL
}

func (r *Resolver) join(path string) string {
	return strings.TrimSuffix(r.cfg.BaseURL, "/") + path
}

// ResolveRecord walks a record's media-bearing fields — array elements
// and nested objects, recursion bounded by MaxDepth — rewriting every
// fixable URL in place at the exact path it was discovered. Returns one
// Fix per change.
func (r *Resolver) ResolveRecord(fields map[string]interface{}) []Fix {
	var fixes []Fix
	r.walkMap(fields, "", 0, false, &fixes)
	return fixes
}

func (r *Resolver) walkMap(m map[string]interface{}, prefix string, depth int, inherited bool, fixes *[]Fix) {
	if depth > r.cfg.MaxDepth {
		return
	}

	for key, value := range m {
		mediaish := inherited || isMediaKey(key)
		path := joinPath(prefix, key)

		switch v := value.(type) {
		case string:
			if mediaish && NeedsFix(v) {
				resolved, _ := r.Resolve(v, keyTypeHint(key, v))
				m[key] = resolved
				*fixes = append(*fixes, Fix{Path: path, Original: v, Resolved: resolved})
			}
		case map[string]interface{}:
			r.walkMap(v, path, depth+1, mediaish, fixes)
		case []interface{}:
			r.walkSlice(v, path, key, depth+1, mediaish, fixes)
		case []models.MediaReference:
			r.walkRefs(v, path, fixes)
		}
	}
}

func (r *Resolver) walkSlice(s []interface{}, prefix, parentKey string, depth int, inherited bool, fixes *[]Fix) {
	if depth > r.cfg.MaxDepth {
		return
	}

	for i, value := range s {
		path := joinPath(prefix, strconv.Itoa(i))

		switch v := value.(type) {
		case string:
			if inherited && NeedsFix(v) {
				resolved, _ := r.Resolve(v, keyTypeHint(parentKey, v))
				s[i] = resolved
				*fixes = append(*fixes, Fix{Path: path, Original: v, Resolved: resolved})
			}
		case map[string]interface{}:
			r.walkMap(v, path, depth+1, inherited, fixes)
		case []interface{}:
			r.walkSlice(v, path, parentKey, depth+1, inherited, fixes)
		}
	}
}

func (r *Resolver) walkRefs(refs []models.MediaReference, prefix string, fixes *[]Fix) {
	for i := range refs {
		if !NeedsFix(refs[i].URL) {
			continue
		}
		path := joinPath(prefix, strconv.Itoa(i)) + ".url"
		resolved, _ := r.Resolve(refs[i].URL, refs[i].Type)
		*fixes = append(*fixes, Fix{Path: path, Original: refs[i].URL, Resolved: resolved})
		refs[i].URL = resolved
	}
}

func isMediaKey(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range mediaKeyHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// keyTypeHint prefers the field name over the URL when guessing the
// media type ("videoUrl" beats an extensionless path).
func keyTypeHint(key, url string) models.MediaType {
	if strings.Contains(strings.ToLower(key), "video") {
		return models.MediaTypeVideo
	}
	return models.InferMediaType(url)
}

func joinPath(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}
