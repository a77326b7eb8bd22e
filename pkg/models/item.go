package models

// Source identifies which external catalog an item came from.
type Source string

const (
	SourceCatalog      Source = "catalog"      // Jamendo royalty-free catalog
	SourceVideo        Source = "video"        // YouTube
	SourceEncyclopedia Source = "encyclopedia" // MusicBrainz
	SourceScraped      Source = "scraped"      // Big.az via backend proxy
)

// EntityType distinguishes encyclopedia results. Only meaningful when
// Source == SourceEncyclopedia.
type EntityType string

const (
	EntityRecording EntityType = "recording"
	EntityArtist    EntityType = "artist"
	EntityRelease   EntityType = "release"
)

// ItemKey is the global identity of an item. An item id is only unique
// within its source, so identity is always the (source, id) pair.
// Title/artist equality never implies identity.
type ItemKey struct {
	Source Source `json:"source"`
	ID     string `json:"id"`
}

// Item is the normalized, internal form of a search result from any source
// used by the search sessions, the cart and the download pipeline.
//
// All external sources are mapped into this structure first. Source-specific
// fields live in exactly one of the variant structs below; at most one is
// non-nil, matching Source.
type Item struct {
	ID        string `json:"id"`
	Source    Source `json:"source"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  int    `json:"duration"`            // seconds, 0 when unknown
	Thumbnail string `json:"thumbnail,omitempty"` // small image URL
	Image     string `json:"image,omitempty"`     // large image URL

	Catalog      *CatalogMeta      `json:"catalog,omitempty"`
	Video        *VideoMeta        `json:"video,omitempty"`
	Encyclopedia *EncyclopediaMeta `json:"encyclopedia,omitempty"`
	Scraped      *ScrapedMeta      `json:"scraped,omitempty"`
}

// CatalogMeta carries the Jamendo-specific fields.
type CatalogMeta struct {
	Album            string   `json:"album,omitempty"`
	AlbumID          string   `json:"album_id,omitempty"`
	AudioURL         string   `json:"audio_url,omitempty"`
	AudioDownloadURL string   `json:"audio_download_url,omitempty"`
	DownloadAllowed  bool     `json:"download_allowed"`
	License          string   `json:"license,omitempty"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// VideoMeta carries the YouTube-specific fields.
type VideoMeta struct {
	Channel     string `json:"channel"`
	ChannelID   string `json:"channel_id,omitempty"`
	ViewCount   int64  `json:"view_count"`
	LikeCount   int64  `json:"like_count"`
	PublishedAt string `json:"published_at,omitempty"`
	WatchURL    string `json:"watch_url"`
}

// EncyclopediaMeta carries the MusicBrainz-specific fields.
type EncyclopediaMeta struct {
	EntityType EntityType `json:"entity_type"`
	Album      string     `json:"album,omitempty"`
	AlbumMBID  string     `json:"album_mbid,omitempty"`
	Country    string     `json:"country,omitempty"`
	BeginDate  string     `json:"begin_date,omitempty"`
	EndDate    string     `json:"end_date,omitempty"`
	Score      int        `json:"score"`
}

// ScrapedMeta carries the Big.az-specific fields. AudioParams is an opaque
// capability token issued by the backend; it is never interpreted here,
// only passed back verbatim when resolving the audio URL.
type ScrapedMeta struct {
	HTMLFileName string            `json:"html_file_name"`
	AudioParams  map[string]string `json:"audio_params,omitempty"`
}

// Key returns the global identity of the item.
func (i Item) Key() ItemKey {
	return ItemKey{Source: i.Source, ID: i.ID}
}

// SameEntity reports whether a and b represent the same cart entry.
func SameEntity(a, b Item) bool {
	return a.Source == b.Source && a.ID == b.ID
}

// Downloadable reports whether the item can be turned into a local file.
// Catalog and scraped items fetch directly (via their own URLs or the
// backend proxy); video items need the download backend; encyclopedia
// entries are metadata only.
func (i Item) Downloadable(videoBackend bool) bool {
	switch i.Source {
	case SourceCatalog, SourceScraped:
		return true
	case SourceVideo:
		return videoBackend
	default:
		return false
	}
}
