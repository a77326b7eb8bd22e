package download

import (
	"strings"

	"tunecrate/pkg/models"
)

// SanitizeFilename strips characters that are unsafe in filenames across
// platforms.
func SanitizeFilename(name string) string {
	repl := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_",
		"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
	)
	return strings.TrimSpace(repl.Replace(name))
}

// OutputName builds the deterministic "{artist} - {title}.mp3" filename
// for an item.
func OutputName(item models.Item) string {
	artist := item.Artist
	if artist == "" {
		artist = string(item.Source)
	}
	title := item.Title
	if title == "" {
		title = item.ID
	}
	return SanitizeFilename(artist + " - " + title + ".mp3")
}
