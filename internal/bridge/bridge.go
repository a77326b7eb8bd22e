// Package bridge translates an encyclopedia entity into a video-platform
// search string, letting the user pivot a metadata result into something
// watchable and downloadable.
package bridge

import "tunecrate/pkg/models"

// VideoQuery builds the video search string for an encyclopedia item.
// Pure function, entity-type-specific templates:
//
//	recording -> "{artist} - {title}"
//	artist    -> "{name} music"
//	release   -> "{artist} - {title} full album"
//
// Non-encyclopedia items fall back to "{artist} - {title}".
func VideoQuery(item models.Item) string {
	if item.Encyclopedia != nil {
		switch item.Encyclopedia.EntityType {
		case models.EntityArtist:
			return item.Title + " music"
		case models.EntityRelease:
			return item.Artist + " - " + item.Title + " full album"
		case models.EntityRecording:
			return item.Artist + " - " + item.Title
		}
	}
	if item.Artist != "" && item.Title != "" {
		return item.Artist + " - " + item.Title
	}
	if item.Title != "" {
		return item.Title
	}
	return item.Artist
}
