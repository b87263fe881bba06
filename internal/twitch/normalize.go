package twitch

import (
	"strings"

	"vodsearch/internal/domain/model"
)

// Thumbnail URLs arrive templated; they are resolved to concrete pixel
// dimensions before the record ever reaches the store.
var thumbnailReplacer = strings.NewReplacer(
	"%{width}", "1920",
	"%{height}", "1080",
)

// Normalize maps a raw Helix video into the persisted entity shape.
// Pure function: it injects the caller-supplied game ID (the bulk video
// payload does not carry one) and resolves thumbnail placeholders. Missing
// optional fields stay zero-valued; the store maps those to absent columns.
func Normalize(raw RawVideo, gameID string) *model.Video {
	return &model.Video{
		ID:            raw.ID,
		StreamID:      raw.StreamID,
		UserID:        raw.UserID,
		UserLogin:     raw.UserLogin,
		UserName:      raw.UserName,
		Title:         raw.Title,
		Description:   raw.Description,
		CreatedAt:     raw.CreatedAt,
		PublishedAt:   raw.PublishedAt,
		URL:           raw.URL,
		ThumbnailURL:  thumbnailReplacer.Replace(raw.ThumbnailURL),
		Viewable:      raw.Viewable,
		ViewCount:     raw.ViewCount,
		Language:      raw.Language,
		Type:          raw.Type,
		Duration:      raw.Duration,
		MutedSegments: raw.MutedSegments,
		GameID:        gameID,
		TagIDs:        raw.TagIDs,
	}
}
