package model

// Video represents a Twitch VOD as persisted in the local store.
// The external Twitch video ID is the natural key; the store synthesizes
// its own row identifier for bookkeeping, which is never exposed here.
//
// CreatedAt and PublishedAt are kept as upstream-formatted ISO-8601 UTC
// strings rather than time.Time. The period filter in the store compares
// them lexicographically, which is only correct because the format is
// fixed-width UTC (see TimestampLayout).
type Video struct {
	ID            string
	StreamID      string
	UserID        string
	UserLogin     string
	UserName      string
	Title         string
	Description   string
	CreatedAt     string
	PublishedAt   string
	URL           string
	ThumbnailURL  string
	Viewable      string
	ViewCount     int
	Language      string
	Type          string
	Duration      string
	MutedSegments []map[string]any
	GameID        string
	TagIDs        []string
}

// TimestampLayout is the storage format for video timestamps.
// Fixed-width ISO-8601 UTC, so string order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"
