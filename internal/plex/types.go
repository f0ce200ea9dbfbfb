package plex

// Section is one Plex library section.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"` // "movie" or "show"
}

// Movie is one movie entry with its primary media file.
type Movie struct {
	RatingKey     string
	Title         string
	Year          int
	AddedAt       int64 // unix seconds
	LastViewedAt  int64 // unix seconds, 0 when never viewed
	ViewCount     int
	Rating        float64 // audience rating 0-10, 0 when absent
	HasRating     bool
	FilePath      string
	FileSizeBytes int64
	Resolution    string
	VideoCodec    string
}

// Show is one series entry with episode counts aggregated by Plex.
type Show struct {
	RatingKey     string
	Title         string
	Year          int
	AddedAt       int64
	LastViewedAt  int64
	ViewCount     int
	EpisodeCount  int
	ViewedCount   int
	DirPath       string
	FileSizeBytes int64
	Resolution    string
	VideoCodec    string
}

// Wire types below mirror Plex's MediaContainer JSON.

type sectionsResponse struct {
	MediaContainer struct {
		Directory []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"Directory"`
	} `json:"MediaContainer"`
}

type mediaPart struct {
	File string `json:"file"`
	Size int64  `json:"size"`
}

type mediaEntry struct {
	VideoResolution string      `json:"videoResolution"`
	VideoCodec      string      `json:"videoCodec"`
	Part            []mediaPart `json:"Part"`
}

type metadataEntry struct {
	RatingKey             string       `json:"ratingKey"`
	GrandparentRatingKey  string       `json:"grandparentRatingKey"`
	Title                 string       `json:"title"`
	Year                  int          `json:"year"`
	AddedAt               int64        `json:"addedAt"`
	LastViewedAt          int64        `json:"lastViewedAt"`
	ViewCount             int          `json:"viewCount"`
	AudienceRating        *float64     `json:"audienceRating"`
	Rating                *float64     `json:"rating"`
	LeafCount             int          `json:"leafCount"`
	ViewedLeafCount       int          `json:"viewedLeafCount"`
	Media                 []mediaEntry `json:"Media"`
}

type libraryResponse struct {
	MediaContainer struct {
		Metadata []metadataEntry `json:"Metadata"`
	} `json:"MediaContainer"`
}
