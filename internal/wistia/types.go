package wistia

// Asset is one downloadable rendition of a media, as reported by the embed
// medias endpoint. Size is the ranking field: the largest asset is assumed
// to be the highest-resolution one.
type Asset struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type mediaResponse struct {
	Media struct {
		Assets []Asset `json:"assets"`
	} `json:"media"`
}

// VideoAsset is the resolved download target for one lesson. Derived at
// resolve time and not persisted beyond the download.
type VideoAsset struct {
	ID   string
	URL  string
	Size int64
}
