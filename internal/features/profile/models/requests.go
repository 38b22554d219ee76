package models

// UpsertProfileRequest is the onboarding / edit payload. Empty optional
// fields mean "clear", matching how the edit form submits whole snapshots.
type UpsertProfileRequest struct {
	Role        Role     `json:"role"`
	DisplayName string   `json:"display_name" binding:"required"`
	Location    string   `json:"location"`
	Bio         string   `json:"bio"`
	Links       []string `json:"links"`
	Genres      []string `json:"genres"`
	Instruments []string `json:"instruments"`
	Seeking     []string `json:"seeking"`
	Influences  []string `json:"influences"`
	Age         *int     `json:"age"`
	Roles       []string `json:"roles"`
	Members     []Member `json:"members"`
	GalleryURLs []string `json:"gallery_urls"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
