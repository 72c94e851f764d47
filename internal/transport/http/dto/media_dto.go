package dto

type MediaViewResponse struct {
	URL string `json:"url"`
}
