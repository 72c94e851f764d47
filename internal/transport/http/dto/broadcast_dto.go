package dto

type BroadcastRequest struct {
	Text string `json:"text"`
}

type BroadcastPreviewResponse struct {
	Recipients int `json:"recipients"`
}

type BroadcastReportResponse struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
