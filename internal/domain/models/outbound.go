package models

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// RecallRequest is the optional body of the recall endpoint.
type RecallRequest struct {
	Reason string `json:"reason"`
}
