package models

// WebhookPayload mirrors the subset of Meta's WhatsApp Cloud API callback body that
// carries operator messages.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one entry payload within the webhook body.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange captures the actual notification contents.
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue holds the inbound messages. Delivery statuses are not consumed.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is one message sent by an operator.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent contains text messages body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent represents button/list replies; their ids are command strings.
type InteractiveContent struct {
	Type        string      `json:"type"`
	ButtonReply *ReplyIndex `json:"button_reply,omitempty"`
	ListReply   *ReplyIndex `json:"list_reply,omitempty"`
}

// ReplyIndex is the pressed button or selected list row.
type ReplyIndex struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommandText returns the command text carried by msg, or "".
func (msg InboundMessage) CommandText() string {
	if msg.Text != nil {
		return msg.Text.Body
	}
	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}
	return ""
}
