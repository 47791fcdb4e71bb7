package domain

// Message is a single turn in a conversation. Timestamps are epoch
// milliseconds as supplied by the client.
type Message struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Thinking  string   `json:"thinking,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// Conversation is the full message history owned by exactly one tenant.
// The (tenant, conversation ID) pair is the composite identity; the tenant
// itself is not stored on the record, it is the partition key.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// ConversationSummary is the listing projection: everything but the message
// bodies, to bound response size.
type ConversationSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// OwnedConversation annotates a summary with its owning tenant, used by
// administrative cross-tenant listings.
type OwnedConversation struct {
	UserID string `json:"userId"`
	ConversationSummary
}
