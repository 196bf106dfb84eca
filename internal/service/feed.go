package service

import "time"

// ReactionSummary is the per-emoji rollup returned after reaction toggles and
// on every feed item.
type ReactionSummary struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

// FeedItem is one assembled feed entry: the message plus the batched
// decorations (author info, receipts, presence).
type FeedItem struct {
	ID                 uint64            `json:"id"`
	AuthorName         string            `json:"author_name"`
	AuthorType         string            `json:"author_type"`
	AuthorID           uint64            `json:"author_id"`
	AuthorStatus       string            `json:"author_status"`
	Body               string            `json:"message"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	AttachmentRef      string            `json:"attachment_ref,omitempty"`
	AttachmentName     string            `json:"attachment_name,omitempty"`
	AttachmentIsImage  bool              `json:"attachment_is_image"`
	ReplyToMessageID   uint64            `json:"reply_to_message_id,omitempty"`
	ReplyToMessageText string            `json:"reply_to_message_text,omitempty"`
	IsPinned           bool              `json:"is_pinned"`
	SeenBy             []string          `json:"seen_by"`
	Reactions          []ReactionSummary `json:"reactions"`
	CanEdit            bool              `json:"can_edit"`
}

// FeedPage is one page of assembled items plus the follow-up cursors. The
// cursors equal the max/min ids present in the page, falling back to the
// request's cursors when the page is empty so clients can keep polling.
type FeedPage struct {
	Items                   []FeedItem    `json:"items"`
	NextAfterID             uint64        `json:"next_after_id"`
	NextBeforeID            uint64        `json:"next_before_id"`
	LatestMessageID         uint64        `json:"latest_message_id"`
	AllParticipantsReadUpTo *ReadUpToMark `json:"all_participants_read_up_to"`
}

// ReadUpToMark identifies the oldest message every non-caller participant has
// confirmed seeing.
type ReadUpToMark struct {
	MessageID uint64 `json:"message_id"`
	Label     string `json:"label"`
}

// ReadResult reports the effective watermark after a mark-read call.
type ReadResult struct {
	LastReadID  uint64 `json:"last_read_id"`
	UnreadCount int64  `json:"unread_count"`
}

// PinResult reports a pin toggle. PinnedMessageID is 0 after an unpin.
type PinResult struct {
	MessageID        uint64 `json:"message_id"`
	PreviousPinnedID uint64 `json:"previous_pinned_id"`
	PinnedMessageID  uint64 `json:"pinned_message_id"`
}
