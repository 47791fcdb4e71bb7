package service

import (
	"context"
	"errors"
	"sort"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/idx"
	"github.com/parleyhq/parley/pkg/slogx"
)

// HistoryService is the conversation store: full-record upserts keyed by
// (tenant, conversation), a summary listing, and individual or bulk deletes.
// Saves are last-write-wins at whole-record granularity.
type HistoryService struct {
	Store store.Store
}

// Save upserts the conversation for the tenant. A conversation arriving
// without an ID is assigned a fresh ULID. Saving identical content twice is
// idempotent apart from the updated_at refresh.
func (s *HistoryService) Save(
	ctx context.Context,
	userID string,
	c domain.Conversation,
) (domain.Conversation, error) {
	if c.ID == "" {
		c.ID = idx.New().String()
	}
	if err := s.Store.Conversations().SaveConversation(ctx, userID, c); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

// Get returns the full conversation record.
func (s *HistoryService) Get(
	ctx context.Context,
	userID, conversationID string,
) (domain.Conversation, error) {
	return s.Store.Conversations().GetConversation(ctx, userID, conversationID)
}

// List returns summaries for the tenant's conversations, most recently
// updated first. Index entries whose record is missing are pruned rather
// than failing the listing — the index is self-healing, not authoritative.
func (s *HistoryService) List(
	ctx context.Context,
	userID string,
) ([]domain.ConversationSummary, error) {
	log := slogx.FromContext(ctx)

	ids, err := s.Store.Conversations().ListConversationIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		c, err := s.Store.Conversations().GetConversation(ctx, userID, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("pruning dangling conversation index entry",
					"user_id", userID, "conversation_id", id)
				_ = s.pruneIndexEntry(ctx, userID, id)
				continue
			}
			return nil, err
		}
		summaries = append(summaries, summarize(c))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt > summaries[j].UpdatedAt
	})

	return summaries, nil
}

// Delete removes one conversation. A second delete of the same conversation
// reports store.ErrNotFound rather than an error state.
func (s *HistoryService) Delete(ctx context.Context, userID, conversationID string) error {
	return s.Store.Conversations().DeleteConversation(ctx, userID, conversationID)
}

// DeleteAll removes every conversation for the tenant. The tenant stays in
// the global index while the account itself exists.
func (s *HistoryService) DeleteAll(ctx context.Context, userID string) error {
	return s.Store.Conversations().DeleteAllConversations(ctx, userID)
}

func (s *HistoryService) pruneIndexEntry(ctx context.Context, userID, conversationID string) error {
	err := s.Store.Conversations().DeleteConversation(ctx, userID, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func summarize(c domain.Conversation) domain.ConversationSummary {
	return domain.ConversationSummary{
		ID:           c.ID,
		Title:        c.Title,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
