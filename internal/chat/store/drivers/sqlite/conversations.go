package sqlite

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
)

// Key scheme for conversation records:
//
//	chat:<userID>:<conversationID>  hash of title, messages JSON, timestamps
//	userchats:<userID>              set of the tenant's conversation IDs
//	tenants                         set of every tenant ID
const (
	chatKeyPrefix      = "chat:"
	userChatsKeyPrefix = "userchats:"
	tenantsKey         = "tenants"
)

func chatKey(userID, conversationID string) string {
	return chatKeyPrefix + userID + ":" + conversationID
}

func userChatsKey(userID string) string {
	return userChatsKeyPrefix + userID
}

type conversationsRepo struct {
	s *Store
}

func (r *conversationsRepo) SaveConversation(
	ctx context.Context,
	userID string,
	c domain.Conversation,
) error {
	key := chatKey(userID, c.ID)
	now := time.Now().UnixMilli()

	// Preserve the original creation time on resaves.
	createdAt := c.CreatedAt
	if createdAt == 0 {
		existing, err := r.s.hashGetAll(ctx, key)
		if err != nil {
			return err
		}
		if v, err := strconv.ParseInt(existing["created_at"], 10, 64); err == nil {
			createdAt = v
		} else {
			createdAt = now
		}
	}

	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return err
	}

	fields := map[string]string{
		"title":      c.Title,
		"messages":   string(messages),
		"created_at": strconv.FormatInt(createdAt, 10),
		"updated_at": strconv.FormatInt(now, 10),
	}
	if err := r.s.hashSet(ctx, key, fields); err != nil {
		return err
	}

	if err := r.s.setAdd(ctx, userChatsKey(userID), c.ID); err != nil {
		return err
	}
	return r.s.setAdd(ctx, tenantsKey, userID)
}

func (r *conversationsRepo) GetConversation(
	ctx context.Context,
	userID, conversationID string,
) (domain.Conversation, error) {
	fields, err := r.s.hashGetAll(ctx, chatKey(userID, conversationID))
	if err != nil {
		return domain.Conversation{}, err
	}
	if len(fields) == 0 {
		return domain.Conversation{}, store.ErrNotFound
	}
	return mapConversation(conversationID, fields), nil
}

func (r *conversationsRepo) ListConversationIDs(
	ctx context.Context,
	userID string,
) ([]string, error) {
	return r.s.setMembers(ctx, userChatsKey(userID))
}

func (r *conversationsRepo) DeleteConversation(
	ctx context.Context,
	userID, conversationID string,
) error {
	// The index entry goes first so a dangling entry can be pruned by
	// deleting it even when the record is already gone.
	if err := r.s.setRemove(ctx, userChatsKey(userID), conversationID); err != nil {
		return err
	}

	key := chatKey(userID, conversationID)
	exists, err := r.s.hashExists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return r.s.deleteKey(ctx, key)
}

func (r *conversationsRepo) DeleteAllConversations(ctx context.Context, userID string) error {
	ids, err := r.s.setMembers(ctx, userChatsKey(userID))
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.s.deleteKey(ctx, chatKey(userID, id)); err != nil {
			return err
		}
	}
	return r.s.setClear(ctx, userChatsKey(userID))
}

func (r *conversationsRepo) ListTenants(ctx context.Context) ([]string, error) {
	return r.s.setMembers(ctx, tenantsKey)
}

func (r *conversationsRepo) RemoveTenant(ctx context.Context, userID string) error {
	return r.s.setRemove(ctx, tenantsKey, userID)
}

// mapConversation tolerates an unparsable message list by mapping it to nil,
// so listings and counts degrade to zero instead of failing the whole read.
func mapConversation(id string, fields map[string]string) domain.Conversation {
	c := domain.Conversation{
		ID:    id,
		Title: fields["title"],
	}

	if v, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		c.CreatedAt = v
	}
	if v, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		c.UpdatedAt = v
	}

	var messages []domain.Message
	if err := json.Unmarshal([]byte(fields["messages"]), &messages); err == nil {
		c.Messages = messages
	}

	return c
}
