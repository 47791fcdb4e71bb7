package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/slogx"
)

// ErrNotAdmin is returned when the acting account is unknown or does not
// hold the admin role.
var ErrNotAdmin = errors.New("administrator role required")

// AdminService aggregates cross-tenant reads and bulk destructive
// operations. Bulk deletes iterate tenant-by-tenant with one store round
// trip per conversation; they are not transactional, so a crash mid-way
// leaves a partially completed delete.
type AdminService struct {
	Store store.Store
}

// Authorize resolves the acting email against the identity store and
// requires the admin role. This is the single capability check for every
// administrative route.
func (s *AdminService) Authorize(ctx context.Context, email string) error {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAdmin
		}
		return err
	}
	if !u.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// ListUsers returns every account record. Callers present these without the
// credential field; the HTTP layer owns that projection.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	log := slogx.FromContext(ctx)

	emails, err := s.Store.Users().ListEmails(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(emails))
	for _, email := range emails {
		u, err := s.Store.Users().GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Dangling account-index entry; deleting the (absent)
				// record also clears the index.
				log.Warn("pruning dangling account index entry", "email", email)
				_ = s.Store.Users().DeleteUser(ctx, email)
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}

	return users, nil
}

// ListAllConversations walks the global tenant index and flattens every
// tenant's conversations into one recency-sorted list annotated with the
// owning tenant. An unparsable message list counts as zero messages, and
// dangling index entries are pruned along the way.
func (s *AdminService) ListAllConversations(ctx context.Context) ([]domain.OwnedConversation, error) {
	log := slogx.FromContext(ctx)

	tenants, err := s.Store.Conversations().ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	var all []domain.OwnedConversation
	for _, tenant := range tenants {
		ids, err := s.Store.Conversations().ListConversationIDs(ctx, tenant)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			c, err := s.Store.Conversations().GetConversation(ctx, tenant, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					log.Warn("pruning dangling conversation index entry",
						"user_id", tenant, "conversation_id", id)
					if err := s.Store.Conversations().DeleteConversation(ctx, tenant, id); err != nil &&
						!errors.Is(err, store.ErrNotFound) {
						return nil, err
					}
					continue
				}
				return nil, err
			}
			all = append(all, domain.OwnedConversation{
				UserID: tenant,
				ConversationSummary: domain.ConversationSummary{
					ID:           c.ID,
					Title:        c.Title,
					MessageCount: len(c.Messages),
					CreatedAt:    c.CreatedAt,
					UpdatedAt:    c.UpdatedAt,
				},
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt > all[j].UpdatedAt
	})

	return all, nil
}

// DeleteUser destroys one account and everything it owns, regardless of
// credentials. Unknown accounts report store.ErrNotFound.
func (s *AdminService) DeleteUser(ctx context.Context, email string) error {
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err != nil {
		return err
	}

	tenant := domain.NormalizeEmail(email)
	if err := s.Store.Conversations().DeleteAllConversations(ctx, tenant); err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	if err := s.Store.Conversations().RemoveTenant(ctx, tenant); err != nil {
		return fmt.Errorf("failed to remove tenant index entry: %w", err)
	}
	return s.Store.Users().DeleteUser(ctx, email)
}

// DeleteAllUsersExceptAdmin destroys every non-admin account and its
// conversations. Admin-role records are skipped.
func (s *AdminService) DeleteAllUsersExceptAdmin(ctx context.Context) error {
	emails, err := s.Store.Users().ListEmails(ctx)
	if err != nil {
		return err
	}

	for _, email := range emails {
		u, err := s.Store.Users().GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				_ = s.Store.Users().DeleteUser(ctx, email)
				continue
			}
			return err
		}
		if u.IsAdmin() {
			continue
		}
		if err := s.DeleteUser(ctx, email); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	return nil
}

// DeleteAllConversations wipes every tenant's conversations. Tenants whose
// accounts still exist stay in the global index.
func (s *AdminService) DeleteAllConversations(ctx context.Context) error {
	tenants, err := s.Store.Conversations().ListTenants(ctx)
	if err != nil {
		return err
	}

	for _, tenant := range tenants {
		if err := s.Store.Conversations().DeleteAllConversations(ctx, tenant); err != nil {
			return err
		}
	}

	return nil
}
