// Package interaction implements the like and repost toggles.
//
// Toggles are read-then-act: the current membership is read, the opposite
// mutation is attempted, and the reported state is read again afterwards.
// Concurrent identical toggles are resolved by the store's unique and
// foreign-key constraints, which this package treats as expected races.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/alphabot-ai/storyx/internal/events"
	"github.com/alphabot-ai/storyx/internal/metrics"
	"github.com/alphabot-ai/storyx/internal/store"
)

// NotFoundError reports which of the toggle's referenced entities are missing.
type NotFoundError struct {
	Post bool
	User bool
}

func (e *NotFoundError) Error() string {
	return strings.Join(lo.Compact([]string{
		lo.Ternary(e.Post, "Post not found", ""),
		lo.Ternary(e.User, "User not found", ""),
	}), " and ")
}

// LikeResult is the post after a like toggle and whether the user now likes it.
type LikeResult struct {
	Post  *store.Post `json:"post"`
	Liked bool        `json:"liked"`
}

// RepostResult is the original post after a repost toggle. RepostID is set
// only when this call created a repost story.
type RepostResult struct {
	Post     *store.Post `json:"post"`
	Reposted bool        `json:"reposted"`
	RepostID string      `json:"repost_id,omitempty"`
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(s store.Store, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		store:     s,
		publisher: publisher,
		logger:    logger.With("component", "interaction"),
	}
}

// ToggleLike flips whether userID likes postID.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	if _, err := s.preconditions(ctx, postID, userID); err != nil {
		return nil, err
	}

	liked, err := s.store.HasInteraction(ctx, store.Like, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if err := s.store.RemoveInteraction(ctx, store.Like, postID, userID); err != nil {
			return nil, fmt.Errorf("remove like: %w", err)
		}
	} else if err := s.insert(ctx, store.Like, postID, userID); err != nil {
		return nil, err
	}

	liked, post, err := s.current(ctx, store.Like, postID, userID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, events.InteractionEvent{
		Kind:   string(store.Like),
		PostID: postID,
		UserID: userID,
		Active: liked,
	})

	return &LikeResult{Post: post, Liked: liked}, nil
}

// ToggleRepost flips whether userID reposts postID. Reposting materializes a
// new story that snapshots the original's content; un-reposting removes every
// such story the user created from postID.
func (s *Service) ToggleRepost(ctx context.Context, postID, userID string) (*RepostResult, error) {
	original, err := s.preconditions(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	reposted, err := s.store.HasInteraction(ctx, store.Repost, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("check repost: %w", err)
	}

	var repostID string
	if reposted {
		if err := s.store.RemoveInteraction(ctx, store.Repost, postID, userID); err != nil {
			return nil, fmt.Errorf("remove repost: %w", err)
		}
		n, err := s.store.DeleteReposts(ctx, postID, userID)
		if err != nil {
			return nil, fmt.Errorf("delete repost stories: %w", err)
		}
		s.logger.Debug("repost stories removed", "post_id", postID, "user_id", userID, "count", n)
	} else {
		if err := s.insert(ctx, store.Repost, postID, userID); err != nil {
			return nil, err
		}

		companion := &store.Post{
			UserID:       userID,
			Content:      original.Content,
			IsRepost:     true,
			Depth:        original.Depth + 1,
			ParentPostID: &postID,
		}
		if err := s.store.CreatePost(ctx, companion); err != nil {
			if errors.Is(err, store.ErrForeignKey) {
				return nil, &NotFoundError{Post: true}
			}
			return nil, fmt.Errorf("create repost story: %w", err)
		}
		repostID = companion.ID
	}

	reposted, post, err := s.current(ctx, store.Repost, postID, userID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, events.InteractionEvent{
		Kind:     string(store.Repost),
		PostID:   postID,
		UserID:   userID,
		Active:   reposted,
		RepostID: repostID,
	})

	return &RepostResult{Post: post, Reposted: reposted, RepostID: repostID}, nil
}

// preconditions loads the post and checks the user, reporting both when
// both are missing.
func (s *Service) preconditions(ctx context.Context, postID, userID string) (*store.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if post == nil || user == nil {
		return nil, &NotFoundError{Post: post == nil, User: user == nil}
	}
	return post, nil
}

// insert adds the membership row. A duplicate means a concurrent toggle got
// there first; a dangling reference means the post vanished mid-request.
func (s *Service) insert(ctx context.Context, kind store.InteractionKind, postID, userID string) error {
	err := s.store.AddInteraction(ctx, kind, postID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		s.logger.Debug("concurrent toggle", "kind", kind, "post_id", postID, "user_id", userID)
		return nil
	case errors.Is(err, store.ErrForeignKey):
		return &NotFoundError{Post: true}
	default:
		return fmt.Errorf("add %s: %w", kind, err)
	}
}

// current re-reads membership and the post after a mutation.
func (s *Service) current(ctx context.Context, kind store.InteractionKind, postID, userID string) (bool, *store.Post, error) {
	active, err := s.store.HasInteraction(ctx, kind, postID, userID)
	if err != nil {
		return false, nil, fmt.Errorf("check %s: %w", kind, err)
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return false, nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return false, nil, &NotFoundError{Post: true}
	}

	return active, post, nil
}

func (s *Service) record(ctx context.Context, event events.InteractionEvent) {
	metrics.ObserveInteraction(event.Kind, event.Active)

	event.Timestamp = time.Now().UnixMilli()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish interaction", "kind", event.Kind, "post_id", event.PostID, "error", err)
	}
}
