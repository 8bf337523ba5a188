package store

import (
	"context"
)

// Store defines the interface for data persistence.
// Lookups return (nil, nil) when the record does not exist.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error)

	// Posts
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]*Post, error)
	ListChildren(ctx context.Context, parentID string) ([]*Post, error)
	DeleteReposts(ctx context.Context, parentPostID, userID string) (int64, error)
	SetPostIPAsset(ctx context.Context, id string, asset IPAsset) error

	// Likes and reposts
	HasInteraction(ctx context.Context, kind InteractionKind, postID, userID string) (bool, error)
	AddInteraction(ctx context.Context, kind InteractionKind, postID, userID string) error
	RemoveInteraction(ctx context.Context, kind InteractionKind, postID, userID string) error

	// Lifecycle
	Close() error
}
