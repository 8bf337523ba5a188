// Package storygraph reads the parent/derivative forest formed by stories.
package storygraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/alphabot-ai/storyx/internal/store"
)

// ErrNotFound is returned when a story id does not resolve.
var ErrNotFound = errors.New("story not found")

// Reader is the subset of the store the graph needs.
type Reader interface {
	GetPost(ctx context.Context, id string) (*store.Post, error)
	ListChildren(ctx context.Context, parentID string) ([]*store.Post, error)
}

// Graph answers lineage questions about stories. It never writes.
type Graph struct {
	reader Reader
}

func New(reader Reader) *Graph {
	return &Graph{reader: reader}
}

// Get returns the story with the given id or ErrNotFound.
func (g *Graph) Get(ctx context.Context, id string) (*store.Post, error) {
	post, err := g.reader.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return post, nil
}

// Children returns the direct derivatives of parentID, newest first.
func (g *Graph) Children(ctx context.Context, parentID string) ([]*store.Post, error) {
	children, err := g.reader.ListChildren(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", parentID, err)
	}
	return children, nil
}

// Depth counts the stories from the root down to post, inclusive.
// A parent that cannot be found ends the walk as if the root was reached.
func (g *Graph) Depth(ctx context.Context, post *store.Post) (int, error) {
	lineage, err := g.walk(ctx, post)
	if err != nil {
		return 0, err
	}
	return len(lineage) + 1, nil
}

// Ancestors returns the resolvable ancestors of post, root first.
// The post itself is not included.
func (g *Graph) Ancestors(ctx context.Context, post *store.Post) ([]*store.Post, error) {
	lineage, err := g.walk(ctx, post)
	if err != nil {
		return nil, err
	}
	return lo.Reverse(lineage), nil
}

// walk follows parent pointers upward and returns ancestors nearest first.
func (g *Graph) walk(ctx context.Context, post *store.Post) ([]*store.Post, error) {
	ancestors := []*store.Post{}
	visited := map[string]struct{}{post.ID: {}}

	current := post
	for current.ParentID != nil {
		parentID := *current.ParentID
		if _, seen := visited[parentID]; seen {
			break
		}
		visited[parentID] = struct{}{}

		parent, err := g.reader.GetPost(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("get ancestor %s: %w", parentID, err)
		}
		if parent == nil {
			break
		}

		ancestors = append(ancestors, parent)
		current = parent
	}

	return ancestors, nil
}
