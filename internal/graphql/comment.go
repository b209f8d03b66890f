package graphql

import (
	"context"

	graphqlgo "github.com/graph-gophers/graphql-go"

	"github.com/piwi3910/itemgraph/internal/models"
)

// CommentResolver resolves the fields of Comment.
type CommentResolver struct {
	root    *RootResolver
	comment models.Comment
}

func (c *CommentResolver) ID() graphqlgo.ID { return graphqlgo.ID(c.comment.ID) }

func (c *CommentResolver) Content() string { return c.comment.Content }

func (c *CommentResolver) UserID() graphqlgo.ID { return graphqlgo.ID(c.comment.UserID) }

// ItemID is null for comments stored without an item.
func (c *CommentResolver) ItemID() *graphqlgo.ID {
	if c.comment.ItemID == "" {
		return nil
	}
	id := graphqlgo.ID(c.comment.ItemID)
	return &id
}

// User reads users/<userId>. A dangling reference resolves to null.
func (c *CommentResolver) User(ctx context.Context) (*UserResolver, error) {
	r := c.root
	u, _, err := resolveOne(ctx, r, opCommentUser, r.repo.GetUser(ctx, c.comment.UserID), r.user)
	return u, err
}

// Item reads items/<itemId>, or resolves to null when the comment has no item.
func (c *CommentResolver) Item(ctx context.Context) (*ItemResolver, error) {
	if c.comment.ItemID == "" {
		return nil, nil
	}
	r := c.root
	it, _, err := resolveOne(ctx, r, opCommentItem, r.repo.GetItem(ctx, c.comment.ItemID), r.item)
	return it, err
}
