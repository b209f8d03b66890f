package graphql

import (
	"context"

	graphqlgo "github.com/graph-gophers/graphql-go"

	"github.com/piwi3910/itemgraph/internal/models"
)

// ItemResolver resolves the fields of Item.
type ItemResolver struct {
	root *RootResolver
	item models.Item
}

func (i *ItemResolver) ID() graphqlgo.ID { return graphqlgo.ID(i.item.ID) }

func (i *ItemResolver) UserID() graphqlgo.ID { return graphqlgo.ID(i.item.UserID) }

func (i *ItemResolver) Title() string { return i.item.Title }

func (i *ItemResolver) Content() string { return i.item.Content }

// User reads users/<userId>. A dangling reference resolves to null.
func (i *ItemResolver) User(ctx context.Context) (*UserResolver, error) {
	r := i.root
	u, _, err := resolveOne(ctx, r, opItemUser, r.repo.GetUser(ctx, i.item.UserID), r.user)
	return u, err
}

// Comments scans comments for itemId == id.
func (i *ItemResolver) Comments(ctx context.Context) ([]*CommentResolver, error) {
	r := i.root
	return resolveList(ctx, r, opItemComments, r.repo.ListCommentsByItem(ctx, i.item.ID), r.comment)
}
