package graphql

import (
	"context"

	graphqlgo "github.com/graph-gophers/graphql-go"

	"github.com/piwi3910/itemgraph/internal/models"
)

// UserResolver resolves the fields of User.
type UserResolver struct {
	root *RootResolver
	user models.User
}

func (u *UserResolver) ID() graphqlgo.ID { return graphqlgo.ID(u.user.ID) }

func (u *UserResolver) Name() string { return u.user.Name }

func (u *UserResolver) Birthday() string { return u.user.Birthday }

// Items scans items for userId == id.
func (u *UserResolver) Items(ctx context.Context) ([]*ItemResolver, error) {
	r := u.root
	return resolveList(ctx, r, opUserItems, r.repo.ListItemsByUser(ctx, u.user.ID), r.item)
}

// Comments scans comments for userId == id.
func (u *UserResolver) Comments(ctx context.Context) ([]*CommentResolver, error) {
	r := u.root
	return resolveList(ctx, r, opUserComments, r.repo.ListCommentsByUser(ctx, u.user.ID), r.comment)
}
