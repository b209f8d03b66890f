package graphql

import (
	"context"

	"github.com/piwi3910/itemgraph/internal/models"
	"github.com/piwi3910/itemgraph/internal/observability"
	"github.com/piwi3910/itemgraph/internal/repository"
)

// Resolver operation names, reported in extensions.operation and logs.
const (
	opItems        = "items"
	opUser         = "user"
	opUsers        = "users"
	opItem         = "item"
	opComment      = "comment"
	opUserItems    = "User.items"
	opUserComments = "User.comments"
	opItemUser     = "Item.user"
	opItemComments = "Item.comments"
	opCommentUser  = "Comment.user"
	opCommentItem  = "Comment.item"
)

// RootResolver resolves the Query type and holds the dependencies every
// field resolver needs.
type RootResolver struct {
	repo    *repository.Repository
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRootResolver creates the root resolver. metrics may be nil.
func NewRootResolver(repo *repository.Repository, logger *observability.Logger, metrics *observability.Metrics) *RootResolver {
	if repo == nil {
		panic("graphql: repository cannot be nil")
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &RootResolver{
		repo:    repo,
		logger:  logger.WithComponent("graphql"),
		metrics: metrics,
	}
}

// idArgs carries a single required id argument.
type idArgs struct {
	ID string
}

// Items resolves Query.items.
func (r *RootResolver) Items(ctx context.Context) ([]*ItemResolver, error) {
	return resolveList(ctx, r, opItems, r.repo.ListItems(ctx), r.item)
}

// User resolves Query.user.
func (r *RootResolver) User(ctx context.Context, args idArgs) (*UserResolver, error) {
	u, ok, err := resolveOne(ctx, r, opUser, r.repo.GetUser(ctx, args.ID), r.user)
	if err == nil && !ok {
		return nil, r.notFoundError(ctx, opUser, "User")
	}
	return u, err
}

// Users resolves Query.users.
func (r *RootResolver) Users(ctx context.Context) ([]*UserResolver, error) {
	return resolveList(ctx, r, opUsers, r.repo.ListUsers(ctx), r.user)
}

// Item resolves Query.item.
func (r *RootResolver) Item(ctx context.Context, args idArgs) (*ItemResolver, error) {
	it, ok, err := resolveOne(ctx, r, opItem, r.repo.GetItem(ctx, args.ID), r.item)
	if err == nil && !ok {
		return nil, r.notFoundError(ctx, opItem, "Item")
	}
	return it, err
}

// Comment resolves Query.comment.
func (r *RootResolver) Comment(ctx context.Context, args idArgs) (*CommentResolver, error) {
	c, ok, err := resolveOne(ctx, r, opComment, r.repo.GetComment(ctx, args.ID), r.comment)
	if err == nil && !ok {
		return nil, r.notFoundError(ctx, opComment, "Comment")
	}
	return c, err
}

func (r *RootResolver) user(u models.User) *UserResolver {
	return &UserResolver{root: r, user: u}
}

func (r *RootResolver) item(it models.Item) *ItemResolver {
	return &ItemResolver{root: r, item: it}
}

func (r *RootResolver) comment(c models.Comment) *CommentResolver {
	return &CommentResolver{root: r, comment: c}
}
