// Package repository turns document store reads into typed records with an
// explicit found, not-found or failed outcome.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/models"
	"github.com/piwi3910/itemgraph/internal/storage"
)

// Field names used for equality scans.
const (
	fieldUserID = "userId"
	fieldItemID = "itemId"
)

// ErrInvalidDocument is returned when a stored document cannot be decoded.
var ErrInvalidDocument = errors.New("invalid document")

// Repository reads users, items and comments from a document store.
// Every method issues exactly one store request.
type Repository struct {
	store       storage.DocumentStore
	collections config.CollectionsConfig
}

// New creates a repository over store using the given collection names.
func New(store storage.DocumentStore, collections config.CollectionsConfig) *Repository {
	if store == nil {
		panic("repository: store cannot be nil")
	}
	return &Repository{store: store, collections: collections}
}

// ListItems returns every item in store order.
func (r *Repository) ListItems(ctx context.Context) Result[[]models.Item] {
	docs, err := r.store.List(ctx, r.collections.Items)
	return decodeAll(r.collections.Items, docs, err, models.ItemFromDocument)
}

// GetUser reads one user.
func (r *Repository) GetUser(ctx context.Context, id string) Result[models.User] {
	return getOne(ctx, r.store, r.collections.Users, id, models.UserFromDocument)
}

// ListUsers returns every user in store order.
func (r *Repository) ListUsers(ctx context.Context) Result[[]models.User] {
	docs, err := r.store.List(ctx, r.collections.Users)
	return decodeAll(r.collections.Users, docs, err, models.UserFromDocument)
}

// ListItemsByUser returns the items whose userId equals userID.
func (r *Repository) ListItemsByUser(ctx context.Context, userID string) Result[[]models.Item] {
	docs, err := r.store.Where(ctx, r.collections.Items, fieldUserID, userID)
	return decodeAll(r.collections.Items, docs, err, models.ItemFromDocument)
}

// GetItem reads one item.
func (r *Repository) GetItem(ctx context.Context, id string) Result[models.Item] {
	return getOne(ctx, r.store, r.collections.Items, id, models.ItemFromDocument)
}

// GetComment reads one comment.
func (r *Repository) GetComment(ctx context.Context, id string) Result[models.Comment] {
	return getOne(ctx, r.store, r.collections.Comments, id, models.CommentFromDocument)
}

// ListCommentsByItem returns the comments whose itemId equals itemID.
func (r *Repository) ListCommentsByItem(ctx context.Context, itemID string) Result[[]models.Comment] {
	docs, err := r.store.Where(ctx, r.collections.Comments, fieldItemID, itemID)
	return decodeAll(r.collections.Comments, docs, err, models.CommentFromDocument)
}

// ListCommentsByUser returns the comments whose userId equals userID.
func (r *Repository) ListCommentsByUser(ctx context.Context, userID string) Result[[]models.Comment] {
	docs, err := r.store.Where(ctx, r.collections.Comments, fieldUserID, userID)
	return decodeAll(r.collections.Comments, docs, err, models.CommentFromDocument)
}

// getOne performs a point read. Keys that cannot name a document are
// reported as NotFound without touching the store.
func getOne[T any](ctx context.Context, store storage.DocumentStore, collection, id string, decode func(models.Document) (T, error)) Result[T] {
	if !validID(id) {
		return notFound[T]()
	}

	doc, err := store.Get(ctx, collection, id)
	switch {
	case errors.Is(err, storage.ErrDocumentNotFound):
		return notFound[T]()
	case err != nil:
		return failed[T](err)
	}

	v, err := decode(doc)
	if err != nil {
		return failed[T](fmt.Errorf("%w: %s/%s: %w", ErrInvalidDocument, collection, id, err))
	}
	return found(v)
}

// decodeAll decodes a scan. One malformed document fails the whole read.
func decodeAll[T any](collection string, docs []storage.Document, err error, decode func(models.Document) (T, error)) Result[[]T] {
	if err != nil {
		return failed[[]T](err)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := decode(doc)
		if err != nil {
			return failed[[]T](fmt.Errorf("%w: %s/%v: %w", ErrInvalidDocument, collection, doc["id"], err))
		}
		out = append(out, v)
	}
	return found(out)
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}
