package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/models"
	"github.com/piwi3910/itemgraph/internal/repository"
	"github.com/piwi3910/itemgraph/internal/storage"
	"github.com/piwi3910/itemgraph/internal/storage/storagetest"
)

var collections = config.CollectionsConfig{Users: "users", Items: "items", Comments: "comments"}

// seed builds a fault store over a memory store holding a small fixture.
func seed(t *testing.T) *storagetest.FaultStore {
	t.Helper()

	mem := storage.NewMemoryStore()
	ctx := context.Background()

	put := func(coll, id string, doc storage.Document) {
		require.NoError(t, mem.Put(ctx, coll, id, doc))
	}
	put("users", "u1", models.User{ID: "u1", Name: "Ada", Birthday: "1815-12-10"}.ToDocument())
	put("users", "u2", models.User{ID: "u2", Name: "Alan", Birthday: "1912-06-23"}.ToDocument())
	put("items", "i1", models.Item{ID: "i1", UserID: "u1", Title: "Engine", Content: "notes"}.ToDocument())
	put("items", "i2", models.Item{ID: "i2", UserID: "u2", Title: "Machine", Content: "paper"}.ToDocument())
	put("items", "i3", models.Item{ID: "i3", UserID: "u1", Title: "Loom", Content: "cards"}.ToDocument())
	put("comments", "c1", models.Comment{ID: "c1", ItemID: "i1", UserID: "u2", Content: "neat"}.ToDocument())
	put("comments", "c2", models.Comment{ID: "c2", UserID: "u1", Content: "loose"}.ToDocument())

	return storagetest.New(mem)
}

func TestListItems(t *testing.T) {
	store := seed(t)
	repo := repository.New(store, collections)

	res := repo.ListItems(context.Background())

	require.Equal(t, repository.Found, res.Outcome)
	require.Len(t, res.Value, 3)
	assert.Equal(t, "i1", res.Value[0].ID)
	assert.Equal(t, "i2", res.Value[1].ID)
	assert.Equal(t, "i3", res.Value[2].ID)
	assert.Equal(t, 1, store.Count("list"))
}

func TestListItems_Empty(t *testing.T) {
	repo := repository.New(storagetest.New(nil), collections)

	res := repo.ListItems(context.Background())

	assert.True(t, res.OK())
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		want     repository.Outcome
		wantName string
		calls    int
	}{
		{name: "present", id: "u1", want: repository.Found, wantName: "Ada", calls: 1},
		{name: "absent", id: "nobody", want: repository.NotFound, calls: 1},
		{name: "empty id", id: "", want: repository.NotFound, calls: 0},
		{name: "path-like id", id: "u1/items", want: repository.NotFound, calls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seed(t)
			repo := repository.New(store, collections)

			res := repo.GetUser(context.Background(), tt.id)

			assert.Equal(t, tt.want, res.Outcome)
			assert.NoError(t, res.Err)
			assert.Equal(t, tt.wantName, res.Value.Name)
			assert.Equal(t, tt.calls, store.Count("get"))
		})
	}
}

func TestListItemsByUser(t *testing.T) {
	store := seed(t)
	repo := repository.New(store, collections)

	res := repo.ListItemsByUser(context.Background(), "u1")
	require.True(t, res.OK())
	require.Len(t, res.Value, 2)
	assert.Equal(t, "i1", res.Value[0].ID)
	assert.Equal(t, "i3", res.Value[1].ID)

	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, storagetest.Call{Op: "where", Collection: "items", Arg: "userId==u1"}, calls[0])

	none := repo.ListItemsByUser(context.Background(), "u9")
	assert.Equal(t, repository.Found, none.Outcome)
	assert.Empty(t, none.Value)
}

func TestComments(t *testing.T) {
	store := seed(t)
	repo := repository.New(store, collections)
	ctx := context.Background()

	byItem := repo.ListCommentsByItem(ctx, "i1")
	require.True(t, byItem.OK())
	require.Len(t, byItem.Value, 1)
	assert.Equal(t, "c1", byItem.Value[0].ID)

	byUser := repo.ListCommentsByUser(ctx, "u1")
	require.True(t, byUser.OK())
	require.Len(t, byUser.Value, 1)
	assert.Equal(t, "c2", byUser.Value[0].ID)
	assert.Empty(t, byUser.Value[0].ItemID)

	one := repo.GetComment(ctx, "c1")
	require.True(t, one.OK())
	assert.Equal(t, "i1", one.Value.ItemID)
}

func TestGetItemAndListUsers(t *testing.T) {
	repo := repository.New(seed(t), collections)
	ctx := context.Background()

	item := repo.GetItem(ctx, "i2")
	require.True(t, item.OK())
	assert.Equal(t, "u2", item.Value.UserID)

	users := repo.ListUsers(ctx)
	require.True(t, users.OK())
	assert.Len(t, users.Value, 2)
}

func TestStoreFailures(t *testing.T) {
	unavailable := fmt.Errorf("dial: %w", storage.ErrStorageUnavailable)
	ctx := context.Background()

	tests := []struct {
		name string
		op   string
		call func(*repository.Repository) (repository.Outcome, error)
	}{
		{
			name: "list items",
			op:   "list",
			call: func(r *repository.Repository) (repository.Outcome, error) {
				res := r.ListItems(ctx)
				return res.Outcome, res.Err
			},
		},
		{
			name: "get user",
			op:   "get",
			call: func(r *repository.Repository) (repository.Outcome, error) {
				res := r.GetUser(ctx, "u1")
				return res.Outcome, res.Err
			},
		},
		{
			name: "items by user",
			op:   "where",
			call: func(r *repository.Repository) (repository.Outcome, error) {
				res := r.ListItemsByUser(ctx, "u1")
				return res.Outcome, res.Err
			},
		},
		{
			name: "comments by item",
			op:   "where",
			call: func(r *repository.Repository) (repository.Outcome, error) {
				res := r.ListCommentsByItem(ctx, "i1")
				return res.Outcome, res.Err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seed(t)
			store.Fail(tt.op, "", unavailable)
			repo := repository.New(store, collections)

			outcome, err := tt.call(repo)

			assert.Equal(t, repository.Failed, outcome)
			assert.True(t, errors.Is(err, storage.ErrStorageUnavailable))
		})
	}
}

func TestInvalidDocuments(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, mem.Put(ctx, "users", "u1", storage.Document{"name": 42}))
	require.NoError(t, mem.Put(ctx, "items", "i1", storage.Document{"userId": "u1", "title": true}))

	repo := repository.New(mem, collections)

	user := repo.GetUser(ctx, "u1")
	assert.Equal(t, repository.Failed, user.Outcome)
	assert.True(t, errors.Is(user.Err, repository.ErrInvalidDocument))
	assert.True(t, errors.Is(user.Err, models.ErrInvalidField))

	items := repo.ListItems(ctx)
	assert.Equal(t, repository.Failed, items.Outcome)
	assert.True(t, errors.Is(items.Err, repository.ErrInvalidDocument))
	assert.Contains(t, items.Err.Error(), "items/i1")
}

func TestNew_NilStorePanics(t *testing.T) {
	assert.Panics(t, func() { repository.New(nil, collections) })
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", repository.Found.String())
	assert.Equal(t, "not_found", repository.NotFound.String())
	assert.Equal(t, "failed", repository.Failed.String())
	assert.Equal(t, "unknown", repository.Outcome(9).String())
}
