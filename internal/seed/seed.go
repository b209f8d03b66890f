// Package seed loads fixture documents into a document store.
//
// A fixture is a JSON object with optional "users", "items" and "comments"
// arrays. Every entry is validated with the model decoders before anything
// is written, so a bad fixture leaves the store untouched.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/models"
	"github.com/piwi3910/itemgraph/internal/observability"
	"github.com/piwi3910/itemgraph/internal/storage"
)

// Fixture is the decoded seed file.
type Fixture struct {
	Users    []models.Document `json:"users"`
	Items    []models.Document `json:"items"`
	Comments []models.Document `json:"comments"`
}

// Counts reports how many documents were written per collection.
type Counts struct {
	Users    int
	Items    int
	Comments int
}

type entry struct {
	collection string
	id         string
	doc        storage.Document
}

// Decode reads a fixture from r.
func Decode(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// Load validates every fixture entry and then writes them in file order,
// users first. Re-running a fixture replaces documents in place.
func Load(ctx context.Context, store storage.DocumentStore, collections config.CollectionsConfig, f *Fixture, logger *observability.Logger) (Counts, error) {
	entries, counts, err := prepare(collections, f)
	if err != nil {
		return Counts{}, err
	}

	for _, e := range entries {
		if err := store.Put(ctx, e.collection, e.id, e.doc); err != nil {
			return Counts{}, fmt.Errorf("failed to write %s/%s: %w", e.collection, e.id, err)
		}
	}

	logger.Info("fixture loaded",
		zap.Int("users", counts.Users),
		zap.Int("items", counts.Items),
		zap.Int("comments", counts.Comments),
	)
	return counts, nil
}

func prepare(collections config.CollectionsConfig, f *Fixture) ([]entry, Counts, error) {
	var (
		entries []entry
		counts  Counts
	)

	for i, doc := range f.Users {
		u, err := models.UserFromDocument(doc)
		if err != nil {
			return nil, Counts{}, fmt.Errorf("users[%d]: %w", i, err)
		}
		entries = append(entries, entry{collections.Users, u.ID, u.ToDocument()})
		counts.Users++
	}
	for i, doc := range f.Items {
		it, err := models.ItemFromDocument(doc)
		if err != nil {
			return nil, Counts{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		entries = append(entries, entry{collections.Items, it.ID, it.ToDocument()})
		counts.Items++
	}
	for i, doc := range f.Comments {
		c, err := models.CommentFromDocument(doc)
		if err != nil {
			return nil, Counts{}, fmt.Errorf("comments[%d]: %w", i, err)
		}
		entries = append(entries, entry{collections.Comments, c.ID, c.ToDocument()})
		counts.Comments++
	}

	for _, e := range entries {
		if strings.Contains(e.id, "/") {
			return nil, Counts{}, fmt.Errorf("%s/%s: %w", e.collection, e.id, storage.ErrInvalidID)
		}
	}

	return entries, counts, nil
}
