package models

// Comment is a user's remark on an item. ItemID may be empty for comments
// stored without an item reference.
type Comment struct {
	ID      string
	ItemID  string
	UserID  string
	Content string
}

// CommentFromDocument decodes a comments document.
func CommentFromDocument(doc Document) (Comment, error) {
	d := newDecoder("comment", doc)
	c := Comment{
		ID:      d.id(),
		ItemID:  d.str("itemId"),
		UserID:  d.str("userId"),
		Content: d.str("content"),
	}
	if d.err != nil {
		return Comment{}, d.err
	}
	return c, nil
}

// ToDocument returns the stored shape of c. An empty ItemID is omitted.
func (c Comment) ToDocument() Document {
	doc := Document{
		"id":      c.ID,
		"userId":  c.UserID,
		"content": c.Content,
	}
	if c.ItemID != "" {
		doc["itemId"] = c.ItemID
	}
	return doc
}
