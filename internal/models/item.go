package models

// Item is a piece of content owned by a user through UserID.
type Item struct {
	ID      string
	UserID  string
	Title   string
	Content string
}

// ItemFromDocument decodes an items document.
func ItemFromDocument(doc Document) (Item, error) {
	d := newDecoder("item", doc)
	it := Item{
		ID:      d.id(),
		UserID:  d.str("userId"),
		Title:   d.str("title"),
		Content: d.str("content"),
	}
	if d.err != nil {
		return Item{}, d.err
	}
	return it, nil
}

// ToDocument returns the stored shape of it.
func (it Item) ToDocument() Document {
	return Document{
		"id":      it.ID,
		"userId":  it.UserID,
		"title":   it.Title,
		"content": it.Content,
	}
}
