package models

// User is a person who owns items and writes comments.
type User struct {
	ID       string
	Name     string
	Birthday string
}

// UserFromDocument decodes a users document.
func UserFromDocument(doc Document) (User, error) {
	d := newDecoder("user", doc)
	u := User{
		ID:       d.id(),
		Name:     d.str("name"),
		Birthday: d.str("birthday"),
	}
	if d.err != nil {
		return User{}, d.err
	}
	return u, nil
}

// ToDocument returns the stored shape of u.
func (u User) ToDocument() Document {
	return Document{
		"id":       u.ID,
		"name":     u.Name,
		"birthday": u.Birthday,
	}
}
