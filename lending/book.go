package lending

// BookID is the surrogate identifier of a Book. Zero means "not yet assigned".
type BookID = int64

// Book is a catalog entry. The ISBN is unique across all books.
type Book struct {
	ID     BookID
	Title  string
	Author string
	ISBN   string
}

// BuildBook creates a Book without identity, ready to be saved.
func BuildBook(title string, author string, isbn string) Book {
	return Book{
		Title:  title,
		Author: author,
		ISBN:   isbn,
	}
}

// HasID reports whether the store has assigned an identity to the book.
func (b Book) HasID() bool {
	return b.ID != 0
}

// IsEmptyFilter reports whether all fields are zero, i.e. the book used as a filter matches everything.
func (b Book) IsEmptyFilter() bool {
	return b == Book{}
}
