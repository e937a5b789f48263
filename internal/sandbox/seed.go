package sandbox

// SeedBooks returns the default catalog. It mixes per-copy rows with the
// same title, numeric strings and a record without an availability count,
// which is how the production backend tends to answer.
func SeedBooks() []map[string]any {
	return []map[string]any{
		{
			"id": 1, "title": "The Pragmatic Programmer", "author": "David Thomas",
			"ISBN": "9780135957059", "publishYear": 2019, "pages": 352,
			"total_copies": 2, "available_copies": 1,
			"img": "pragmatic.jpg", "created_at": "2024-01-10T09:00:00Z",
		},
		{
			"id": 2, "title": "the pragmatic programmer ", "author": "David Thomas",
			"ISBN": "9780135957059", "publishYear": 2019, "pages": 352,
			"total_copies": "1", "available_copies": "0",
			"created_at": "2024-02-11T09:00:00Z",
		},
		{
			"id": 3, "title": "Designing Data-Intensive Applications", "author": "Martin Kleppmann",
			"ISBN": "9781449373320", "publishYear": "2017", "pages": 616,
			"total_copies": 3, "available_copies": 0, "status": "checked_out",
			"img": "/library-management-system/uploads/ddia.jpg",
		},
		{
			"id": 4, "title": "The Go Programming Language", "author": "Alan Donovan",
			"ISBN": "0134190440", "publishYear": 2015, "pages": 380,
			"total_copies": 1, "available_copies": 1,
			"img": "https://covers.openlibrary.org/b/isbn/0134190440-L.jpg",
		},
		{
			"id": 5, "title": "Refactoring", "author": "Martin Fowler",
			"publishYear": 2018, "pages": 448, "total_copies": 1,
			"status": "On Shelf",
		},
	}
}
