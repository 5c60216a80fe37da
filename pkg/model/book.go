package model

// Column limits from db/migrations
const (
	MaxBookTitleLength  = 255
	MaxBookAuthorLength = 255
	MaxISBNLength       = 20
	MaxGenreLength      = 100
)

type Book struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	ISBN          *string `gorm:"column:isbn" json:"isbn"`
	PublishedDate *Date   `gorm:"type:date" json:"published_date"`
	Genre         *string `json:"genre"`
	Description   *string `json:"description"`
	CoverImage    *string `json:"cover_image"`
	IsAvailable   bool    `json:"is_available"`
	LibraryID     uint    `json:"library_id"`
	OwnerID       uint    `json:"owner_id"`
}

func (b Book) TableName() string {
	return "books"
}
