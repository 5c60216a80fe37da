package model

// MaxLibraryNameLength bounds Library.Name
const MaxLibraryNameLength = 255

type Library struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `json:"name"`
	UserID uint   `json:"user_id"`
}

func (l Library) TableName() string {
	return "libraries"
}

// OwnerID returns the id of the user that owns the library
func (l *Library) OwnerID() uint {
	return l.UserID
}
