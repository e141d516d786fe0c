package models

// Category groups menu items under a unique, human-readable name.
type Category struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;not null"`
	Items []Item `gorm:"foreignKey:CategoryID"`
}

func (c *Category) TableName() string {
	return "categories"
}

// CategorySummary is a category together with the number of items it owns.
type CategorySummary struct {
	ID        uint
	Name      string
	ItemCount int64
}
