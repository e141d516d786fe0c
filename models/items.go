package models

import (
	"github.com/shopspring/decimal"
)

// Item represents a single dish on the menu.
// Every item belongs to exactly one category.
type Item struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"not null"`
	Description string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID  uint            `gorm:"not null;index"`
	Category    Category        `gorm:"foreignKey:CategoryID"`
	ImageURL    *string
	Featured    bool `gorm:"not null;default:false"`
}

func (i *Item) TableName() string {
	return "items"
}
