package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and form format of List.Date.
const DateLayout = "2006-01-02"

// List is a shopping list owned by a single shopper.
type List struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	Shop      string     `json:"shop" gorm:"type:varchar(100);not null"`
	ShopItems string     `json:"shop_items" gorm:"type:text;not null"`
	Date      *time.Time `json:"date" gorm:"type:date"`
	ShopperID uint       `json:"shopper" gorm:"not null;index"`
	Done      bool       `json:"done" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Items splits ShopItems into one entry per line, in order.
func (l List) Items() []string {
	return strings.Split(l.ShopItems, "\n")
}

// FormattedDate returns Date as YYYY-MM-DD, or "" when unset.
func (l List) FormattedDate() string {
	if l.Date == nil {
		return ""
	}
	return l.Date.Format(DateLayout)
}

func (l List) String() string {
	if l.Date == nil {
		return fmt.Sprintf("%s None", l.Shop)
	}
	return fmt.Sprintf("%s %s", l.Shop, l.FormattedDate())
}

// URL is the canonical detail page of the list.
func (l List) URL() string {
	return fmt.Sprintf("/shoppinglist/%d", l.ID)
}

// ListInput holds every mutable field of a List as submitted by a form or a
// JSON body. Create and Update both bind and validate through it.
type ListInput struct {
	Shop      string `json:"shop" validate:"max=100"`
	ShopItems string `json:"shop_items"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Done      bool   `json:"done"`
	Shopper   uint   `json:"shopper"`
}

// InputFromList pre-fills a form with the current values of l.
func InputFromList(l List) ListInput {
	return ListInput{
		Shop:      l.Shop,
		ShopItems: l.ShopItems,
		Date:      l.FormattedDate(),
		Done:      l.Done,
		Shopper:   l.ShopperID,
	}
}
