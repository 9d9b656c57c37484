package models

import "time"

// User is an account that can log in and own lists.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(150);not null" validate:"required,min=3,max=150"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null" validate:"required,min=6"` // bcrypt hash once stored
	Lists     []List    `json:"-" gorm:"foreignKey:ShopperID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
