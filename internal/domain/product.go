package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Product struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Code        string         `json:"code" gorm:"uniqueIndex;not null"`
	Price       float64        `json:"price" gorm:"not null"`
	Stock       int            `json:"stock" gorm:"not null;default:0"`
	Category    string         `json:"category" gorm:"index"`
	Status      bool           `json:"status" gorm:"not null"`
	Thumbnails  datatypes.JSON `json:"thumbnails" gorm:"type:jsonb"` // ["https://.../1.png"]
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ProductSort string

const (
	ProductSortNone      ProductSort = ""
	ProductSortPriceAsc  ProductSort = "asc"
	ProductSortPriceDesc ProductSort = "desc"
)

type ProductFilter struct {
	Category string
	Sort     ProductSort
	Limit    int
	Offset   int
}
