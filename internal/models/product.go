package models

import (
	"time"

	"github.com/google/uuid"
)

// Product belongs to the user that created it.
type Product struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Description     string    `gorm:"not null" json:"description"`
	SKU             string    `gorm:"column:sku;not null;uniqueIndex:idx_products_owner_sku" json:"sku"`
	Manufacturer    string    `gorm:"not null" json:"manufacturer"`
	Quantity        int       `gorm:"not null;check:quantity >= 0" json:"quantity"`
	OwnerUserID     uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null;uniqueIndex:idx_products_owner_sku" json:"owner_user_id"`
	DateAdded       time.Time `gorm:"column:date_added;autoCreateTime" json:"date_added"`
	DateLastUpdated time.Time `gorm:"column:date_last_updated;autoUpdateTime" json:"date_last_updated"`
}

func (p *Product) OwnerID() uuid.UUID {
	return p.OwnerUserID
}

// ProductPatch carries the fields a partial update may change. Nil means untouched.
type ProductPatch struct {
	Name         *string
	Description  *string
	SKU          *string
	Manufacturer *string
	Quantity     *int
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.SKU == nil &&
		p.Manufacturer == nil && p.Quantity == nil
}

// Apply copies the set fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.SKU != nil {
		product.SKU = *p.SKU
	}
	if p.Manufacturer != nil {
		product.Manufacturer = *p.Manufacturer
	}
	if p.Quantity != nil {
		product.Quantity = *p.Quantity
	}
}
