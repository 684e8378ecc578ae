package models

import (
	"time"

	"github.com/google/uuid"
)

// Image is the metadata row for an object stored under a product.
type Image struct {
	ID           uuid.UUID `gorm:"column:image_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"image_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	OwnerUserID  uuid.UUID `gorm:"column:owner_id;type:uuid;not null" json:"-"`
	FileName     string    `gorm:"not null" json:"file_name"`
	ContentType  string    `gorm:"not null" json:"content_type"`
	S3BucketPath string    `gorm:"column:s3_bucket_path;uniqueIndex;not null" json:"s3_bucket_path"`
	DateCreated  time.Time `gorm:"column:date_created;autoCreateTime" json:"date_created"`
}

func (i *Image) OwnerID() uuid.UUID {
	return i.OwnerUserID
}
