package types

import (
	"time"
)

// BaseModel carries the audit columns shared by every persisted model.
// Changes here must be mirrored in the migrations.
type BaseModel struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func GetDefaultBaseModel() BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		CreatedAt: now,
		UpdatedAt: now,
	}
}
