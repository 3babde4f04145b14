package models

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task"`
	Content   string    `json:"content"`
	CreatedBy uuid.UUID `json:"createdBy"`
	CreatedAt time.Time `json:"created_at"`
}
