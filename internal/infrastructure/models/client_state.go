package models

import "time"

// ClientState is one persisted client-state document
type ClientState struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Namespace string `gorm:"type:varchar(128);not null;uniqueIndex:idx_client_state_ns_key"`
	Key       string `gorm:"column:state_key;type:varchar(128);not null;uniqueIndex:idx_client_state_ns_key"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ClientState) TableName() string {
	return "client_states"
}
