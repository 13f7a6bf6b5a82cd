package db

import (
	"time"

	"gorm.io/datatypes"
)

// Realm is a tenant. Projects reference it by RealmID.
type Realm struct {
	ID string `gorm:"primaryKey;size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Projects []Project `gorm:"foreignKey:RealmID"`
}

// Project is a tracked site. Its primary key is (RealmID, ID), the two
// halves of the public track token.
type Project struct {
	RealmID string `gorm:"primaryKey;size:128"`
	ID      string `gorm:"primaryKey;size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// AllowedOrigins restricts which Origin headers may use this project.
	// An empty list allows any origin.
	AllowedOrigins datatypes.JSONSlice[string] `gorm:"type:json"`

	PageLoads   bool `gorm:"not null;default:false"`
	PageClicks  bool `gorm:"not null;default:false"`
	PageScrolls bool `gorm:"not null;default:false"`
}

// Event is a single accepted tracking report.
type Event struct {
	ID uint `gorm:"primaryKey"`

	// CreatedAt is the server receive time.
	CreatedAt time.Time `gorm:"index"`

	// ExpiresAt is the timestamp after which this event is eligible
	// for deletion by the retention worker. A nil value means the
	// event does not currently expire.
	ExpiresAt *time.Time `gorm:"index"`

	RealmID   string `gorm:"size:128;index:idx_events_project,priority:1;not null"`
	ProjectID string `gorm:"size:128;index:idx_events_project,priority:2;not null"`
	Type      string `gorm:"index"`
	DeviceID  string `gorm:"index"`
	SessionID string `gorm:"index"`
	URL       string

	// ClientTimestamp is the client clock in milliseconds since epoch.
	ClientTimestamp int64

	// Payload is the submitted payload including the server-attached
	// userAgent descriptor.
	Payload datatypes.JSONMap `gorm:"type:json"`
}
