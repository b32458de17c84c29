package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionState mirrors the Evolution API instance connection states.
type ConnectionState string

const (
	ConnectionStateOpen       ConnectionState = "open"
	ConnectionStateClosed     ConnectionState = "close"
	ConnectionStateConnecting ConnectionState = "connecting"
)

// Instance is the local cache row for a WhatsApp instance managed by the
// Evolution API server, reconciled by the instances sync command.
type Instance struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	ConnectionState ConnectionState `json:"connection_state"`
	OwnerJID        *string         `json:"owner_jid,omitempty"`
	ProfileName     *string         `json:"profile_name,omitempty"`
	SyncedAt        time.Time       `json:"synced_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsConnected reports whether the instance has an open session.
func (i *Instance) IsConnected() bool {
	return i.ConnectionState == ConnectionStateOpen
}
