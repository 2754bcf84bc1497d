package model

import "time"

// ArchivedRecord is one soft-deleted row from any entity table. Payload is
// the full row as it was when it left its origin table.
type ArchivedRecord struct {
	ID          string         `json:"id"`
	OriginTable string         `json:"origin_table"`
	OriginID    string         `json:"origin_id"`
	Payload     map[string]any `json:"payload"`
	DeletedAt   time.Time      `json:"deleted_at"`
	DeletedBy   AuditActor     `json:"deleted_by"`
}

// TrashItem is an ArchivedRecord decorated for display.
type TrashItem struct {
	ArchivedRecord
	DisplayName string `json:"display_name"`
	Label       string `json:"label"`
}

type TrashListData struct {
	Filter string      `json:"filter"`
	Items  []TrashItem `json:"items"`
}

// Mutation results carry the notification for the operator; it travels
// in the response envelope, not in data.
type RestoreResult struct {
	Record       ArchivedRecord `json:"record"`
	Row          map[string]any `json:"row"`
	Notification Notification   `json:"-"`
}

type PurgeResult struct {
	Filter       string       `json:"filter,omitempty"`
	DeletedCount int64        `json:"deleted_count"`
	Notification Notification `json:"-"`
}

type DeleteResult struct {
	Record       ArchivedRecord `json:"record"`
	Notification Notification   `json:"-"`
}

type CreateResult struct {
	Table        string         `json:"table"`
	Row          map[string]any `json:"row"`
	Notification Notification   `json:"-"`
}

type OriginOption struct {
	Value       string `json:"value"`
	DisplayName string `json:"display_name"`
}
