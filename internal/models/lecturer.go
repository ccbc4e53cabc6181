package models

import "time"

// Lecturer mirrors the central store's lecturer record. IDs are assigned
// centrally and pushed down during sync, never minted here.
type Lecturer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SchID     string    `db:"sch_id" json:"sch_id"`
	RFIDUID   string    `db:"rfid_uid" json:"rfid_uid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
