package models

import "time"

// EnrollmentStage names a point in the card enrollment workflow, reported
// to the observing client over the status channel.
type EnrollmentStage string

// Workflow stages. COMPLETED and FAILED are terminal; no stage follows them.
const (
	StageInitiated        EnrollmentStage = "INITIATED"
	StageConnectingReader EnrollmentStage = "CONNECTING_READER"
	StageWaitingForCard   EnrollmentStage = "WAITING_FOR_CARD"
	StageCompleted        EnrollmentStage = "COMPLETED"
	StageFailed           EnrollmentStage = "FAILED"
)

// Terminal reports whether no further stage may follow s.
func (s EnrollmentStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// CardEnrollment is the durable mapping of a physical card to a user
// identity, written once per successful enrollment session. Re-presenting
// a known card overwrites the mapping (last write wins).
type CardEnrollment struct {
	ID        string    `db:"id" json:"id"`
	RFIDUID   string    `db:"rfid_uid" json:"rfid_uid"`
	Username  string    `db:"username" json:"username"`
	UniqueID  string    `db:"unique_id" json:"unique_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
