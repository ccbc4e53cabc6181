package models

import "time"

// LectureSession is one scheduled occurrence of a course, taken by a
// specific lecturer.
type LectureSession struct {
	ID          int64     `db:"id" json:"id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	LecturerID  int64     `db:"lecturer_id" json:"lecturer_id"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AttendanceRecord marks a student's presence at a lecture session.
type AttendanceRecord struct {
	SessionID      int64     `db:"session_id" json:"session_id"`
	StudentID      int64     `db:"student_id" json:"student_id"`
	AttendanceTime time.Time `db:"attendance_time" json:"attendance_time"`
	Attended       bool      `db:"attended" json:"attended"`
}

// AttendanceEntry is a roster row: attendance joined with student identity,
// used for terminal responses and report sheets.
type AttendanceEntry struct {
	StudentID      int64     `db:"student_id" json:"student_id"`
	StudentName    string    `db:"student_name" json:"student_name"`
	SchID          string    `db:"sch_id" json:"sch_id"`
	AttendanceTime time.Time `db:"attendance_time" json:"attendance_time"`
	Attended       bool      `db:"attended" json:"attended"`
}

// CourseAttendance bundles a course with the roster of its most recent
// lecture session.
type CourseAttendance struct {
	Course    Course            `json:"course"`
	SessionID int64             `json:"session_id"`
	Roster    []AttendanceEntry `json:"roster"`
}
