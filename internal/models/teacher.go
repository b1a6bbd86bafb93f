package models

// Teacher is an instructor record with the subject/class pairs they teach.
// The engine reads the roster, never mutates it.
type Teacher struct {
	ID          string              `db:"id" json:"id"`
	FullName    string              `db:"full_name" json:"full_name"`
	Assignments []TeacherAssignment `json:"assignments"`
}

// TeacherAssignment binds a teacher to one subject in one class.
type TeacherAssignment struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	Subject   string `db:"subject" json:"subject"`
	ClassKey  string `db:"class_key" json:"class_key"`
}

// Teaches reports whether the teacher delivers the subject to the class.
func (t Teacher) Teaches(subject, classKey string) bool {
	for _, a := range t.Assignments {
		if a.Subject == subject && a.ClassKey == classKey {
			return true
		}
	}
	return false
}

// TeacherUnavailability maps a teacher name to the day names they cannot
// teach. Consulted read-only by generation and editing.
type TeacherUnavailability map[string][]string

// IsUnavailable reports whether the teacher is off on the given day.
func (u TeacherUnavailability) IsUnavailable(teacher, day string) bool {
	for _, d := range u[teacher] {
		if d == day {
			return true
		}
	}
	return false
}
