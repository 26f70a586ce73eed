package models

import "time"

// GuardianLink associates a guardian with a student.
type GuardianLink struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	GuardianID string    `db:"guardian_id" json:"guardian_id"`
	IsPrimary  bool      `db:"is_primary" json:"is_primary"`
	AssignedOn time.Time `db:"assigned_on" json:"assigned_on"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// GuardianLinkDetail adds the names on both sides of the link.
type GuardianLinkDetail struct {
	GuardianLink
	StudentFirstNames  string       `db:"student_first_names" json:"-"`
	StudentLastNames   string       `db:"student_last_names" json:"-"`
	StudentName        string       `db:"-" json:"student_name"`
	GuardianFirstNames string       `db:"guardian_first_names" json:"-"`
	GuardianLastNames  string       `db:"guardian_last_names" json:"-"`
	GuardianName       string       `db:"-" json:"guardian_name"`
	Relationship       Relationship `db:"relationship" json:"relationship"`
	RelationshipLabel  string       `db:"-" json:"relationship_label"`
}

// Decorate fills derived display fields.
func (d *GuardianLinkDetail) Decorate() {
	d.StudentName = FullName(d.StudentFirstNames, d.StudentLastNames)
	d.GuardianName = FullName(d.GuardianFirstNames, d.GuardianLastNames)
	d.RelationshipLabel = d.Relationship.Label()
}

// GuardianLinkFilter provides filters for listing guardian links.
type GuardianLinkFilter struct {
	ListOptions
	StudentID  string
	GuardianID string
	Active     *bool
}
