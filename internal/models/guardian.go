package models

import "time"

// Relationship is the kinship of a guardian to a student.
type Relationship string

const (
	RelationshipFather        Relationship = "father"
	RelationshipMother        Relationship = "mother"
	RelationshipLegalGuardian Relationship = "legal_guardian"
	RelationshipGrandparent   Relationship = "grandparent"
	RelationshipSibling       Relationship = "sibling"
	RelationshipUncleAunt     Relationship = "uncle_aunt"
	RelationshipOther         Relationship = "other"
)

var relationshipLabels = map[Relationship]string{
	RelationshipFather:        "Father",
	RelationshipMother:        "Mother",
	RelationshipLegalGuardian: "Legal guardian",
	RelationshipGrandparent:   "Grandparent",
	RelationshipSibling:       "Sibling",
	RelationshipUncleAunt:     "Uncle/Aunt",
	RelationshipOther:         "Other",
}

// Valid reports whether r is a known relationship.
func (r Relationship) Valid() bool {
	_, ok := relationshipLabels[r]
	return ok
}

// Label returns the human readable relationship.
func (r Relationship) Label() string {
	if label, ok := relationshipLabels[r]; ok {
		return label
	}
	return string(r)
}

// Guardian is a parent or legal tutor of one or more students.
type Guardian struct {
	ID                string       `db:"id" json:"id"`
	FirstNames        string       `db:"first_names" json:"first_names"`
	LastNames         string       `db:"last_names" json:"last_names"`
	LegalID           string       `db:"legal_id" json:"legal_id"`
	Email             *string      `db:"email" json:"email,omitempty"`
	Phone             string       `db:"phone" json:"phone"`
	Address           *string      `db:"address" json:"address,omitempty"`
	Relationship      Relationship `db:"relationship" json:"relationship"`
	RelationshipLabel string       `db:"-" json:"relationship_label"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name of the guardian.
func (g Guardian) FullName() string {
	return FullName(g.FirstNames, g.LastNames)
}

// GuardianFilter captures list options for guardians.
type GuardianFilter struct {
	ListOptions
	StudentID    string
	Relationship Relationship
}
