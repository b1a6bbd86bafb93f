package models

import (
	"strings"

	"github.com/lib/pq"
)

// ClassRef identifies one class-section within a grade stage.
type ClassRef struct {
	Stage   string `json:"stage"`
	Section string `json:"section"`
}

// Key derives the stable mapping key for the class. The key is only ever
// reversed by looking it up against the original class list, never by
// re-parsing.
func (c ClassRef) Key() string {
	return strings.ReplaceAll(c.Stage+"-"+c.Section, " ", "_")
}

// ClassData is the read-only class record supplied by the school database.
type ClassData struct {
	ID       string         `db:"id" json:"id"`
	Stage    string         `db:"stage" json:"stage"`
	Section  string         `db:"section" json:"section"`
	Subjects pq.StringArray `db:"subjects" json:"subjects"`
}

// Ref returns the class reference for key derivation.
func (c ClassData) Ref() ClassRef {
	return ClassRef{Stage: c.Stage, Section: c.Section}
}

// FindClassByKey resolves a class key back to its record via the class list.
func FindClassByKey(classes []ClassData, key string) (ClassData, bool) {
	for _, class := range classes {
		if class.Ref().Key() == key {
			return class, true
		}
	}
	return ClassData{}, false
}

// ClassesByStage groups classes by grade stage.
func ClassesByStage(classes []ClassData) map[string][]ClassData {
	grouped := make(map[string][]ClassData)
	for _, class := range classes {
		grouped[class.Stage] = append(grouped[class.Stage], class)
	}
	return grouped
}
