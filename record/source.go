package record

import (
	"fmt"
	"time"
)

// Source describes one upstream dataset - who publishes it, under what
// license, and where it can be downloaded. One Source record is emitted
// per run; Identifier is its stable slug, reused across runs.
type Source struct {
	Identifier   string         `json:"identifier" bson:"_id"`
	Title        string         `json:"title" bson:"title"`
	Description  string         `json:"description" bson:"description"`
	License      string         `json:"license" bson:"license"`
	LicenseName  string         `json:"license_name" bson:"license_name"`
	Issued       time.Time      `json:"issued" bson:"issued"`
	Modified     time.Time      `json:"modified" bson:"modified"`
	Publisher    Publisher      `json:"publisher" bson:"publisher"`
	Distribution []Distribution `json:"distribution" bson:"distribution"`
}

type Publisher struct {
	Name    string `json:"name" bson:"name"`
	Website string `json:"website" bson:"website"`
}

// Distribution is one way of getting at a source's data.
type Distribution struct {
	DownloadURL string `json:"downloadURL" bson:"downloadURL"`
	AccessURL   string `json:"accessURL" bson:"accessURL"`
	Title       string `json:"title" bson:"title"`
}

func (s *Source) Kind() Kind         { return KindSource }
func (s *Source) PrimaryKey() string { return s.Identifier }

func (s *Source) String() string {
	return fmt.Sprintf(`<Source "%s">`, s.Title)
}

// Link asserts that two organisation identifiers refer to related (or
// the same) real-world entities. A link with either side missing is
// meaningless and is never persisted.
type Link struct {
	OrganisationIDA string `json:"organisation_id_a" bson:"organisation_id_a"`
	OrganisationIDB string `json:"organisation_id_b" bson:"organisation_id_b"`
	Description     string `json:"description" bson:"description"`
	Source          string `json:"source" bson:"source"`
}

func (l *Link) Kind() Kind { return KindLink }

// PrimaryKey is the composite of both sides; "" when either is missing.
func (l *Link) PrimaryKey() string {
	if l.OrganisationIDA == "" || l.OrganisationIDB == "" {
		return ""
	}
	return l.OrganisationIDA + ":" + l.OrganisationIDB
}

func (l *Link) String() string {
	return fmt.Sprintf("<Link %s and %s>", l.OrganisationIDA, l.OrganisationIDB)
}
