package accountrepo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

// Document is the stored JSON shape of an account. Field names match the documents written
// by the mobile app so existing records load unchanged.
type Document struct {
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Email     string       `json:"emailAddress"`
	ClubName  string       `json:"clubName"`
	Approved  bool         `json:"approved"`
	Students  []StudentDoc `json:"students"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type StudentDoc struct {
	// StudentID is absent on records written before surrogate ids existed.
	StudentID string `json:"studentId,omitempty"`

	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"emailAddress"`
	Address    string `json:"address"`
	Postcode   string `json:"postcode"`
	Occupation string `json:"occupation"`
	BirthDate  string `json:"birthDate"`
	Phone      string `json:"phone"`
	ClubName   string `json:"clubName"`

	AgreedToMembershipTerms bool `json:"agreedToMembershipTerms"`
	AgreedToPhotography     bool `json:"agreedToPhotography"`

	LicDate    string `json:"licDate"`
	LicExpDate string `json:"licExpDate"`
	// LicenseApplicationStatus is null when no application exists.
	LicenseApplicationStatus *string `json:"licenseApplicationStatus"`

	GradingHistory []GradeDoc `json:"gradingHistory"`
	DateJoined     time.Time  `json:"dateJoined"`
}

type GradeDoc struct {
	DatePassed string    `json:"datePassed"`
	Examiner   string    `json:"examiner"`
	Grade      string    `json:"grade"`
	GradeID    string    `json:"gradeId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromDomain builds the stored shape of a.
func FromDomain(a domain.Account) Document {
	doc := Document{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		ClubName:  a.ClubName,
		Approved:  a.Approved,
		Students:  make([]StudentDoc, 0, len(a.Students)),
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
	for _, s := range a.Students {
		sd := StudentDoc{
			StudentID:               string(s.ID),
			FirstName:               s.FirstName,
			LastName:                s.LastName,
			Email:                   s.Email,
			Address:                 s.Address,
			Postcode:                s.Postcode,
			Occupation:              s.Occupation,
			BirthDate:               s.BirthDate,
			Phone:                   s.Phone,
			ClubName:                s.ClubName,
			AgreedToMembershipTerms: s.AgreedToMembershipTerms,
			AgreedToPhotography:     s.AgreedToPhotography,
			LicDate:                 s.LicDate,
			LicExpDate:              s.LicExpDate,
			GradingHistory:          make([]GradeDoc, 0, len(s.GradingHistory)),
			DateJoined:              s.DateJoined.UTC(),
		}
		if s.LicenseApplicationStatus != domain.LicenseApplicationNone {
			v := string(s.LicenseApplicationStatus)
			sd.LicenseApplicationStatus = &v
		}
		for _, g := range s.GradingHistory {
			sd.GradingHistory = append(sd.GradingHistory, GradeDoc{
				DatePassed: g.DatePassed,
				Examiner:   g.Examiner,
				Grade:      g.Name,
				GradeID:    g.ID,
				CreatedAt:  g.CreatedAt.UTC(),
			})
		}
		doc.Students = append(doc.Students, sd)
	}
	return doc
}

// ToDomain converts a stored document back into an Account keyed by id.
func (d Document) ToDomain(id domain.AccountID) domain.Account {
	a := domain.Account{
		ID:        id,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		ClubName:  d.ClubName,
		Approved:  d.Approved,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Students) > 0 {
		a.Students = make([]domain.Student, 0, len(d.Students))
	}
	for _, sd := range d.Students {
		s := domain.Student{
			ID:                      domain.StudentID(sd.StudentID),
			FirstName:               sd.FirstName,
			LastName:                sd.LastName,
			Email:                   sd.Email,
			Address:                 sd.Address,
			Postcode:                sd.Postcode,
			Occupation:              sd.Occupation,
			BirthDate:               sd.BirthDate,
			Phone:                   sd.Phone,
			ClubName:                sd.ClubName,
			AgreedToMembershipTerms: sd.AgreedToMembershipTerms,
			AgreedToPhotography:     sd.AgreedToPhotography,
			LicDate:                 sd.LicDate,
			LicExpDate:              sd.LicExpDate,
			DateJoined:              sd.DateJoined,
		}
		if sd.LicenseApplicationStatus != nil {
			s.LicenseApplicationStatus = decodeApplicationStatus(*sd.LicenseApplicationStatus)
		}
		if len(sd.GradingHistory) > 0 {
			s.GradingHistory = make([]domain.Grade, 0, len(sd.GradingHistory))
		}
		for _, g := range sd.GradingHistory {
			s.GradingHistory = append(s.GradingHistory, domain.Grade{
				ID:         g.GradeID,
				DatePassed: g.DatePassed,
				Examiner:   g.Examiner,
				Name:       g.Grade,
				CreatedAt:  g.CreatedAt,
			})
		}
		a.Students = append(a.Students, s)
	}
	return a
}

// decodeApplicationStatus folds case and padding on recognized statuses. Anything else is kept
// verbatim so a rewrite of the document does not lose it.
func decodeApplicationStatus(raw string) domain.LicenseApplicationStatus {
	if st := domain.LicenseApplicationStatus(strings.ToLower(strings.TrimSpace(raw))); st.Known() {
		return st
	}
	return domain.LicenseApplicationStatus(raw)
}

// Marshal encodes a as its stored JSON document.
func Marshal(a domain.Account) ([]byte, error) {
	b, err := json.Marshal(FromDomain(a))
	if err != nil {
		return nil, fmt.Errorf("encode account %q: %w", a.ID, err)
	}
	return b, nil
}

// Unmarshal decodes a stored JSON document for id.
func Unmarshal(id domain.AccountID, b []byte) (domain.Account, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Account{}, fmt.Errorf("decode account %q: %w", id, err)
	}
	return d.ToDomain(id), nil
}
