package accountrepo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

func TestUnmarshal_LegacyDocument(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"firstName": "Bo",
		"lastName": "Channon",
		"emailAddress": "bo@example.com",
		"clubName": "Westside",
		"approved": true,
		"students": [{
			"firstName": "Ada",
			"lastName": "Lovelace",
			"emailAddress": "ada@example.com",
			"licExpDate": "01/01/2030",
			"licenseApplicationStatus": null,
			"gradingHistory": [{"datePassed": "01/02/2024", "examiner": "Bo Channon", "grade": "9th Kyu", "gradeId": "legacy"}]
		}]
	}`)

	a, err := Unmarshal("acct-1", raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if a.ID != "acct-1" || !a.Approved || len(a.Students) != 1 {
		t.Fatalf("account=%+v, want acct-1 approved with one student", a)
	}
	s := a.Students[0]
	if s.ID != "" {
		t.Fatalf("student id=%q, want empty before backfill", s.ID)
	}
	if s.LicenseApplicationStatus != domain.LicenseApplicationNone {
		t.Fatalf("status=%q, want none", s.LicenseApplicationStatus)
	}
	if len(s.GradingHistory) != 1 || s.GradingHistory[0].Name != "9th Kyu" || s.GradingHistory[0].ID != "legacy" {
		t.Fatalf("history=%+v, want one 9th Kyu entry with its gradeId", s.GradingHistory)
	}

	// A rewrite keeps the legacy gradeId.
	b, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var generic struct {
		Students []struct {
			GradingHistory []map[string]any `json:"gradingHistory"`
		} `json:"students"`
	}
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got := generic.Students[0].GradingHistory[0]["gradeId"]; got != "legacy" {
		t.Fatalf("gradeId=%v after rewrite, want legacy", got)
	}
}

func TestUnmarshal_ApplicationStatus(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		raw  string
		want domain.LicenseApplicationStatus
	}{
		{`"pending"`, domain.LicenseApplicationPending},
		{`" Approved "`, domain.LicenseApplicationApproved},
		{`"REJECTED"`, domain.LicenseApplicationRejected},
		{`"on hold"`, domain.LicenseApplicationStatus("on hold")},
		{`null`, domain.LicenseApplicationNone},
	} {
		a, err := Unmarshal("acct-1", []byte(`{"students":[{"firstName":"Ada","licenseApplicationStatus":`+tc.raw+`}]}`))
		if err != nil {
			t.Fatalf("Unmarshal(%s): %v", tc.raw, err)
		}
		if got := a.Students[0].LicenseApplicationStatus; got != tc.want {
			t.Fatalf("status(%s)=%q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestMarshal_StatusNullWhenNone(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := domain.Account{
		ID:        "acct-1",
		Email:     "bo@example.com",
		CreatedAt: now,
		UpdatedAt: now,
		Students: []domain.Student{
			{ID: "s-1", FirstName: "Ada"},
			{ID: "s-2", FirstName: "Bob", LicenseApplicationStatus: domain.LicenseApplicationPending},
		},
	}
	b, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic struct {
		Students []map[string]any `json:"students"`
	}
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatalf("json: %v", err)
	}
	if v, ok := generic.Students[0]["licenseApplicationStatus"]; !ok || v != nil {
		t.Fatalf("status=%v (present=%v), want explicit null", v, ok)
	}
	if v := generic.Students[1]["licenseApplicationStatus"]; v != "pending" {
		t.Fatalf("status=%v, want pending", v)
	}

	back, err := Unmarshal(a.ID, b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Students[1].LicenseApplicationStatus != domain.LicenseApplicationPending || back.Students[0].ID != "s-1" {
		t.Fatalf("round trip=%+v", back.Students)
	}
}
