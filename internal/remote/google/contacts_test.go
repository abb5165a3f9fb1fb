package google

import (
	"testing"

	people "google.golang.org/api/people/v1"

	"github.com/orbitapp/orbitsync/internal/model"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name       string
		wantGiven  string
		wantFamily string
	}{
		{"Sam Rivera", "Sam", "Rivera"},
		{"Sam", "Sam", ""},
		{"  Sam   Rivera Jr  ", "Sam", "Rivera Jr"},
		{"", "", ""},
	}
	for _, tt := range tests {
		given, family := splitName(tt.name)
		if given != tt.wantGiven || family != tt.wantFamily {
			t.Errorf("splitName(%q) = %q, %q, want %q, %q", tt.name, given, family, tt.wantGiven, tt.wantFamily)
		}
	}
}

func TestBuildPerson(t *testing.T) {
	p := buildPerson(&model.Friend{
		Name:  "Sam Rivera",
		Email: "sam@example.com",
		Phone: "+15550100",
		Role:  "Climbing partner",
	})

	if len(p.Names) != 1 || p.Names[0].GivenName != "Sam" || p.Names[0].FamilyName != "Rivera" {
		t.Errorf("Names = %+v", p.Names)
	}
	if len(p.EmailAddresses) != 1 || p.EmailAddresses[0].Value != "sam@example.com" {
		t.Errorf("EmailAddresses = %+v", p.EmailAddresses)
	}
	if len(p.PhoneNumbers) != 1 || p.PhoneNumbers[0].Value != "+15550100" {
		t.Errorf("PhoneNumbers = %+v", p.PhoneNumbers)
	}
	if len(p.Biographies) != 1 || p.Biographies[0].Value != "Climbing partner" {
		t.Errorf("Biographies = %+v", p.Biographies)
	}
}

func TestBuildPersonOmitsEmptyFields(t *testing.T) {
	p := buildPerson(&model.Friend{Name: "Sam"})

	if len(p.EmailAddresses) != 0 || len(p.PhoneNumbers) != 0 || len(p.Biographies) != 0 {
		t.Errorf("empty fields should be omitted: %+v", p)
	}
}

func TestPersonObject(t *testing.T) {
	obj := personObject(&people.Person{
		ResourceName: "people/c123",
		Names:        []*people.Name{{DisplayName: "Sam Rivera"}},
		EmailAddresses: []*people.EmailAddress{
			{Value: "sam@example.com"},
			{Value: "work@example.com"},
		},
		Biographies: []*people.Biography{{Value: "Climbing partner"}},
	})

	if obj.ID() != "people/c123" {
		t.Errorf("ID() = %q, want the resource name", obj.ID())
	}
	if obj["name"] != "Sam Rivera" {
		t.Errorf("name = %v", obj["name"])
	}
	if obj["email"] != "sam@example.com" {
		t.Errorf("email = %v, want the primary address", obj["email"])
	}
	if obj["role"] != "Climbing partner" {
		t.Errorf("role = %v", obj["role"])
	}
	if _, ok := obj["phone"]; ok {
		t.Error("missing phone should be omitted")
	}
}

func TestPersonObjectAssemblesNameFromParts(t *testing.T) {
	obj := personObject(&people.Person{
		ResourceName: "people/c456",
		Names:        []*people.Name{{GivenName: "Sam", FamilyName: "Rivera"}},
	})

	if obj["name"] != "Sam Rivera" {
		t.Errorf("name = %v, want assembled from given and family", obj["name"])
	}
}
