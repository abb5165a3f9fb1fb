package google

import (
	"context"
	"fmt"
	"strings"

	people "google.golang.org/api/people/v1"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// personFields lists the People API fields the adapter reads and writes.
const personFields = "names,emailAddresses,phoneNumbers,biographies"

// ContactsAdapter mirrors friends into Google Contacts.
type ContactsAdapter struct {
	newService func(ctx context.Context, token string) (*people.Service, error)
}

// NewContactsAdapter creates a People API adapter.
func NewContactsAdapter() *ContactsAdapter {
	return &ContactsAdapter{
		newService: func(ctx context.Context, token string) (*people.Service, error) {
			return people.NewService(ctx, tokenOption(token))
		},
	}
}

// Export creates or updates the Google Contacts counterpart of a friend.
// Updates fetch the current person first; the People API requires the
// latest etag on every write.
func (a *ContactsAdapter) Export(ctx context.Context, snap model.Snapshot, remoteID, token string) (remote.ExportResult, error) {
	if snap.Friend == nil {
		return remote.ExportResult{}, fmt.Errorf("google contacts adapter received a %s snapshot", snap.Type)
	}

	svc, err := a.newService(ctx, token)
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("creating people service: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	body := buildPerson(snap.Friend)

	if remoteID == "" {
		created, err := svc.People.CreateContact(body).PersonFields(personFields).Context(ctx).Do()
		if err != nil {
			return remote.ExportResult{}, fmt.Errorf("creating contact %q: %w", snap.Friend.Name, err)
		}
		return remote.ExportResult{RemoteID: created.ResourceName}, nil
	}

	existing, err := svc.People.Get(remoteID).PersonFields(personFields).Context(ctx).Do()
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("loading contact %q: %w", remoteID, err)
	}
	body.Etag = existing.Etag

	updated, err := svc.People.UpdateContact(remoteID, body).UpdatePersonFields(personFields).Context(ctx).Do()
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("updating contact %q: %w", snap.Friend.Name, err)
	}
	return remote.ExportResult{RemoteID: updated.ResourceName}, nil
}

// ImportPending lists the user's connections, flattened to one value per
// field.
func (a *ContactsAdapter) ImportPending(ctx context.Context, token string) ([]remote.Object, error) {
	svc, err := a.newService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("creating people service: %w", err)
	}

	var out []remote.Object
	err = svc.People.Connections.List("people/me").
		PersonFields(personFields).
		PageSize(100).
		Pages(ctx, func(page *people.ListConnectionsResponse) error {
			for _, p := range page.Connections {
				out = append(out, personObject(p))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("listing google contacts: %w", err)
	}
	return out, nil
}

// buildPerson converts a friend into its People API representation. The
// role rides in the biography field, matching how it is read back.
func buildPerson(f *model.Friend) *people.Person {
	given, family := splitName(f.Name)
	p := &people.Person{
		Names: []*people.Name{{GivenName: given, FamilyName: family}},
	}
	if f.Email != "" {
		p.EmailAddresses = []*people.EmailAddress{{Value: f.Email}}
	}
	if f.Phone != "" {
		p.PhoneNumbers = []*people.PhoneNumber{{Value: f.Phone}}
	}
	if f.Role != "" {
		p.Biographies = []*people.Biography{{Value: f.Role}}
	}
	return p
}

// splitName divides a display name into given and family parts on the
// first space.
func splitName(name string) (given, family string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// personObject flattens a person to one value per mapped field, keyed the
// way the conflict mappings expect.
func personObject(p *people.Person) remote.Object {
	obj := remote.Object{"resourceName": p.ResourceName}
	if len(p.Names) > 0 {
		obj["name"] = p.Names[0].DisplayName
		if obj["name"] == "" {
			obj["name"] = strings.TrimSpace(p.Names[0].GivenName + " " + p.Names[0].FamilyName)
		}
	}
	if len(p.EmailAddresses) > 0 {
		obj["email"] = p.EmailAddresses[0].Value
	}
	if len(p.PhoneNumbers) > 0 {
		obj["phone"] = p.PhoneNumbers[0].Value
	}
	if len(p.Biographies) > 0 {
		obj["role"] = p.Biographies[0].Value
	}
	return obj
}
