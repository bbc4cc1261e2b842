// Package coherence builds the synthetic identities coherence bundles are
// filled from. An identity lives for one row: it is built, its derived
// values are written into the bundle's columns, and it is dropped, except
// that organization rows hand theirs to the orchestrator so child rows can
// inherit it.
package coherence

import (
	"fmt"
	"math/rand"

	"github.com/Rana718/synthdb/internal/classify"
)

// Resolver builds identities from one locale's pools.
type Resolver struct {
	pools *Pools
}

// NewResolver returns a resolver for a locale tag.
func NewResolver(locale string) *Resolver {
	return &Resolver{pools: PoolsFor(locale)}
}

// Pools exposes the resolver's word lists to independent generators.
func (r *Resolver) Pools() *Pools {
	return r.pools
}

// NewOrganization builds a fresh organization identity.
func (r *Resolver) NewOrganization(rng *rand.Rand) Organization {
	p := r.pools
	word := pick(rng, p.CompanyWords)
	name := word
	if rng.Intn(2) == 0 {
		name += " " + pick(rng, p.CompanyForms)
	}
	domain := Normalize(word) + "." + p.TLD
	org := Organization{
		Name:       name,
		Phone:      r.Phone(rng),
		base:       name,
		baseDomain: domain,
	}
	org.SetDomain(domain)
	return org
}

// NewPerson builds a fresh person. With an organization the person's e-mail
// lives under its domain.
func (r *Resolver) NewPerson(rng *rand.Rand, org *Organization) Person {
	p := r.pools
	domain := pick(rng, p.MailProviders)
	if org != nil {
		domain = org.Domain
	}
	return newPerson(pick(rng, p.GivenNames), pick(rng, p.FamilyNames), domain, rng.Intn(90)+10)
}

// Phone formats a phone number with the locale's country prefix.
func (r *Resolver) Phone(rng *rand.Rand) string {
	return fmt.Sprintf("%s %03d %03d %04d", r.pools.PhonePrefix, rng.Intn(900)+100, rng.Intn(1000), rng.Intn(10000))
}

// Identity is the set of identities of one row.
type Identity struct {
	Person *Person
	// Organization is the row's own organization, for organization tables.
	Organization *Organization
	// Inherited is the organization of the parent row the table links to.
	Inherited *Organization
}

// Resolve builds the identities a table's plan needs for one row. parent
// returns the organization of the parent row behind a foreign key, or nil.
func (r *Resolver) Resolve(rng *rand.Rand, plan *classify.TablePlan, parent func(fk int) *Organization) Identity {
	var id Identity
	if plan.Organization {
		org := r.NewOrganization(rng)
		id.Organization = &org
	}
	for i := range plan.Bundles {
		b := &plan.Bundles[i]
		if b.Inherits() && id.Inherited == nil && parent != nil {
			id.Inherited = parent(b.InheritFK)
		}
	}
	if pb, ok := plan.BundleOf(classify.PersonBundle); ok {
		org := id.Organization
		if pb.Inherits() {
			org = id.Inherited
		}
		person := r.NewPerson(rng, org)
		id.Person = &person
	}
	return id
}

// Value derives a bundle member's value from the row's identities.
func (id *Identity) Value(b *classify.Bundle, cat classify.Category) (string, bool) {
	switch b.Kind {
	case classify.PersonBundle:
		if id.Person != nil {
			return id.Person.Value(cat)
		}
	case classify.OrganizationBundle:
		org := id.Organization
		if b.Inherits() {
			org = id.Inherited
		}
		if org != nil {
			return org.Value(cat)
		}
	}
	return "", false
}

// Disambiguate makes the identity behind a bundle distinct using counter n.
func (id *Identity) Disambiguate(b *classify.Bundle, n int) {
	switch {
	case b.Kind == classify.PersonBundle && id.Person != nil:
		id.Person.Disambiguate(n)
	case b.Kind == classify.OrganizationBundle && !b.Inherits() && id.Organization != nil:
		id.Organization.Disambiguate(n)
	}
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.Intn(len(list))]
}
