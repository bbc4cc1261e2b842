package coherence

import (
	"strconv"
	"strings"

	"github.com/Rana718/synthdb/internal/classify"
)

// Organization is the identity behind one organization row.
type Organization struct {
	Name    string
	Domain  string
	Website string
	Email   string
	Phone   string
	// base and baseDomain are the undisambiguated name and domain.
	base       string
	baseDomain string
}

// Value returns the organization's value for a bundle member category.
func (o *Organization) Value(cat classify.Category) (string, bool) {
	switch cat {
	case classify.CompanyName:
		return o.Name, true
	case classify.DomainName:
		return o.Domain, true
	case classify.Website, classify.URL:
		return o.Website, true
	case classify.EmailAddress:
		return o.Email, true
	case classify.PhoneNumber:
		return o.Phone, true
	}
	return "", false
}

// Person is the identity behind one person row. Local, Username and Email
// are derived from Given and Family; Domain is the employer's when the row
// belongs to an organization, a mail provider otherwise.
type Person struct {
	Given    string
	Family   string
	Full     string
	Local    string
	Username string
	Email    string
	Domain   string
	tag      int
}

// Value returns the person's value for a bundle member category.
func (p *Person) Value(cat classify.Category) (string, bool) {
	switch cat {
	case classify.PersonGivenName:
		return p.Given, true
	case classify.PersonFamilyName:
		return p.Family, true
	case classify.PersonFullName:
		return p.Full, true
	case classify.Username:
		return p.Username, true
	case classify.EmailAddress:
		return p.Email, true
	}
	return "", false
}

// LocalPart derives the e-mail local part from a given and family name.
func LocalPart(given, family string) string {
	g, f := Normalize(given), Normalize(family)
	switch {
	case g == "":
		return f
	case f == "":
		return g
	}
	return g + "." + f
}

func newPerson(given, family, domain string, tag int) Person {
	p := Person{
		Given:  given,
		Family: family,
		Full:   given + " " + family,
		Local:  LocalPart(given, family),
		Domain: domain,
		tag:    tag,
	}
	p.derive()
	return p
}

func (p *Person) derive() {
	p.Username = strings.ReplaceAll(p.Local, ".", "_") + strconv.Itoa(p.tag)
	p.Email = p.Local + "@" + p.Domain
}

// Disambiguate appends n to the derived handles so that they stay unique
// while still starting with the name-derived local part.
func (p *Person) Disambiguate(n int) {
	p.Local = LocalPart(p.Given, p.Family) + strconv.Itoa(n)
	p.derive()
}

// Disambiguate gives the organization the n-th variant of its original
// name and domain. Repeated calls replace the suffix rather than stack it.
func (o *Organization) Disambiguate(n int) {
	if o.base == "" {
		o.base, o.baseDomain = o.Name, o.Domain
	}
	suffix := strconv.Itoa(n)
	host, tld, _ := strings.Cut(o.baseDomain, ".")
	o.Name = o.base + " " + suffix
	o.SetDomain(host + suffix + "." + tld)
}

// SetDomain replaces the domain and the handles derived from it.
func (o *Organization) SetDomain(domain string) {
	o.Domain = domain
	o.Website = "https://www." + domain
	o.Email = "info@" + domain
}
