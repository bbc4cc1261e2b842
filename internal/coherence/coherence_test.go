package coherence

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/classify"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Jürgen":          "jurgen",
		"Müller-Schäfer":  "mullerschafer",
		"Élodie":          "elodie",
		"Íñigo":           "inigo",
		"Straße":          "strasse",
		"O'Brien":         "obrien",
		"Pied Piper":      "piedpiper",
		"Bjørn Ærø 2":     "bjornaero2",
		"":                "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Normalize(in))
		})
	}
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "jose.garcia", LocalPart("José", "García"))
	assert.Equal(t, "garcia", LocalPart("", "García"))
	assert.Equal(t, "jose", LocalPart("José", "!!"))
}

func TestPoolsFor(t *testing.T) {
	assert.Equal(t, "de", PoolsFor("de").Locale)
	assert.Equal(t, "de", PoolsFor("de-AT").Locale)
	assert.Equal(t, "fr", PoolsFor("fr-CA").Locale)
	assert.Equal(t, "en", PoolsFor("ja").Locale)
	assert.Equal(t, "en", PoolsFor("not a tag!").Locale)
	for _, l := range Locales() {
		p := PoolsFor(l)
		assert.NotEmpty(t, p.GivenNames, l)
		assert.NotEmpty(t, p.FamilyNames, l)
		assert.NotEmpty(t, p.MailProviders, l)
	}
}

func TestPersonDerivation(t *testing.T) {
	r := NewResolver("de")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		p := r.NewPerson(rng, nil)
		local := LocalPart(p.Given, p.Family)
		assert.Equal(t, local+"@"+p.Domain, p.Email)
		assert.Equal(t, p.Given+" "+p.Family, p.Full)
		assert.True(t, strings.HasPrefix(p.Username, strings.ReplaceAll(local, ".", "_")), p.Username)
		assert.Contains(t, r.Pools().MailProviders, p.Domain)
	}
}

func TestPersonUnderOrganization(t *testing.T) {
	r := NewResolver("en")
	rng := rand.New(rand.NewSource(1))
	org := r.NewOrganization(rng)
	assert.Equal(t, "https://www."+org.Domain, org.Website)
	assert.Equal(t, "info@"+org.Domain, org.Email)
	assert.True(t, strings.HasSuffix(org.Domain, ".com"))

	p := r.NewPerson(rng, &org)
	assert.True(t, strings.HasSuffix(p.Email, "@"+org.Domain))
}

func TestDisambiguate(t *testing.T) {
	p := newPerson("Ana", "Ruiz", "gmail.com", 42)
	assert.Equal(t, "ana.ruiz@gmail.com", p.Email)
	assert.Equal(t, "ana_ruiz42", p.Username)

	p.Disambiguate(3)
	assert.Equal(t, "ana.ruiz3@gmail.com", p.Email)
	assert.Equal(t, "ana_ruiz342", p.Username)

	o := Organization{Name: "Acme", Domain: "acme.com"}
	o.Disambiguate(2)
	assert.Equal(t, "acme2.com", o.Domain)
	assert.Equal(t, "https://www.acme2.com", o.Website)
	assert.Equal(t, "info@acme2.com", o.Email)
	assert.Equal(t, "Acme 2", o.Name)

	o.Disambiguate(7)
	assert.Equal(t, "Acme 7", o.Name, "suffixes replace each other")
	assert.Equal(t, "acme7.com", o.Domain)
	assert.Equal(t, "info@acme7.com", o.Email)

	o.SetDomain("acme.io")
	assert.Equal(t, "https://www.acme.io", o.Website)
	assert.Equal(t, "Acme 7", o.Name)
}

func TestResolve(t *testing.T) {
	plan := &classify.TablePlan{
		Table: "employee",
		Bundles: []classify.Bundle{
			{ID: 0, Kind: classify.PersonBundle, Columns: []string{"email"}, InheritFK: 0, InheritFrom: "company"},
			{ID: 1, Kind: classify.OrganizationBundle, Columns: []string{"website"}, InheritFK: 0, InheritFrom: "company"},
		},
	}
	parentOrg := &Organization{Name: "Globex", Domain: "globex.com", Website: "https://www.globex.com"}
	var asked []int
	parent := func(fk int) *Organization {
		asked = append(asked, fk)
		return parentOrg
	}

	r := NewResolver("en")
	id := r.Resolve(rand.New(rand.NewSource(3)), plan, parent)
	require.NotNil(t, id.Person)
	assert.Nil(t, id.Organization)
	assert.Same(t, parentOrg, id.Inherited)
	assert.Equal(t, []int{0}, asked)

	email, ok := id.Value(&plan.Bundles[0], classify.EmailAddress)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(email, "@globex.com"))

	site, ok := id.Value(&plan.Bundles[1], classify.Website)
	require.True(t, ok)
	assert.Equal(t, "https://www.globex.com", site)

	_, ok = id.Value(&plan.Bundles[0], classify.City)
	assert.False(t, ok)

	// inherited identities are never changed by a child's disambiguation
	id.Disambiguate(&plan.Bundles[1], 5)
	assert.Equal(t, "globex.com", parentOrg.Domain)
}

func TestResolveOrganizationTable(t *testing.T) {
	plan := &classify.TablePlan{
		Table:        "company",
		Organization: true,
		Bundles: []classify.Bundle{
			{ID: 0, Kind: classify.PersonBundle, Columns: []string{"contact_name", "contact_email"}, InheritFK: classify.NoInherit},
			{ID: 1, Kind: classify.OrganizationBundle, Columns: []string{"name"}, InheritFK: classify.NoInherit},
		},
	}
	id := NewResolver("fr").Resolve(rand.New(rand.NewSource(9)), plan, nil)
	require.NotNil(t, id.Organization)
	require.NotNil(t, id.Person)
	assert.Equal(t, id.Organization.Domain, id.Person.Domain)
	assert.True(t, strings.HasSuffix(id.Organization.Domain, ".fr"))
}
