package classify

import (
	"github.com/Rana718/synthdb/internal/schema"
)

var personCategories = map[Category]bool{
	PersonGivenName:  true,
	PersonFamilyName: true,
	PersonFullName:   true,
	Username:         true,
	EmailAddress:     true,
}

var organizationCategories = map[Category]bool{
	CompanyName: true,
	Website:     true,
	DomainName:  true,
}

// formBundles groups co-occurring person columns into one person bundle
// (at least two distinct person categories) and, in organization tables,
// the company columns into one organization bundle.
func formBundles(plan *TablePlan) {
	var personCols []int
	distinct := make(map[Category]bool)
	for i, t := range plan.Tags {
		if personCategories[t.Category] && !t.ForeignKey {
			personCols = append(personCols, i)
			distinct[t.Category] = true
		}
	}
	hasPerson := len(distinct) >= 2
	if hasPerson {
		addBundle(plan, PersonBundle, personCols, NoInherit, "")
	}

	if !plan.Organization {
		return
	}
	var orgCols []int
	for i, t := range plan.Tags {
		if t.Bundle != NoBundle || t.ForeignKey {
			continue
		}
		if organizationCategories[t.Category] || (!hasPerson && (t.Category == EmailAddress || t.Category == PhoneNumber)) {
			orgCols = append(orgCols, i)
		}
	}
	addBundle(plan, OrganizationBundle, orgCols, NoInherit, "")
}

// linkInheritance connects a table to the organization identity of the first
// organization parent reached through a NOT NULL foreign key. The person
// bundle takes its e-mail domain from it; loose e-mail columns become a
// person bundle of their own; loose website and domain columns become an
// inherited organization bundle.
func linkInheritance(g *schema.Graph, node int, plans []TablePlan) {
	plan := &plans[node]
	if plan.Organization {
		return
	}
	for _, e := range g.Out(node) {
		if !e.Hard || e.SelfLoop() || !plans[e.Parent].Organization {
			continue
		}
		parent := g.Name(e.Parent)

		if pb, ok := plan.BundleOf(PersonBundle); ok {
			pb.InheritFK, pb.InheritFrom = e.FK, parent
		} else if cols := loose(plan, EmailAddress); len(cols) > 0 {
			addBundle(plan, PersonBundle, cols, e.FK, parent)
		}
		if cols := loose(plan, Website, DomainName); len(cols) > 0 {
			addBundle(plan, OrganizationBundle, cols, e.FK, parent)
		}
		return
	}
}

func loose(plan *TablePlan, cats ...Category) []int {
	var cols []int
	for i, t := range plan.Tags {
		if t.Bundle != NoBundle || t.ForeignKey {
			continue
		}
		for _, c := range cats {
			if t.Category == c {
				cols = append(cols, i)
				break
			}
		}
	}
	return cols
}

func addBundle(plan *TablePlan, kind BundleKind, cols []int, inheritFK int, from string) {
	b := Bundle{ID: len(plan.Bundles), Kind: kind, InheritFK: inheritFK, InheritFrom: from}
	for _, i := range cols {
		plan.Tags[i].Bundle = b.ID
		b.Columns = append(b.Columns, plan.Tags[i].Column)
	}
	plan.Bundles = append(plan.Bundles, b)
}
