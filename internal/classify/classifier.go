package classify

import (
	"github.com/Rana718/synthdb/internal/schema"
)

// Classifier evaluates a rule table against columns.
type Classifier struct {
	rules  []Rule
	locale string
}

// New returns a classifier over the default rule table.
func New(locale string) *Classifier {
	return NewWithRules(DefaultRules(), locale)
}

// NewWithRules returns a classifier over a custom rule table.
func NewWithRules(rules []Rule, locale string) *Classifier {
	if locale == "" {
		locale = "en"
	}
	return &Classifier{rules: rules, locale: locale}
}

// Classify tags one column without looking at its siblings. Columns with a
// finite allowed-value set are enumerations whatever their name.
func (c *Classifier) Classify(col *schema.Column) Tag {
	tag := Tag{Column: col.Name, Bundle: NoBundle, Locale: c.locale, rule: -1}

	if col.Bounded() {
		tag.Category = Enumeration
		tag.Confidence = ConfidenceConstraint
		tag.Values = append([]string(nil), col.Values...)
		return tag
	}

	tokens := Tokenize(col.Name)
	best, bestPriority := -1, 0
	for i, r := range c.rules {
		if r.Priority() <= bestPriority || !r.accepts(col.Type) || !r.matches(tokens) {
			continue
		}
		best, bestPriority = i, r.Priority()
	}

	if best >= 0 {
		tag.Category = c.rules[best].Category
		tag.rule = best
		tag.Confidence = ConfidenceToken
		if bestPriority > 1 {
			tag.Confidence = ConfidenceMultiToken
		}
		return tag
	}

	tag.Category = fallback(col)
	tag.Confidence = ConfidenceType
	if tag.Category == Unknown {
		tag.Confidence = ConfidenceUnknown
	}
	return tag
}

// ClassifyTable tags every column of a table and forms its bundles.
// Inheritance across foreign keys needs the other tables and is added by
// ClassifySchema.
func (c *Classifier) ClassifyTable(t *schema.Table) TablePlan {
	plan := TablePlan{Table: t.Name, Tags: make([]Tag, len(t.Columns))}
	for i := range t.Columns {
		plan.Tags[i] = c.Classify(&t.Columns[i])
		_, _, plan.Tags[i].ForeignKey = t.ForeignKeyFor(t.Columns[i].Name)
	}
	c.resolveNames(t, &plan)

	plan.Organization = isOrganizationTable(t.Name) || hasCategory(plan.Tags, CompanyName)
	formBundles(&plan)
	return plan
}

// ClassifySchema classifies every table and links bundles to organization
// identities of parents reached through NOT NULL foreign keys.
func (c *Classifier) ClassifySchema(g *schema.Graph) []TablePlan {
	plans := make([]TablePlan, g.Len())
	for i := range plans {
		plans[i] = c.ClassifyTable(g.Table(i))
	}
	for i := range plans {
		linkInheritance(g, i, plans)
	}
	return plans
}

// resolveNames settles columns called just "name": a company name in an
// organization table, a person's name where siblings describe a person, a
// title anywhere else.
func (c *Classifier) resolveNames(t *schema.Table, plan *TablePlan) {
	for i := range plan.Tags {
		tag := &plan.Tags[i]
		if tag.rule < 0 || !c.rules[tag.rule].Exact {
			continue
		}
		switch {
		case isOrganizationTable(t.Name):
			tag.Category = CompanyName
		case isPersonTable(t.Name) || personSiblings(plan.Tags, i) > 0:
			tag.Category = PersonFullName
		default:
			tag.Category = Title
		}
	}
}

var organizationWords = map[string]bool{
	"company": true, "companies": true, "organization": true, "organizations": true,
	"organisation": true, "organisations": true, "org": true, "orgs": true,
	"vendor": true, "vendors": true, "supplier": true, "suppliers": true,
	"employer": true, "employers": true, "business": true, "businesses": true,
	"firm": true, "firms": true, "tenant": true, "tenants": true,
	"merchant": true, "merchants": true, "manufacturer": true, "manufacturers": true,
}

var personWords = map[string]bool{
	"user": true, "users": true, "person": true, "people": true, "persons": true,
	"customer": true, "customers": true, "employee": true, "employees": true,
	"author": true, "authors": true, "member": true, "members": true,
	"contact": true, "contacts": true, "staff": true, "student": true, "students": true,
	"patient": true, "patients": true, "account": true, "accounts": true, "profile": true, "profiles": true,
}

// isOrganizationTable reports whether a table name describes organizations.
// Only the last token counts: company_users is about users.
func isOrganizationTable(name string) bool {
	tokens := Tokenize(name)
	return len(tokens) > 0 && organizationWords[tokens[len(tokens)-1]]
}

func isPersonTable(name string) bool {
	tokens := Tokenize(name)
	return len(tokens) > 0 && personWords[tokens[len(tokens)-1]]
}

func hasCategory(tags []Tag, cat Category) bool {
	for _, t := range tags {
		if t.Category == cat {
			return true
		}
	}
	return false
}

func personSiblings(tags []Tag, skip int) int {
	n := 0
	for i, t := range tags {
		if i != skip && personCategories[t.Category] {
			n++
		}
	}
	return n
}
