// Package classify assigns every column a semantic category from an ordered
// rule table and groups columns that describe one entity into coherence
// bundles. Classification is a pure function of the schema and the rule
// table, so identical input always yields identical tags.
package classify

// Category is the semantic meaning of a column.
type Category int

const (
	Unknown Category = iota
	PersonGivenName
	PersonFamilyName
	PersonFullName
	Username
	EmailAddress
	PhoneNumber
	CompanyName
	Website
	DomainName
	StreetAddress
	City
	PostalCode
	Country
	CountryCode
	CurrencyCode
	MonetaryAmount
	Quantity
	Percentage
	Identifier
	Slug
	SKU
	TrackingNumber
	PasswordHash
	Timestamp
	Date
	BirthDate
	NetworkAddress
	MacAddress
	URL
	Title
	FreeText
	Boolean
	JSONDocument
	ArrayValue
	Enumeration
	Integer
)

var categoryNames = [...]string{
	Unknown:          "Unknown",
	PersonGivenName:  "PersonGivenName",
	PersonFamilyName: "PersonFamilyName",
	PersonFullName:   "PersonFullName",
	Username:         "Username",
	EmailAddress:     "EmailAddress",
	PhoneNumber:      "PhoneNumber",
	CompanyName:      "CompanyName",
	Website:          "Website",
	DomainName:       "DomainName",
	StreetAddress:    "StreetAddress",
	City:             "City",
	PostalCode:       "PostalCode",
	Country:          "Country",
	CountryCode:      "CountryCode",
	CurrencyCode:     "CurrencyCode",
	MonetaryAmount:   "MonetaryAmount",
	Quantity:         "Quantity",
	Percentage:       "Percentage",
	Identifier:       "Identifier",
	Slug:             "Slug",
	SKU:              "SKU",
	TrackingNumber:   "TrackingNumber",
	PasswordHash:     "PasswordHash",
	Timestamp:        "Timestamp",
	Date:             "Date",
	BirthDate:        "BirthDate",
	NetworkAddress:   "NetworkAddress",
	MacAddress:       "MacAddress",
	URL:              "URL",
	Title:            "Title",
	FreeText:         "FreeText",
	Boolean:          "Boolean",
	JSONDocument:     "JSONDocument",
	ArrayValue:       "ArrayValue",
	Enumeration:      "Enumeration",
	Integer:          "Integer",
}

func (c Category) String() string {
	if int(c) >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// Confidence levels by how a tag was obtained.
const (
	ConfidenceConstraint = 1.0
	ConfidenceMultiToken = 0.95
	ConfidenceToken      = 0.8
	ConfidenceType       = 0.5
	ConfidenceUnknown    = 0.1
)

// NoBundle marks a tag that belongs to no coherence bundle.
const NoBundle = -1

// Tag is the classification of one column.
type Tag struct {
	Column     string
	Category   Category
	Confidence float64
	// Bundle is the index into TablePlan.Bundles, or NoBundle.
	Bundle int
	Locale string
	// Values is the allowed-value set of an Enumeration.
	Values []string
	// ForeignKey marks a column filled from a parent table's keys; it never
	// joins a bundle.
	ForeignKey bool

	rule int // index of the matching rule, -1 for fallbacks
}

// BundleKind is the entity a bundle's identity describes.
type BundleKind int

const (
	PersonBundle BundleKind = iota
	OrganizationBundle
)

func (k BundleKind) String() string {
	if k == OrganizationBundle {
		return "organization"
	}
	return "person"
}

// NoInherit marks a bundle that builds a fresh identity for every row.
const NoInherit = -1

// Bundle is a set of columns of one table filled from one identity per row.
type Bundle struct {
	ID      int
	Kind    BundleKind
	Columns []string
	// InheritFK indexes the table's ForeignKeys; the row's parent behind
	// that key supplies the organization identity. NoInherit otherwise.
	InheritFK   int
	InheritFrom string
}

// Inherits reports whether the bundle takes its organization from a parent row.
func (b *Bundle) Inherits() bool {
	return b.InheritFK != NoInherit
}

// TablePlan is the classification of one table.
type TablePlan struct {
	Table string
	// Tags is indexed like the table's columns.
	Tags    []Tag
	Bundles []Bundle
	// Organization marks a table whose rows are organizations. Such rows
	// carry an organization identity even when no column shows it, so
	// children can inherit it.
	Organization bool
}

// Tag returns the tag of a column by name.
func (p *TablePlan) Tag(column string) (*Tag, bool) {
	for i := range p.Tags {
		if p.Tags[i].Column == column {
			return &p.Tags[i], true
		}
	}
	return nil, false
}

// BundleOf returns the bundle of a given kind, if the table has one.
func (p *TablePlan) BundleOf(kind BundleKind) (*Bundle, bool) {
	for i := range p.Bundles {
		if p.Bundles[i].Kind == kind {
			return &p.Bundles[i], true
		}
	}
	return nil, false
}
