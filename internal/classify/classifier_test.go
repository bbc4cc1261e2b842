package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/schema"
)

func col(name string, typ schema.TypeCategory) *schema.Column {
	return &schema.Column{Name: name, Type: typ, Nullable: true}
}

func TestTokenize(t *testing.T) {
	tests := map[string][]string{
		"first_name":   {"first", "name"},
		"firstName":    {"first", "name"},
		"IPAddress":    {"ip", "address"},
		"address2":     {"address", "2"},
		"billing-email": {"billing", "email"},
		"HTTPStatus":   {"http", "status"},
		"id":           {"id"},
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Tokenize(in))
		})
	}
}

func TestClassify(t *testing.T) {
	c := New("en")
	tests := []struct {
		name       string
		typ        schema.TypeCategory
		want       Category
		confidence float64
	}{
		{"billing_email", schema.TypeText, EmailAddress, ConfidenceMultiToken},
		{"email", schema.TypeText, EmailAddress, ConfidenceToken},
		{"first_name", schema.TypeText, PersonGivenName, ConfidenceMultiToken},
		{"firstname", schema.TypeText, PersonGivenName, ConfidenceMultiToken},
		{"surname", schema.TypeText, PersonFamilyName, ConfidenceMultiToken},
		{"company_name", schema.TypeText, CompanyName, ConfidenceMultiToken},
		{"company_email", schema.TypeText, EmailAddress, ConfidenceToken},
		{"company_id", schema.TypeInteger, Identifier, ConfidenceToken},
		{"ip_address", schema.TypeNetwork, NetworkAddress, ConfidenceMultiToken},
		{"home_address", schema.TypeText, StreetAddress, ConfidenceMultiToken},
		{"phone", schema.TypeInteger, PhoneNumber, ConfidenceToken},
		{"zip_code", schema.TypeText, PostalCode, ConfidenceMultiToken},
		{"country_code", schema.TypeText, CountryCode, ConfidenceMultiToken},
		{"created_at", schema.TypeTemporal, Timestamp, ConfidenceMultiToken},
		{"date_of_birth", schema.TypeTemporal, BirthDate, ConfidenceMultiToken},
		{"unit_price", schema.TypeNumeric, MonetaryAmount, ConfidenceMultiToken},
		{"login_count", schema.TypeInteger, Quantity, ConfidenceToken},
		{"email_verified", schema.TypeBoolean, Boolean, ConfidenceToken},
		{"deleted", schema.TypeBoolean, Boolean, ConfidenceToken},
		{"deleted", schema.TypeTemporal, Timestamp, ConfidenceToken},
		{"product_name", schema.TypeText, Title, ConfidenceMultiToken},
		{"widget_name", schema.TypeText, Title, ConfidenceToken},
		{"metadata", schema.TypeJSON, JSONDocument, ConfidenceToken},
		{"weight", schema.TypeNumeric, MonetaryAmount, ConfidenceType},
		{"starts_on", schema.TypeTemporal, Timestamp, ConfidenceType},
		{"external_ref", schema.TypeUUID, Identifier, ConfidenceToken},
		{"mac", schema.TypeNetwork, MacAddress, ConfidenceToken},
		{"gateway", schema.TypeNetwork, NetworkAddress, ConfidenceType},
		{"tags", schema.TypeArray, ArrayValue, ConfidenceToken},
		{"flags", schema.TypeInteger, Integer, ConfidenceType},
		{"notes", schema.TypeText, FreeText, ConfidenceToken},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.typ.String(), func(t *testing.T) {
			tag := c.Classify(col(tt.name, tt.typ))
			assert.Equal(t, tt.want, tag.Category)
			assert.Equal(t, tt.confidence, tag.Confidence)
			assert.Equal(t, "en", tag.Locale)
			assert.Equal(t, NoBundle, tag.Bundle)
		})
	}
}

func TestClassifyDateFallback(t *testing.T) {
	tag := New("").Classify(&schema.Column{Name: "starts_on", Type: schema.TypeTemporal, SQLType: "date"})
	assert.Equal(t, Date, tag.Category)
	assert.Equal(t, "en", tag.Locale)
}

func TestClassifyEnumerationWinsOverName(t *testing.T) {
	tag := New("de").Classify(&schema.Column{Name: "email", Type: schema.TypeText, Values: []string{"a", "b"}})
	assert.Equal(t, Enumeration, tag.Category)
	assert.Equal(t, []string{"a", "b"}, tag.Values)
	assert.Equal(t, ConfidenceConstraint, tag.Confidence)
	assert.Equal(t, "de", tag.Locale)
}

func TestRuleTiesFollowDeclarationOrder(t *testing.T) {
	rules := []Rule{
		{Pattern: []string{"code"}, Category: SKU, Types: []schema.TypeCategory{schema.TypeText}},
		{Pattern: []string{"code"}, Category: Identifier, Types: []schema.TypeCategory{schema.TypeText}},
	}
	tag := NewWithRules(rules, "en").Classify(col("code", schema.TypeText))
	assert.Equal(t, SKU, tag.Category)

	tag = NewWithRules([]Rule{rules[1], rules[0]}, "en").Classify(col("code", schema.TypeText))
	assert.Equal(t, Identifier, tag.Category)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New("en")
	table := &schema.Table{Name: "users", Columns: []schema.Column{
		*col("name", schema.TypeText), *col("email", schema.TypeText), *col("created_at", schema.TypeTemporal),
	}}
	first := c.ClassifyTable(table)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.ClassifyTable(table))
	}
}

func TestResolveNames(t *testing.T) {
	c := New("en")
	tests := []struct {
		table    string
		siblings []string
		want     Category
	}{
		{"companies", nil, CompanyName},
		{"users", nil, PersonFullName},
		{"things", []string{"email"}, PersonFullName},
		{"products", []string{"price"}, Title},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			table := &schema.Table{Name: tt.table, Columns: []schema.Column{*col("name", schema.TypeText)}}
			for _, s := range tt.siblings {
				typ := schema.TypeText
				if s == "price" {
					typ = schema.TypeNumeric
				}
				table.Columns = append(table.Columns, *col(s, typ))
			}
			plan := c.ClassifyTable(table)
			assert.Equal(t, tt.want, plan.Tags[0].Category)
		})
	}
}

func TestPersonBundle(t *testing.T) {
	table := &schema.Table{Name: "person", Columns: []schema.Column{
		*col("given_name", schema.TypeText),
		*col("family_name", schema.TypeText),
		*col("email", schema.TypeText),
		*col("bio", schema.TypeText),
	}}
	plan := New("en").ClassifyTable(table)

	require.Len(t, plan.Bundles, 1)
	b := plan.Bundles[0]
	assert.Equal(t, PersonBundle, b.Kind)
	assert.Equal(t, []string{"given_name", "family_name", "email"}, b.Columns)
	assert.False(t, b.Inherits())
	assert.Equal(t, 0, plan.Tags[0].Bundle)
	assert.Equal(t, NoBundle, plan.Tags[3].Bundle)
	assert.False(t, plan.Organization)
}

func TestSinglePersonColumnFormsNoBundle(t *testing.T) {
	table := &schema.Table{Name: "newsletter", Columns: []schema.Column{*col("email", schema.TypeText)}}
	plan := New("en").ClassifyTable(table)
	assert.Empty(t, plan.Bundles)
}

func TestOrganizationBundle(t *testing.T) {
	table := &schema.Table{Name: "company", Columns: []schema.Column{
		*col("id", schema.TypeInteger),
		*col("name", schema.TypeText),
		*col("website", schema.TypeText),
		*col("email", schema.TypeText),
	}}
	plan := New("en").ClassifyTable(table)

	assert.True(t, plan.Organization)
	ob, ok := plan.BundleOf(OrganizationBundle)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "website", "email"}, ob.Columns)
	_, ok = plan.BundleOf(PersonBundle)
	assert.False(t, ok)
}

func TestOrganizationTableWithoutColumnsStillCarriesIdentity(t *testing.T) {
	table := &schema.Table{Name: "company", Columns: []schema.Column{{Name: "id", Type: schema.TypeInteger, PrimaryKey: true}}}
	plan := New("en").ClassifyTable(table)
	assert.True(t, plan.Organization)
	ob, ok := plan.BundleOf(OrganizationBundle)
	require.True(t, ok)
	assert.Empty(t, ob.Columns)
}

func TestInheritanceAcrossHardForeignKey(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{
		{Name: "company", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			{Name: "name", Type: schema.TypeText},
		}},
		{Name: "employee", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			{Name: "company_id", Type: schema.TypeInteger},
			{Name: "email", Type: schema.TypeText, Unique: true},
			{Name: "website", Type: schema.TypeText, Nullable: true},
		}, ForeignKeys: []schema.ForeignKey{{Columns: []string{"company_id"}, RefTable: "company", RefColumns: []string{"id"}}}},
		{Name: "contractor", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			{Name: "company_id", Type: schema.TypeInteger, Nullable: true},
			{Name: "email", Type: schema.TypeText},
		}, ForeignKeys: []schema.ForeignKey{{Columns: []string{"company_id"}, RefTable: "company", RefColumns: []string{"id"}}}},
	}}
	plans := New("en").ClassifySchema(schema.BuildGraph(s))

	emp := plans[1]
	pb, ok := emp.BundleOf(PersonBundle)
	require.True(t, ok)
	assert.Equal(t, []string{"email"}, pb.Columns)
	assert.Equal(t, 0, pb.InheritFK)
	assert.Equal(t, "company", pb.InheritFrom)

	ob, ok := emp.BundleOf(OrganizationBundle)
	require.True(t, ok)
	assert.Equal(t, []string{"website"}, ob.Columns)
	assert.True(t, ob.Inherits())

	tag, _ := emp.Tag("company_id")
	assert.True(t, tag.ForeignKey)
	assert.Equal(t, NoBundle, tag.Bundle)

	// a nullable key is no inheritance path
	assert.Empty(t, plans[2].Bundles)
}
