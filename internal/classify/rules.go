package classify

import (
	"strings"
	"unicode"

	"github.com/Rana718/synthdb/internal/schema"
)

// Rule maps a name pattern to a category. Pattern holds lower-case tokens
// that must appear contiguously in the tokenized column name; a pattern of
// several tokens also matches their concatenation as one token
// ("first name" matches both first_name and firstname).
type Rule struct {
	Pattern  []string
	Category Category
	// Types restricts the rule to columns of these type categories.
	Types []schema.TypeCategory
	// Exact requires the pattern to cover the whole column name.
	Exact bool
}

// Priority ranks rules: more tokens win, ties go to declaration order.
func (r Rule) Priority() int {
	return len(r.Pattern)
}

func (r Rule) accepts(t schema.TypeCategory) bool {
	for _, a := range r.Types {
		if a == t {
			return true
		}
	}
	return false
}

func (r Rule) matches(tokens []string) bool {
	if r.Exact {
		if len(tokens) == len(r.Pattern) && containsRun(tokens, r.Pattern) {
			return true
		}
		return len(tokens) == 1 && len(r.Pattern) > 1 && tokens[0] == strings.Join(r.Pattern, "")
	}
	if containsRun(tokens, r.Pattern) {
		return true
	}
	if len(r.Pattern) > 1 {
		joined := strings.Join(r.Pattern, "")
		for _, tok := range tokens {
			if tok == joined {
				return true
			}
		}
	}
	return false
}

func containsRun(tokens, pattern []string) bool {
	if len(pattern) == 0 || len(pattern) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(pattern) <= len(tokens); i++ {
		for j, p := range pattern {
			if tokens[i+j] != p {
				continue outer
			}
		}
		return true
	}
	return false
}

// Tokenize splits an identifier on underscores, dashes, spaces, dots,
// camelCase boundaries and letter/digit boundaries, lower-casing the parts.
func Tokenize(name string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
			continue
		case len(cur) > 0:
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				// "IPAddress" -> ip, address
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return tokens
}

func words(s string) []string { return strings.Fields(s) }

var (
	text      = []schema.TypeCategory{schema.TypeText}
	textInt   = []schema.TypeCategory{schema.TypeText, schema.TypeInteger}
	textUUID  = []schema.TypeCategory{schema.TypeText, schema.TypeUUID, schema.TypeInteger}
	number    = []schema.TypeCategory{schema.TypeNumeric, schema.TypeInteger}
	temporal  = []schema.TypeCategory{schema.TypeTemporal, schema.TypeText}
	network   = []schema.TypeCategory{schema.TypeNetwork, schema.TypeText}
	boolean   = []schema.TypeCategory{schema.TypeBoolean}
	document  = []schema.TypeCategory{schema.TypeJSON}
	arrayType = []schema.TypeCategory{schema.TypeArray}
)

func rules(category Category, types []schema.TypeCategory, patterns ...string) []Rule {
	out := make([]Rule, len(patterns))
	for i, p := range patterns {
		out[i] = Rule{Pattern: words(p), Category: category, Types: types}
	}
	return out
}

// DefaultRules is the built-in rule table. Order matters only between rules
// of equal priority.
func DefaultRules() []Rule {
	var r []Rule
	add := func(rs ...[]Rule) {
		for _, x := range rs {
			r = append(r, x...)
		}
	}

	// multi-token rules
	add(
		rules(EmailAddress, text, "email address", "billing email", "contact email", "work email"),
		rules(PersonGivenName, text, "first name", "given name", "fore name"),
		rules(PersonFamilyName, text, "last name", "family name", "sur name"),
		rules(PersonFullName, text, "full name", "display name", "contact name", "customer name",
			"author name", "person name", "owner name", "recipient name", "employee name", "member name"),
		rules(Username, text, "user name", "login name", "screen name", "nick name"),
		rules(CompanyName, text, "company name", "organization name", "organisation name", "org name",
			"business name", "employer name", "vendor name", "supplier name", "legal name", "brand name"),
		rules(City, text, "city name", "town name"),
		rules(Country, text, "country name"),
		rules(StreetAddress, text, "street address", "address line", "shipping address", "billing address",
			"mailing address", "street name", "home address"),
		rules(Title, text, "product name", "item name", "category name", "project name", "team name",
			"file name", "display title", "job title"),
		rules(PhoneNumber, textInt, "phone number", "mobile number", "cell phone", "fax number",
			"contact phone", "tel number"),
		rules(Website, text, "home page", "web site", "website url", "company url", "homepage url"),
		rules(DomainName, text, "domain name", "host name"),
		rules(NetworkAddress, network, "ip address", "ip addr", "remote addr", "client ip", "remote ip"),
		rules(MacAddress, network, "mac address", "mac addr"),
		rules(PostalCode, text, "zip code", "postal code", "post code"),
		rules(CountryCode, text, "country code", "country iso"),
		rules(CurrencyCode, text, "currency code"),
		rules(BirthDate, temporal, "birth date", "date of birth", "birth day"),
		rules(Timestamp, temporal, "created at", "updated at", "deleted at", "modified at", "last login",
			"created on", "updated on", "last seen"),
		rules(MonetaryAmount, number, "unit price", "total amount", "total price", "list price", "grand total"),
		rules(TrackingNumber, textInt, "tracking number", "tracking code", "tracking id"),
		rules(PasswordHash, text, "password hash", "password digest", "encrypted password"),
		rules(SKU, text, "product code", "item code", "part number"),
	)

	// single-token rules
	add(
		rules(EmailAddress, text, "email", "mail"),
		rules(Username, text, "login", "handle"),
		rules(PhoneNumber, textInt, "phone", "mobile", "telephone", "tel", "fax", "cell"),
		rules(Website, text, "website"),
		rules(URL, text, "url", "link", "uri", "href", "avatar"),
		rules(DomainName, text, "domain"),
		rules(NetworkAddress, network, "ip", "ipv4", "ipv6", "inet"),
		rules(MacAddress, network, "mac"),
		rules(StreetAddress, text, "address", "street"),
		rules(City, text, "city", "town"),
		rules(PostalCode, text, "zip", "postal"),
		rules(Country, text, "country"),
		rules(CurrencyCode, text, "currency"),
		rules(MonetaryAmount, number, "price", "amount", "cost", "total", "balance", "salary", "fee",
			"revenue", "subtotal", "tax", "discount", "budget", "wage"),
		rules(Quantity, number, "quantity", "qty", "count", "stock", "inventory", "units"),
		rules(Percentage, number, "percent", "percentage", "pct", "ratio", "rate"),
		rules(Slug, text, "slug"),
		rules(SKU, text, "sku", "upc", "ean"),
		rules(TrackingNumber, textInt, "tracking"),
		rules(PasswordHash, text, "password", "pwd", "passwd"),
		rules(BirthDate, temporal, "dob"),
		rules(Timestamp, temporal, "timestamp", "created", "updated", "modified", "deleted", "time", "expires"),
		rules(Date, temporal, "date", "day"),
		rules(Title, text, "title", "subject", "headline", "label", "caption"),
		rules(FreeText, text, "description", "content", "body", "bio", "summary", "notes", "note",
			"comment", "message", "details", "text", "remarks"),
		rules(Boolean, boolean, "is", "has", "can", "active", "enabled", "verified", "flag", "deleted", "published"),
		rules(JSONDocument, document, "metadata", "meta", "settings", "payload", "attributes", "data",
			"properties", "config", "preferences"),
		rules(ArrayValue, arrayType, "tags", "labels", "roles", "scopes"),
		rules(Identifier, textUUID, "id", "uuid", "guid", "code", "ref", "reference", "number"),
		rules(CompanyName, text, "company", "organization", "organisation", "employer", "vendor",
			"supplier", "brand", "business"),
	)

	// "name" alone: resolved against the table context, see resolveNames.
	r = append(r,
		Rule{Pattern: []string{"name"}, Category: PersonFullName, Types: text, Exact: true},
		Rule{Pattern: []string{"name"}, Category: Title, Types: text},
	)
	return r
}

// fallback assigns a category from the declared type alone.
func fallback(col *schema.Column) Category {
	switch col.Type {
	case schema.TypeNumeric:
		return MonetaryAmount
	case schema.TypeTemporal:
		if col.IsDate() {
			return Date
		}
		return Timestamp
	case schema.TypeUUID:
		return Identifier
	case schema.TypeNetwork:
		return NetworkAddress
	case schema.TypeBoolean:
		return Boolean
	case schema.TypeJSON:
		return JSONDocument
	case schema.TypeArray:
		return ArrayValue
	case schema.TypeInteger:
		return Integer
	case schema.TypeText:
		return FreeText
	default:
		return Unknown
	}
}
