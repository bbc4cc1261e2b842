package seeder

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rana718/synthdb/internal/classify"
	"github.com/Rana718/synthdb/internal/coherence"
	"github.com/Rana718/synthdb/internal/schema"
	"github.com/Rana718/synthdb/internal/types"
)

var (
	titles = []string{
		"Getting Started with Go",
		"Understanding Databases",
		"Web Development Best Practices",
		"Introduction to APIs",
		"Modern Software Architecture",
		"Cloud Computing Basics",
		"Data Structures and Algorithms",
		"Machine Learning Fundamentals",
		"Quarterly Planning Notes",
		"Release Checklist",
	}
	sentences = []string{
		"This is a sample text generated for testing purposes.",
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
		"The quick brown fox jumps over the lazy dog.",
		"Software development requires careful planning and execution.",
		"Database design is crucial for application performance.",
		"Customers appreciate clear communication and fast delivery.",
	}
	words = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta",
		"iota", "kappa", "lambda", "sigma", "omega"}
	countries     = []string{"United States", "Germany", "France", "Spain", "Italy", "Canada", "Japan", "Brazil", "Australia", "India"}
	countryCodes  = []string{"US", "DE", "FR", "ES", "IT", "CA", "JP", "BR", "AU", "IN", "GB", "NL"}
	currencyCodes = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "BRL", "INR", "SEK"}
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

// DataGenerator produces one independent candidate value per call for a
// column's semantic category, shaped to the column's declared type. It owns
// its random source and is not safe for concurrent use; every worker gets
// its own.
type DataGenerator struct {
	rand     *rand.Rand
	resolver *coherence.Resolver
	epoch    time.Time
}

func NewDataGenerator(rng *rand.Rand, resolver *coherence.Resolver, epoch time.Time) *DataGenerator {
	return &DataGenerator{rand: rng, resolver: resolver, epoch: epoch}
}

// Generate returns a value for the column. Length, precision and CHECK
// bounds are the enforcer's job; candidates only aim to be plausible.
func (g *DataGenerator) Generate(tag *classify.Tag, col *schema.Column) any {
	if col.Bounded() {
		return g.pick(col.Values)
	}
	switch col.Type {
	case schema.TypeInteger:
		return g.integer(tag.Category, col)
	case schema.TypeNumeric:
		return g.numeric(tag.Category, col)
	case schema.TypeTemporal:
		return g.temporal(tag.Category, col)
	case schema.TypeBoolean:
		return g.rand.Intn(2) == 1
	case schema.TypeUUID:
		return g.uuid()
	case schema.TypeNetwork:
		return g.network(tag.Category, col)
	case schema.TypeJSON:
		return g.document()
	case schema.TypeArray:
		return g.array(col)
	}
	return g.text(tag.Category, col)
}

func (g *DataGenerator) text(cat classify.Category, col *schema.Column) string {
	pools := g.resolver.Pools()
	switch cat {
	case classify.PersonGivenName, classify.PersonFamilyName, classify.PersonFullName,
		classify.Username, classify.EmailAddress:
		p := g.resolver.NewPerson(g.rand, nil)
		v, _ := p.Value(cat)
		return v
	case classify.CompanyName, classify.Website, classify.DomainName:
		o := g.resolver.NewOrganization(g.rand)
		v, _ := o.Value(cat)
		return v
	case classify.PhoneNumber:
		return g.resolver.Phone(g.rand)
	case classify.StreetAddress:
		return g.streetAddress()
	case classify.City:
		return g.pick(pools.Cities)
	case classify.PostalCode:
		return g.digits(pools.PostalDigits)
	case classify.Country:
		if g.rand.Intn(2) == 0 {
			return pools.Country
		}
		return g.pick(countries)
	case classify.CountryCode:
		if g.rand.Intn(2) == 0 {
			return pools.CountryCode
		}
		return g.pick(countryCodes)
	case classify.CurrencyCode:
		if g.rand.Intn(2) == 0 {
			return pools.Currency
		}
		return g.pick(currencyCodes)
	case classify.MonetaryAmount:
		return types.NewNumeric(1+g.rand.Float64()*9999, 2).String()
	case classify.Quantity, classify.Integer:
		return strconv.Itoa(g.rand.Intn(1000) + 1)
	case classify.Percentage:
		return types.NewNumeric(g.rand.Float64()*100, 2).String()
	case classify.Identifier:
		if col.MaxLength == 0 || col.MaxLength >= 36 {
			return g.uuid().String()
		}
		return g.token(min(col.MaxLength, 12))
	case classify.Slug:
		return g.word() + "-" + g.word() + "-" + strconv.Itoa(g.rand.Intn(1000))
	case classify.SKU:
		return "SKU-" + g.digits(6)
	case classify.TrackingNumber:
		return "1Z" + strings.ToUpper(g.token(16))
	case classify.PasswordHash:
		return "$2a$10$" + g.token(53)
	case classify.Timestamp:
		return types.Format(g.timestamp())
	case classify.Date, classify.BirthDate:
		return g.date(cat).String()
	case classify.NetworkAddress:
		return g.ipv4()
	case classify.MacAddress:
		return g.mac()
	case classify.URL:
		return fmt.Sprintf("https://example.com/page/%d", g.rand.Intn(1000))
	case classify.Title:
		return g.pick(titles)
	case classify.FreeText:
		return g.pick(sentences)
	case classify.Boolean:
		return strconv.FormatBool(g.rand.Intn(2) == 1)
	case classify.JSONDocument:
		return string(g.document())
	}
	return g.word()
}

func (g *DataGenerator) integer(cat classify.Category, col *schema.Column) int64 {
	if _, hi := integerBounds(col); cat == classify.PhoneNumber && hi >= 9_000_000_000 {
		// digits only: a ten-digit national number
		return 2_000_000_000 + g.rand.Int63n(7_000_000_000)
	}
	lo, hi := integerRange(cat, col)
	return lo + g.rand.Int63n(hi-lo+1)
}

func (g *DataGenerator) numeric(cat classify.Category, col *schema.Column) types.Numeric {
	lo, hi := numericRange(cat, col)
	return types.NewNumeric(lo+g.rand.Float64()*(hi-lo), numericScale(col))
}

func (g *DataGenerator) temporal(cat classify.Category, col *schema.Column) any {
	switch {
	case col.IsDate():
		return g.date(cat)
	case col.IsTimeOfDay():
		return types.TimeOfDay{Time: time.Date(0, 1, 1, g.rand.Intn(24), g.rand.Intn(60), g.rand.Intn(60), 0, time.UTC)}
	case cat == classify.BirthDate || cat == classify.Date:
		return g.date(cat).Time
	}
	return g.timestamp()
}

// timestamp is a moment within the two years before the run's epoch.
func (g *DataGenerator) timestamp() time.Time {
	return g.epoch.Add(-time.Duration(g.rand.Int63n(int64(2 * 365 * 24 * time.Hour)))).Truncate(time.Second)
}

func (g *DataGenerator) date(cat classify.Category) types.Date {
	day := g.epoch.Truncate(24 * time.Hour)
	if cat == classify.BirthDate {
		return types.Date{Time: day.AddDate(-18-g.rand.Intn(62), 0, -g.rand.Intn(365))}
	}
	return types.Date{Time: day.AddDate(0, 0, -g.rand.Intn(730))}
}

func (g *DataGenerator) network(cat classify.Category, col *schema.Column) string {
	t := strings.ToLower(col.SQLType)
	switch {
	case cat == classify.MacAddress || strings.HasPrefix(t, "macaddr"):
		return g.mac()
	case t == "cidr":
		return fmt.Sprintf("10.%d.%d.0/24", g.rand.Intn(256), g.rand.Intn(256))
	}
	return g.ipv4()
}

func (g *DataGenerator) uuid() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return uuid.New()
	}
	return id
}

func (g *DataGenerator) document() types.JSON {
	doc := map[string]any{
		"generated": true,
		"label":     g.word(),
		"score":     g.rand.Intn(100),
	}
	data, _ := json.Marshal(doc)
	return types.JSON(data)
}

func (g *DataGenerator) array(col *schema.Column) types.Array {
	n := g.rand.Intn(3) + 1
	out := make(types.Array, n)
	integers := strings.Contains(strings.ToLower(col.SQLType), "int")
	for i := range out {
		if integers {
			out[i] = int64(g.rand.Intn(1000) + 1)
		} else {
			out[i] = g.word()
		}
	}
	return out
}

func (g *DataGenerator) streetAddress() string {
	pools := g.resolver.Pools()
	street := g.pick(pools.Streets)
	number := g.rand.Intn(9999) + 1
	if strings.HasPrefix(pools.StreetFormat, "%s") {
		return fmt.Sprintf(pools.StreetFormat, street, number)
	}
	return fmt.Sprintf(pools.StreetFormat, number, street)
}

func (g *DataGenerator) ipv4() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(254)+1)
}

func (g *DataGenerator) mac() string {
	b := make([]string, 6)
	for i := range b {
		b[i] = fmt.Sprintf("%02x", g.rand.Intn(256))
	}
	return strings.Join(b, ":")
}

func (g *DataGenerator) digits(n int) string {
	if n <= 0 {
		n = 5
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(byte('0' + g.rand.Intn(10)))
	}
	return sb.String()
}

func (g *DataGenerator) token(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[g.rand.Intn(len(alphanumeric))]
	}
	return string(b)
}

func (g *DataGenerator) word() string {
	return g.pick(words)
}

func (g *DataGenerator) pick(list []string) string {
	return list[g.rand.Intn(len(list))]
}

// integerRange is the candidate range for an integer column: the
// category's plausible range cut to the column's bounds.
func integerRange(cat classify.Category, col *schema.Column) (int64, int64) {
	lo, hi := int64(1), int64(1_000_000)
	switch cat {
	case classify.Quantity:
		hi = 1000
	case classify.Percentage:
		lo, hi = 0, 100
	case classify.MonetaryAmount:
		hi = 10_000
	case classify.Boolean:
		lo, hi = 0, 1
	}
	blo, bhi := integerBounds(col)
	lo, hi = max(lo, blo), min(hi, bhi)
	if lo <= hi {
		return lo, hi
	}
	if col.Min != nil {
		return blo, min(bhi, blo+1_000_000)
	}
	return max(blo, bhi-1_000_000), bhi
}

// numericScale is the scale values of a numeric column are rounded to.
func numericScale(col *schema.Column) int {
	if col.Precision > 0 || col.Scale > 0 {
		return col.Scale
	}
	return 2
}

// numericLimit is the largest magnitude representable in numeric(p,s), or
// +Inf when the column is unbounded.
func numericLimit(col *schema.Column) float64 {
	if col.Precision <= 0 {
		return math.Inf(1)
	}
	s := numericScale(col)
	return math.Pow10(col.Precision-s) - math.Pow10(-s)
}

// numericRange is the candidate range of a numeric column: the category's
// plausible range cut to what the declared precision and CHECK bounds allow.
func numericRange(cat classify.Category, col *schema.Column) (float64, float64) {
	lo, hi := 0.0, 1000.0
	switch cat {
	case classify.MonetaryAmount:
		lo, hi = 1, 10_000
	case classify.Percentage:
		hi = 100
	case classify.Quantity:
		lo = 1
	}
	limit := numericLimit(col)
	hi = math.Min(hi, limit)
	lo = math.Max(lo, -limit)
	if col.Min != nil {
		lo = math.Max(lo, *col.Min)
		if hi < lo {
			hi = math.Min(lo+1000, limit)
		}
	}
	if col.Max != nil {
		hi = math.Min(hi, *col.Max)
		if lo > hi {
			lo = math.Max(hi-1000, -limit)
		}
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
