package coherence

import (
	"golang.org/x/text/language"
)

// Pools are the word lists identities and free-standing values are drawn
// from for one locale.
type Pools struct {
	Locale        string
	GivenNames    []string
	FamilyNames   []string
	Cities        []string
	Streets       []string
	StreetFormat  string // number and street, e.g. "%d %s" or "%s %d"
	PostalDigits  int
	Country       string
	CountryCode   string
	Currency      string
	PhonePrefix   string
	CompanyWords  []string
	CompanyForms  []string
	TLD           string
	MailProviders []string
}

var pools = map[string]*Pools{
	"en": {
		Locale: "en",
		GivenNames: []string{"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
			"William", "Elizabeth", "David", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas",
			"Sarah", "Charles", "Karen", "Daniel", "Nancy", "Matthew", "Lisa", "Anthony", "Betty", "Mark",
			"Margaret", "Steven", "Sandra", "Paul", "Ashley", "Andrew", "Emily", "Joshua", "Donna"},
		FamilyNames: []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
			"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore",
			"Jackson", "Martin", "Lee", "Thompson", "White", "Harris", "Clark", "Lewis", "Robinson", "Walker",
			"Young", "Allen", "King", "Wright", "Scott", "Green", "Baker", "Adams", "Nelson"},
		Cities: []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia",
			"San Antonio", "San Diego", "Dallas", "Austin", "Seattle", "Denver", "Boston", "Portland"},
		Streets: []string{"Main Street", "Oak Avenue", "Maple Drive", "Cedar Lane", "Pine Street",
			"Elm Street", "Washington Avenue", "Lake Road", "Hill Street", "Park Avenue"},
		StreetFormat:  "%d %s",
		PostalDigits:  5,
		Country:       "United States",
		CountryCode:   "US",
		Currency:      "USD",
		PhonePrefix:   "+1",
		CompanyWords:  []string{"Acme", "Globex", "Initech", "Umbrella", "Stark", "Wayne", "Hooli", "Vandelay", "Pied Piper", "Soylent", "Cyberdyne", "Wonka", "Tyrell", "Aperture", "Massive Dynamic", "Oscorp"},
		CompanyForms:  []string{"Inc", "LLC", "Corp", "Group", "Labs", "Industries", "Systems", "Holdings"},
		TLD:           "com",
		MailProviders: []string{"gmail.com", "yahoo.com", "outlook.com", "icloud.com", "proton.me", "fastmail.com"},
	},
	"de": {
		Locale: "de",
		GivenNames: []string{"Lukas", "Anna", "Jonas", "Lea", "Leon", "Hannah", "Finn", "Sophie", "Paul",
			"Marie", "Felix", "Lena", "Maximilian", "Emilia", "Jürgen", "Sabine", "Jörg", "Käthe", "Björn",
			"Ursula", "Stefan", "Petra", "Günter", "Monika"},
		FamilyNames: []string{"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Meyer", "Wagner", "Becker",
			"Schulz", "Hoffmann", "Schäfer", "Koch", "Bauer", "Richter", "Klein", "Wolf", "Schröder",
			"Neumann", "Schwarz", "Zimmermann", "Braun", "Krüger", "Hofmann", "Hartmann"},
		Cities: []string{"Berlin", "Hamburg", "München", "Köln", "Frankfurt am Main", "Stuttgart",
			"Düsseldorf", "Leipzig", "Dortmund", "Essen", "Bremen", "Dresden", "Hannover", "Nürnberg"},
		Streets: []string{"Hauptstraße", "Schulstraße", "Gartenstraße", "Bahnhofstraße", "Dorfstraße",
			"Bergstraße", "Birkenweg", "Lindenstraße", "Kirchstraße", "Waldstraße"},
		StreetFormat:  "%[2]s %[1]d",
		PostalDigits:  5,
		Country:       "Deutschland",
		CountryCode:   "DE",
		Currency:      "EUR",
		PhonePrefix:   "+49",
		CompanyWords:  []string{"Nordlicht", "Bergmann", "Rheinwerk", "Alpenblick", "Sonnenhof", "Eisenhut", "Elbtal", "Falkenstein", "Grünwald", "Weißdorn"},
		CompanyForms:  []string{"GmbH", "AG", "KG", "GmbH & Co. KG", "eG"},
		TLD:           "de",
		MailProviders: []string{"web.de", "gmx.de", "t-online.de", "posteo.de", "gmail.com"},
	},
	"fr": {
		Locale: "fr",
		GivenNames: []string{"Gabriel", "Louise", "Léo", "Jade", "Raphaël", "Emma", "Arthur", "Chloé", "Louis",
			"Inès", "Jules", "Léa", "Hugo", "Zoé", "François", "Hélène", "Noël", "Françoise", "Jérôme",
			"Cécile", "Benoît", "Élodie", "Gaël", "Maëlle"},
		FamilyNames: []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand",
			"Leroy", "Moreau", "Simon", "Laurent", "Lefèvre", "Michel", "Garcia", "David", "Bertrand",
			"Roux", "Vincent", "Fournier", "Morel", "Girard", "André", "Lefèbvre"},
		Cities: []string{"Paris", "Marseille", "Lyon", "Toulouse", "Nice", "Nantes", "Strasbourg",
			"Montpellier", "Bordeaux", "Lille", "Rennes", "Reims", "Le Havre", "Saint-Étienne"},
		Streets: []string{"rue de la Paix", "avenue des Champs", "rue Victor Hugo", "boulevard Voltaire",
			"rue de la République", "place de la Mairie", "rue du Moulin", "chemin des Vignes"},
		StreetFormat:  "%d %s",
		PostalDigits:  5,
		Country:       "France",
		CountryCode:   "FR",
		Currency:      "EUR",
		PhonePrefix:   "+33",
		CompanyWords:  []string{"Lumière", "Horizon", "Étoile", "Mistral", "Atlantique", "Provence", "Séquoia", "Azur", "Valmont", "Belleville"},
		CompanyForms:  []string{"SA", "SARL", "SAS", "Groupe"},
		TLD:           "fr",
		MailProviders: []string{"orange.fr", "free.fr", "laposte.net", "sfr.fr", "gmail.com"},
	},
	"es": {
		Locale: "es",
		GivenNames: []string{"Hugo", "Lucía", "Martín", "Sofía", "Pablo", "Martina", "Alejandro", "María",
			"Álvaro", "Paula", "Adrián", "Julia", "Mateo", "Valentina", "José", "Inés", "Andrés", "Begoña",
			"Íñigo", "Ángela", "Rubén", "Nuria", "Sebastián", "Ainhoa"},
		FamilyNames: []string{"García", "Rodríguez", "González", "Fernández", "López", "Martínez", "Sánchez",
			"Pérez", "Gómez", "Martín", "Jiménez", "Ruiz", "Hernández", "Díaz", "Moreno", "Muñoz", "Álvarez",
			"Romero", "Alonso", "Gutiérrez", "Navarro", "Torres", "Domínguez", "Vázquez"},
		Cities: []string{"Madrid", "Barcelona", "Valencia", "Sevilla", "Zaragoza", "Málaga", "Murcia",
			"Palma", "Bilbao", "Alicante", "Córdoba", "Valladolid", "Vigo", "Gijón"},
		Streets: []string{"Calle Mayor", "Calle Real", "Avenida de la Constitución", "Calle del Sol",
			"Plaza de España", "Calle de la Iglesia", "Paseo del Prado", "Calle Nueva"},
		StreetFormat:  "%[2]s %[1]d",
		PostalDigits:  5,
		Country:       "España",
		CountryCode:   "ES",
		Currency:      "EUR",
		PhonePrefix:   "+34",
		CompanyWords:  []string{"Sol", "Ibérica", "Montaña", "Brisa", "Levante", "Olivar", "Castellana", "Mediterránea", "Cantábrico", "Alhambra"},
		CompanyForms:  []string{"S.A.", "S.L.", "Grupo", "Sociedad Cooperativa"},
		TLD:           "es",
		MailProviders: []string{"telefonica.net", "hotmail.es", "yahoo.es", "gmail.com"},
	},
}

// PoolsFor returns the pools of a locale tag. Regional variants fall back
// to their base language ("de-AT" uses "de"); unknown languages use "en".
func PoolsFor(locale string) *Pools {
	tag, err := language.Parse(locale)
	if err != nil {
		return pools["en"]
	}
	base, _ := tag.Base()
	if p, ok := pools[base.String()]; ok {
		return p
	}
	return pools["en"]
}

// Locales lists the locales with their own pools.
func Locales() []string {
	return []string{"de", "en", "es", "fr"}
}
