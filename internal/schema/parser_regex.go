package schema

import (
	"regexp"
)

// Compiled once; ParseDDL runs them for every statement of a dump.
var (
	tableRegex = regexp.MustCompile(`(?is)^CREATE\s+(?:UNLOGGED\s+|TEMP(?:ORARY)?\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w."]+)\s*\(`)
	enumRegex  = regexp.MustCompile(`(?is)^CREATE\s+TYPE\s+([\w."]+)\s+AS\s+ENUM\s*\((.*)\)$`)
	alterRegex = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(?:ONLY\s+)?(?:IF\s+EXISTS\s+)?([\w."]+)\s+ADD\s+(.*)$`)

	indexRegex      = regexp.MustCompile(`(?is)^CREATE\s+UNIQUE\s+INDEX\s+(?:CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(?:[\w."]+\s+)?ON\s+(?:ONLY\s+)?([\w."]+)\s*(?:USING\s+\w+\s*)?\((.*?)\)\s*(?:INCLUDE\s*\(.*?\)\s*)?(?:WHERE\b.*)?$`)
	indexOrderRegex = regexp.MustCompile(`(?i)\s+(ASC|DESC)(\s+NULLS\s+(FIRST|LAST))?$`)

	foreignKeyRegex = regexp.MustCompile(`(?is)^FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+([\w."]+)\s*(?:\(([^)]*)\))?`)
	referencesRegex = regexp.MustCompile(`(?is)\bREFERENCES\s+([\w."]+)\s*(?:\(([^)]*)\))?`)
	keyListRegex    = regexp.MustCompile(`(?is)^(PRIMARY\s+KEY|UNIQUE)\s*(?:NULLS\s+(?:NOT\s+)?DISTINCT\s*)?\(([^)]*)\)`)
	constraintName  = regexp.MustCompile(`(?is)^CONSTRAINT\s+([\w"]+)\s+(.*)$`)
	addColumnRegex  = regexp.MustCompile(`(?is)^COLUMN\s+(?:IF\s+NOT\s+EXISTS\s+)?(.*)$`)

	notNullRegex    = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	primaryRegex    = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	uniqueRegex     = regexp.MustCompile(`(?i)\bUNIQUE\b`)
	defaultRegex    = regexp.MustCompile(`(?i)\bDEFAULT\b`)
	identityRegex   = regexp.MustCompile(`(?i)\bGENERATED\s+(ALWAYS|BY\s+DEFAULT)\s+AS\s+IDENTITY\b`)
	generatedRegex  = regexp.MustCompile(`(?i)\bGENERATED\s+ALWAYS\s+AS\s*\(`)
	checkStartRegex = regexp.MustCompile(`(?i)\bCHECK\s*\(`)
	identRegex      = regexp.MustCompile(`"([^"]+)"|\b([A-Za-z_][A-Za-z0-9_]*)\b`)

	commentRegex    = regexp.MustCompile(`--[^\n]*|/\*[\s\S]*?\*/`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	enumValueRegex  = regexp.MustCompile(`'((?:[^']|'')*)'`)
)
