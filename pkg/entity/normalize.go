// Package entity canonicalises free-text entity names (countries, customers,
// sales reps) and clusters spelling variants so their figures are summed
// together instead of being fragmented across rows.
package entity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/samber/lo"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// corporateSuffixes are dropped wherever they appear in a name.
var corporateSuffixes = lo.SliceToMap([]string{
	"llc", "l l c", "ltd", "limited", "inc", "incorporated", "co", "corp",
	"corporation", "company", "plc", "pvt", "pte", "fze", "fzco", "fzc",
	"fzllc", "fzlocal", "wll", "est", "establishment", "gmbh", "srl", "spa",
	"sa", "sarl", "bv", "nv", "ag", "pjsc", "psc", "saog", "saoc", "jsc",
}, func(s string) (string, struct{}) { return s, struct{}{} })

// commonPrefixes are dropped from the start of a name only.
var commonPrefixes = []string{"the", "m s", "ms", "messrs"}

// aliases maps cleaned regional or informal variants to a canonical key.
var aliases = map[string]string{
	"uae":                         "unitedarabemirates",
	"u a e":                       "unitedarabemirates",
	"emirates":                    "unitedarabemirates",
	"united arab emirate":         "unitedarabemirates",
	"ksa":                         "saudiarabia",
	"saudi":                       "saudiarabia",
	"kingdom of saudi arabia":     "saudiarabia",
	"k s a":                       "saudiarabia",
	"usa":                         "unitedstates",
	"us":                          "unitedstates",
	"u s a":                       "unitedstates",
	"united states of america":    "unitedstates",
	"america":                     "unitedstates",
	"uk":                          "unitedkingdom",
	"u k":                         "unitedkingdom",
	"great britain":               "unitedkingdom",
	"britain":                     "unitedkingdom",
	"england":                     "unitedkingdom",
	"kingdom of bahrain":          "bahrain",
	"state of qatar":              "qatar",
	"state of kuwait":             "kuwait",
	"sultanate of oman":           "oman",
	"hashemite kingdom of jordan": "jordan",
	"arab republic of egypt":      "egypt",
	"kingdom of morocco":          "morocco",
	"republic of iraq":            "iraq",
	"republic of yemen":           "yemen",
	"drc":                         "democraticrepublicofthecongo",
	"dr congo":                    "democraticrepublicofthecongo",
	"congo kinshasa":              "democraticrepublicofthecongo",
	"ivory coast":                 "cotedivoire",
	"republic of south africa":    "southafrica",
	"rsa":                         "southafrica",
	"people s republic of china":  "china",
	"prc":                         "china",
	"republic of korea":           "southkorea",
	"korea":                       "southkorea",
	"holland":                     "netherlands",
	"the netherlands":             "netherlands",
	"russian federation":          "russia",
	"turkiye":                     "turkey",
	"syrian arab republic":        "syria",
	"islamic republic of iran":    "iran",
	"kingdom of the netherlands":  "netherlands",
	"federal republic of nigeria": "nigeria",
	"united republic of tanzania": "tanzania",
	"lao people s democratic rep": "laos",
	"viet nam":                    "vietnam",
	"czechia":                     "czechrepublic",
}

var stripMarks = transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}), norm.NFC)

// clean folds accents and case, turns punctuation into spaces and collapses
// whitespace runs.
func clean(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "&", " and ")
	folded = nonAlphanumeric.ReplaceAllString(folded, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(folded, " "))
}

// Words returns the cleaned words of name without corporate suffixes or
// common prefixes.
func Words(name string) []string {
	cleaned := clean(name)
	if alias, ok := aliases[cleaned]; ok {
		return []string{alias}
	}
	for _, prefix := range commonPrefixes {
		if strings.HasPrefix(cleaned, prefix+" ") {
			cleaned = strings.TrimPrefix(cleaned, prefix+" ")
			break
		}
	}
	for suffix := range corporateSuffixes {
		if strings.Contains(suffix, " ") {
			cleaned = strings.TrimSpace(strings.ReplaceAll(" "+cleaned+" ", " "+suffix+" ", " "))
		}
	}

	words := lo.Filter(strings.Fields(cleaned), func(w string, _ int) bool {
		_, drop := corporateSuffixes[w]
		return !drop && w != "and"
	})
	if len(words) == 0 {
		// A name made only of suffixes keeps its cleaned form.
		return strings.Fields(clean(name))
	}
	return words
}

// Normalize returns the canonical grouping key of name: accents, case,
// punctuation, whitespace, corporate suffixes and common prefixes removed,
// then resolved through the alias table.
func Normalize(name string) string {
	words := Words(name)
	spaced := strings.Join(words, " ")
	if alias, ok := aliases[spaced]; ok {
		return alias
	}
	return strings.Join(words, "")
}

// Equivalent reports whether a and b likely name the same entity: equal
// keys, one key containing the other (both at least MinContainmentLength
// long), or at least MinSharedWords shared words longer than MinWordLength.
func Equivalent(a, b string) bool {
	return equivalentKeys(Normalize(a), Normalize(b), Words(a), Words(b))
}

func equivalentKeys(ka, kb string, wa, wb []string) bool {
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}
	if len(ka) >= constants.MinContainmentLength && len(kb) >= constants.MinContainmentLength &&
		(strings.Contains(ka, kb) || strings.Contains(kb, ka)) {
		return true
	}
	return sharedWords(wa, wb) >= constants.MinSharedWords
}

func sharedWords(a, b []string) int {
	long := func(w string, _ int) bool { return len(w) > constants.MinWordLength }
	return len(lo.Intersect(lo.Uniq(lo.Filter(a, long)), lo.Uniq(lo.Filter(b, long))))
}
