package generate

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Every field generator returns an (original, mangled) pair of values.

var transliterate = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
)

// surnameRules are applied in order, each with its own coin flip.
var surnameRules = [][2]string{
	{"ea", "ie"}, {"sky", "ski"}, {"y", "i"}, {"ay", "ey"}, {"tz", "z"},
	{"ts", "z"}, {"sz", "sh"}, {"x", "z"}, {"ou", "u"}, {"dt", "t"},
	{"ei", "ey"}, {"ov", "ow"}, {"ski", "sky"}, {"ss", "s"},
}

var companySuffixes = []string{"Ltd", "Bhd", "GmbH", "KG", "Limited", "AS", "ltd", "Co."}

const companyLetters = "QWERTZUIOPASDFGHJKLYXCVBNMÜÖÄ"

// Go layouts for the date formats seen in real spreadsheets.
var dateLayouts = []string{
	"01/02/2006", "01/02/06", "01/02 2006", "2006 01/02", "02.01.2006", "02.01.06",
	"January 02, 2006", "Jan 02, 2006", "02-01-06", "02-Jan-2006", "02 Jan 2006", "02Jan2006",
}

const (
	minTimestamp = 315529200  // 1980-01-01
	maxTimestamp = 1609455600 // 2020-12-31
)

// FirstName picks a first name and spells it the way a different clerk
// would: transliterated, a double letter dropped, a diminutive or initial.
func (g *Generator) FirstName() (string, string) {
	name := g.pick(g.words.names)
	mangled := transliterate.Replace(name)

	if g.rnd.Float64() >= 0.5 {
		l := []rune(strings.ToLower(mangled))
		if i := firstDouble(l); i >= 0 {
			mangled = title(string(removeAt(l, i)))
		}
	}
	if g.rnd.Float64() <= 0.66 {
		switch {
		case strings.HasSuffix(mangled, "y"):
			mangled = strings.TrimSuffix(mangled, "y") + "ie"
		case strings.HasSuffix(mangled, "ie"), strings.HasSuffix(mangled, "ey"):
			mangled = mangled[:len(mangled)-2] + "y"
		}
	}
	if mangled != name {
		return name, mangled
	}

	r := []rune(mangled)
	switch g.randInt(1, 5) {
	case 1: // double a letter
		if len(r) >= 2 {
			n := g.randInt(1, len(r)-1)
			mangled = string(insertAt(r, n, unicode.ToLower(r[n])))
		}
	case 2, 5: // truncate
		cut := len(r) / g.randInt(2, 5)
		if cut < 1 {
			cut = 1
		}
		mangled = string(r[:len(r)-cut])
		if utf8.RuneCountInString(mangled) == 1 {
			mangled = strings.ToUpper(mangled) + "."
		}
	case 3: // initial
		mangled = strings.ToUpper(string(r[0]))
		if g.rnd.Float64() > 0.3 {
			mangled += "."
		}
	case 4: // missing
		mangled = ""
	}
	return name, mangled
}

// Surname picks a last name and applies phonetic spelling variants.
func (g *Generator) Surname() (string, string) {
	surname := g.pick(g.words.surnames)
	mangled := transliterate.Replace(surname)
	for _, rule := range surnameRules {
		if g.rnd.Float64() <= 0.66 {
			mangled = strings.ReplaceAll(mangled, rule[0], rule[1])
		}
	}
	if mangled != surname && g.rnd.Float64() > 0.5 {
		return surname, title(mangled)
	}

	l := []rune(strings.ToLower(mangled))
	switch i := firstDouble(l); {
	case i >= 0:
		l = removeAt(l, i)
	case len(l) > 3:
		l = removeAt(l, g.randInt(1, len(l)-2))
	case len(l) >= 2:
		n := g.randInt(1, len(l)-1)
		l = insertAt(l, n, l[n])
	}
	return surname, title(string(l))
}

// Company builds a name from one to three latin words and varies its
// legal suffix, case and word order.
func (g *Generator) Company() (string, string) {
	original := make([]string, g.randInt(1, 3))
	for i := range original {
		original[i] = title(g.pick(g.words.latin))
	}
	last := len(original) - 1
	if g.rnd.Float64() > 0.5 && len(original) >= 3 {
		var b strings.Builder
		for _, c := range original[last] {
			if g.rnd.Float64() > 0.5 {
				b.WriteRune(c)
			}
		}
		original[last] = strings.ToUpper(b.String())
		if original[last] == "" {
			original[last] = "Ltd"
		}
	}
	if utf8.RuneCountInString(original[last]) <= 4 && g.rnd.Float64() > 0.5 {
		original[last] += "."
	}
	if len(original) <= 1 && g.rnd.Float64() > 0.5 {
		letters := []rune(companyLetters)
		prefix := make([]rune, 3)
		for i := range prefix {
			prefix[i] = letters[g.rnd.Intn(len(letters))]
		}
		original = append([]string{string(prefix)}, original...)
	}

	mangled := append([]string(nil), original...)
	switch g.randInt(1, 3) {
	case 1:
		if len(mangled) > 1 {
			drop := len(mangled) - 1
			if len(mangled) == 3 {
				drop = 1
			}
			mangled = append(mangled[:drop:drop], mangled[drop+1:]...)
		} else {
			mangled[0] = strings.ToUpper(mangled[0])
		}
	case 2:
		end := len(mangled) - 1
		switch {
		case strings.HasSuffix(mangled[end], "."):
			mangled[end] = strings.TrimSuffix(mangled[end], ".")
		case len(mangled) == 1:
			mangled = append(mangled, g.pick(companySuffixes))
		default:
			mangled = mangled[:end]
		}
	case 3:
		for i := range mangled {
			mangled[i] = strings.ToUpper(mangled[i])
		}
	}
	if len(mangled) >= 3 && g.rnd.Float64() > 0.5 {
		mangled[0], mangled[1] = mangled[1], mangled[0]
	}
	return strings.Join(original, " "), strings.Join(mangled, " ")
}

// Address builds "<name> <street type> <number>, <postcode>" and varies
// the abbreviation, house number suffix and postcode prefix.
func (g *Generator) Address() (string, string) {
	streets := g.words.streets
	weights := make([]int, len(streets))
	for i := range weights {
		weights[i] = len(streets) - i
	}
	street := streets[g.weighted(weights)]
	name := g.pick(g.words.people)
	number := strconv.Itoa(g.randInt(1, pow10(1+g.weighted([]int{5, 4, 3, 2}))))

	quarter := ""
	if g.rnd.Float64() <= 0.6 {
		var b strings.Builder
		for k := g.randInt(1, 5) - 1; k > 0; k-- {
			b.WriteByte("WSEN"[g.rnd.Intn(4)])
		}
		quarter = b.String()
		if quarter != "" {
			quarter += g.pick([]string{" ", "-", "", "/"})
		}
	}
	postcode := strconv.Itoa(g.randInt(10, 99999))

	var index string
	switch g.randInt(1, 3) {
	case 1:
		index = quarter + postcode
	case 2:
		index = trimLastRune(quarter) + postcode
	case 3:
		index = postcode
	}

	original := []string{name, street[0], number, ", " + quarter + postcode}
	mangled := []string{name, street[0], number, ", " + index}
	if g.rnd.Float64() > 0.5 {
		original = original[:3]
		mangled = mangled[:3]
	}

	if g.rnd.Float64() > 0.5 {
		if r := []rune(name); len(r) >= 3 {
			mangled[0] = string(removeAt(r, g.randInt(1, len(r)-2)))
		}
	}
	if g.rnd.Float64() > 0.5 {
		mangled[1] = g.pick(street)
	}
	if g.rnd.Float64() > 0.5 {
		suffix := "ABCDEabcdef"[g.rnd.Intn(11)]
		mangled[2] += g.pick([]string{"", "-", "/", " ", ""}) + string(suffix)
	}
	if g.rnd.Float64() > 0.75 {
		mangled = mangled[:len(mangled)-1]
	}

	join := func(parts []string) string {
		return strings.ReplaceAll(strings.Join(parts, " "), " ,", ",")
	}
	return join(original), join(mangled)
}

// Telephone formats the same number twice with independent area code
// and separator styles.
func (g *Generator) Telephone() (string, string) {
	var area strings.Builder
	for k := g.randInt(2, 4); k > 0; k-- {
		area.WriteByte(byte('0' + g.rnd.Intn(10)))
	}
	digits := g.randInt(2, 3)
	groups := make([]string, g.randInt(2, 4))
	for i := range groups {
		groups[i] = strconv.Itoa(g.randInt(pow10(digits-1), pow10(digits)-1))
	}

	format := func() string {
		prefix := area.String()
		switch g.randInt(1, 4) {
		case 1:
			prefix = "(" + prefix + ") "
		case 2:
			prefix += "/"
		case 3:
			prefix = "+" + prefix
		}
		sep := " "
		if g.rnd.Float64() > 0.5 {
			sep = "-"
		}
		s := prefix + strings.Join(groups, sep)
		if g.rnd.Float64() < 0.2 {
			s = strings.ReplaceAll(s, " ", "")
		}
		return s
	}
	first := format()
	return first, format()
}

// Date renders one random day in two independently chosen layouts.
func (g *Generator) Date() (string, string) {
	day := time.Unix(int64(g.randInt(minTimestamp, maxTimestamp)), 0).UTC()
	return day.Format(g.pick(dateLayouts)), day.Format(g.pick(dateLayouts))
}

func (g *Generator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

// randInt returns a uniform integer in [lo, hi].
func (g *Generator) randInt(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

// weighted returns an index drawn with the given relative weights.
func (g *Generator) weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := g.rnd.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

func title(s string) string {
	return cases.Title(language.Und).String(s)
}

func firstDouble(r []rune) int {
	for i := 0; i+1 < len(r); i++ {
		if r[i] == r[i+1] {
			return i
		}
	}
	return -1
}

func removeAt(r []rune, i int) []rune {
	out := make([]rune, 0, len(r)-1)
	out = append(out, r[:i]...)
	return append(out, r[i+1:]...)
}

func insertAt(r []rune, i int, c rune) []rune {
	out := make([]rune, 0, len(r)+1)
	out = append(out, r[:i]...)
	out = append(out, c)
	return append(out, r[i:]...)
}

func trimLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

func pow10(n int) int {
	p := 1
	for ; n > 0; n-- {
		p *= 10
	}
	return p
}
