package slots

import (
	"regexp"
	"strings"
)

// Capture selects what a matching Rule returns.
type Capture int

const (
	// CaptureLabel returns the rule's canonical Value.
	CaptureLabel Capture = iota
	// CaptureMatch returns the matched text (first group if any), lower-cased.
	CaptureMatch
	// CaptureInput returns the whole input unchanged.
	CaptureInput
	// CaptureGroup returns the first submatch verbatim.
	CaptureGroup
)

// Rule is one row of an extraction table.
type Rule struct {
	Pattern *regexp.Regexp
	Value   string
	Capture Capture
}

func (r Rule) apply(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	hit := m[0]
	if len(m) > 1 && m[1] != "" {
		hit = m[1]
	}
	switch r.Capture {
	case CaptureLabel:
		return r.Value, true
	case CaptureInput:
		return text, true
	case CaptureGroup:
		return hit, true
	default:
		return strings.ToLower(hit), true
	}
}

// RE2 \b only knows ASCII letters, so Cyrillic word edges are spelled out.
// English alternatives end in \b so a stem never matches inside a longer word.
const (
	wordStart = `(?:^|\P{L})`
	wordEnd   = `(?:\P{L}|$)`
)

func word(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + wordStart + `(` + alts + `)`)
}

func label(value, alts string) Rule {
	return Rule{Pattern: word(alts), Value: value, Capture: CaptureLabel}
}

var (
	destinationRules = []Rule{
		{Pattern: word(`турци\p{L}*|египе?т\p{L}*|та[йи]ланд\p{L}*|вьетнам\p{L}*|(?:turkey|egypt|thailand|vietnam)\b`), Capture: CaptureMatch},
	}

	datesRules = []Rule{
		{Pattern: word(`янв|фев|мар|апр|ма[йяе]|июн|июл|авг|сен|окт|ноя|дек|` +
			`(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`), Capture: CaptureInput},
	}

	// family is checked first: "с женой и детьми" is a family trip.
	travelersRules = []Rule{
		label("family", `сем[ьеюя]\p{L}*|дет(?:и|ей|ьми|ям|ск)\p{L}*|реб[её]н\p{L}*|малыш\p{L}*|дочк\p{L}*|сын(?:ом|ов)?`+wordEnd+`|(?:family|kids)\b`),
		label("2 adults", `вдво[её]м|двое`+wordEnd+`|пар(?:а|ой|у|ы)`+wordEnd+`|с (?:жен|муж|девушк|парн|подруг|друг)\p{L}*|2 взросл\p{L}*|(?:couple|two of us)\b`),
		label("1 adult", `один`+wordEnd+`|одна`+wordEnd+`|сам(?:а|ост\p{L}*)?`+wordEnd+`|соло|1 взросл\p{L}*|(?:solo|alone)\b`),
	}

	vacationTypeRules = []Rule{
		label("beach", `пляж\p{L}*|мор[еяю]\p{L}*|купа\p{L}*|загар\p{L}*|(?:beach|sea)\b`),
		label("sightseeing", `экскурс\p{L}*|музе\p{L}*|город\p{L}*|достопримечат\p{L}*|истори\p{L}*|(?:sightseeing|museums?|city)\b`),
		label("active", `гор(?:ы|ах|ам|у)?`+wordEnd+`|горн\p{L}*|поход\p{L}*|трек\p{L}*|треккинг\p{L}*|актив\p{L}*|приключ\p{L}*|дайв\p{L}*|серф\p{L}*|(?:hiking|trekking|adventure|active)\b`),
	}

	// First run of exactly 5 or 6 digits; longer runs do not count.
	budgetRules = []Rule{
		{Pattern: regexp.MustCompile(`(?:^|\D)(\d{5,6})(?:\D|$)`), Capture: CaptureGroup},
	}
)

// Default returns the five trip-planning slots in question order.
func Default() Schema {
	return MustSchema(
		Definition{
			Key:     Destination,
			Prompt:  "Куда хотите поехать? 🌍 Например: Турция, Египет, Таиланд или Вьетнам.",
			Options: []string{"Турция", "Египет", "Таиланд", "Вьетнам"},
			Rules:   destinationRules,
		},
		Definition{
			Key:    Dates,
			Prompt: "Когда планируете поездку? 📅 Напишите месяц, например: «в июле» или «с 10 по 20 августа».",
			Rules:  datesRules,
		},
		Definition{
			Key:     Travelers,
			Prompt:  "Кто едет? 👥 Один, вдвоём или с семьёй?",
			Options: []string{"Один", "Вдвоём", "С семьёй"},
			Rules:   travelersRules,
		},
		Definition{
			Key:     VacationType,
			Prompt:  "Какой отдых предпочитаете? 🏖 Пляж, экскурсии или активный отдых?",
			Options: []string{"Пляж", "Экскурсии", "Активный отдых"},
			Rules:   vacationTypeRules,
		},
		Definition{
			Key:    Budget,
			Prompt: "Какой бюджет на поездку? 💰 Напишите сумму в рублях, например: 150000.",
			Rules:  budgetRules,
		},
	)
}
