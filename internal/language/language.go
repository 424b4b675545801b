package language

import (
	"strings"
	"sync"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"ur", "urd", "", "Urdu", []string{"urdu"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "castilian"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"bn", "ben", "", "Bengali", []string{"bengali"}},
	{"pa", "pan", "", "Punjabi", []string{"punjabi", "panjabi"}},
	{"fa", "fas", "per", "Persian", []string{"persian", "farsi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch", "flemish"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"th", "tha", "", "Thai", []string{"thai"}},
	{"sw", "swa", "", "Swahili", []string{"swahili"}},
	{"tl", "tgl", "", "Tagalog", []string{"tagalog", "filipino"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

var (
	cldrNamesOnce sync.Once
	cldrNames     map[string]string
)

// fromName resolves an English language name ("hawaiian") to its base code
// using the CLDR display tables. Shorter codes win on name collisions.
func fromName(word string) string {
	cldrNamesOnce.Do(func() {
		namer := display.English.Languages()
		bases := display.Supported.BaseLanguages()
		cldrNames = make(map[string]string, len(bases))
		for _, base := range bases {
			name := strings.ToLower(namer.Name(base))
			if name == "" {
				continue
			}
			code := base.String()
			if prev, ok := cldrNames[name]; ok && len(prev) <= len(code) {
				continue
			}
			cldrNames[name] = code
		}
	})
	return cldrNames[word]
}

// ToISO2 converts any recognized language code, word, or BCP 47 tag
// ("pt-BR", "zh_Hant") to ISO 639-1. Unknown 2-letter codes pass through;
// anything without a 2-letter form returns an empty string.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	if name := fromName(code); len(name) == 2 {
		return name
	}
	if len(code) == 3 {
		if base, err := xlanguage.ParseBase(code); err == nil && len(base.String()) == 2 {
			return base.String()
		}
	}
	if strings.ContainsAny(code, "-_") {
		tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
		if err == nil {
			base, _ := tag.Base()
			if iso := base.String(); len(iso) == 2 {
				return iso
			}
		}
	}
	return ""
}

// DisplayName returns a human-readable English language name. Codes missing
// from the local table are resolved through the CLDR display tables; the
// uppercased code is returned when neither knows it.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if tag, err := xlanguage.Parse(trimmed); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// Normalize returns the ISO 639-1 code for code when one exists. Otherwise
// it returns the CLDR base code for a language name, or the lowercased input
// unchanged ("haw", "yue"). Blank input yields "".
func Normalize(code string) string {
	if iso := ToISO2(code); iso != "" {
		return iso
	}
	lower := strings.ToLower(strings.TrimSpace(code))
	if base := fromName(lower); base != "" {
		return base
	}
	return lower
}

// Describe formats a code for chat messages, e.g. "Urdu (ur)".
func Describe(code string) string {
	norm := Normalize(code)
	if norm == "" {
		return DisplayName(code)
	}
	return DisplayName(norm) + " (" + norm + ")"
}
