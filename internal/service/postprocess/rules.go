package postprocess

import (
	"regexp"
	"strings"
	"unicode"
)

// Turn carries everything a rule may consult besides the reply text.
// Rules are pure: same text and turn, same output.
type Turn struct {
	Length      string   // sampled length bucket
	LastReplies []string // recent bot replies, oldest first
	UserName    string   // how the bot addresses the user, may be empty
}

// Rule rewrites a candidate reply. Rules run in a fixed order and each
// sees the previous rule's output.
type Rule struct {
	Name  string
	Apply func(text string, turn Turn) string
}

// DefaultRules is the pipeline order. Stage directions and disclosures
// go first so the later shape rules judge the text that will actually
// be sent.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "strip_stage_directions", Apply: stripStageDirections},
		{Name: "strip_disclosures", Apply: stripDisclosures},
		{Name: "normalize_register", Apply: normalizeRegister},
		{Name: "collapse_length", Apply: collapseLength},
		{Name: "vary_opening", Apply: varyOpening},
		{Name: "limit_direct_address", Apply: limitDirectAddress},
	}
}

var stageDirectionRe = regexp.MustCompile(`\*[^*\n]+\*`)

// stripStageDirections removes roleplay asides like "*smiles*".
func stripStageDirections(text string, _ Turn) string {
	return collapseSpaces(stageDirectionRe.ReplaceAllString(text, ""))
}

var disclosurePhrases = []string{
	"as an ai",
	"as a language model",
	"as an artificial intelligence",
	"i'm an ai",
	"i am an ai",
	"i'm just an ai",
	"being an ai",
	"i'm a chatbot",
	"as a chatbot",
	"i'm a virtual assistant",
	"i don't have personal opinions",
	"i don't have feelings",
}

// stripDisclosures drops whole sentences that break character by
// disclosing an AI nature.
func stripDisclosures(text string, _ Turn) string {
	sentences := splitSentences(text)
	kept := sentences[:0]
	for _, s := range sentences {
		lower := strings.ToLower(s)
		disclosed := false
		for _, phrase := range disclosurePhrases {
			if strings.Contains(lower, phrase) {
				disclosed = true
				break
			}
		}
		if !disclosed {
			kept = append(kept, s)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

var registerReplacements = []struct{ from, to string }{
	{"I apologize", "sorry"},
	{"My apologies", "sorry"},
	{"Greetings!", "hey!"},
	{"Greetings,", "hey,"},
	{"I am unable to", "I can't"},
	{"I would be happy to", "I'd love to"},
	{"Furthermore,", "Also,"},
	{"However,", "But"},
	{"Nevertheless,", "Still,"},
}

// normalizeRegister swaps stiff assistant phrasing for the casual
// register the persona speaks in.
func normalizeRegister(text string, _ Turn) string {
	for _, r := range registerReplacements {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	return text
}

// maxSentences is the sentence ceiling per length bucket. Zero means
// unbounded.
var maxSentences = map[string]int{
	LengthExtremelyShort: 1,
	LengthSlightlyShort:  2,
	LengthMedium:         4,
	LengthSlightlyLong:   7,
	LengthLong:           0,
}

// collapseLength truncates a reply that overshoots its sampled bucket,
// keeping the leading sentences.
func collapseLength(text string, turn Turn) string {
	limit := maxSentences[turn.Length]
	if limit <= 0 {
		return text
	}
	sentences := splitSentences(text)
	if len(sentences) <= limit {
		return text
	}
	return strings.TrimSpace(strings.Join(sentences[:limit], " "))
}

// fillerOpeners are one-word openings that get tired fast when
// repeated across consecutive replies.
var fillerOpeners = map[string]struct{}{
	"well":  {},
	"so":    {},
	"hmm":   {},
	"oh":    {},
	"ah":    {},
	"okay":  {},
	"right": {},
}

// varyOpening rewrites the reply when it opens with the same two or
// three words as a recent reply. A repeated filler opener is dropped
// outright; other repeats lose their comma-terminated lead-in ("You
// know,", "I mean,"). An opening with no such cut point stays as is,
// rewriting mid-sentence words could change meaning.
func varyOpening(text string, turn Turn) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return text
	}
	first := strings.ToLower(strings.TrimRight(fields[0], ",.!?"))
	_, filler := fillerOpeners[first]

	repeated := false
	for _, prev := range turn.LastReplies {
		prevFields := strings.Fields(prev)
		if len(prevFields) == 0 {
			continue
		}
		prevFirst := strings.ToLower(strings.TrimRight(prevFields[0], ",.!?"))
		if filler && prevFirst == first {
			repeated = true
			break
		}
		if o2 := openingWords(text, 2); o2 != "" && o2 == openingWords(prev, 2) {
			repeated = true
			break
		}
		if o3 := openingWords(text, 3); o3 != "" && o3 == openingWords(prev, 3) {
			repeated = true
			break
		}
	}
	if !repeated {
		return text
	}

	drop := 0
	if filler {
		drop = 1
	} else {
		for i := 0; i < 3 && i < len(fields)-1; i++ {
			if strings.HasSuffix(fields[i], ",") {
				drop = i + 1
				break
			}
		}
	}
	if drop == 0 || drop >= len(fields) {
		return text
	}

	rest := strings.TrimLeft(strings.Join(fields[drop:], " "), ", ")
	if rest == "" {
		return text
	}
	return upperFirst(rest)
}

// limitDirectAddress keeps at most one use of the user's name per
// reply. More than that reads like a sales call.
func limitDirectAddress(text string, turn Turn) string {
	if turn.UserName == "" {
		return text
	}
	name := turn.UserName
	count := strings.Count(text, name)
	if count <= 1 {
		return text
	}

	first := strings.Index(text, name)
	head := text[:first+len(name)]
	tail := text[first+len(name):]
	tail = strings.ReplaceAll(tail, ", "+name, "")
	tail = strings.ReplaceAll(tail, " "+name, "")
	return collapseSpaces(head + tail)
}

var sentenceEndRe = regexp.MustCompile(`([.!?]+)\s+`)

// splitSentences is a rough splitter, good enough for counting and
// truncation. Terminators stay attached to their sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func openingWords(text string, n int) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) < n {
		return ""
	}
	for i := range fields[:n] {
		fields[i] = strings.TrimRight(fields[i], ",.!?;:")
	}
	return strings.Join(fields[:n], " ")
}

var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	// Stray space before punctuation left by a removal.
	text = strings.ReplaceAll(text, " ,", ",")
	text = strings.ReplaceAll(text, " .", ".")
	text = strings.ReplaceAll(text, " !", "!")
	text = strings.ReplaceAll(text, " ?", "?")
	return strings.TrimSpace(text)
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
