package scrape

import "regexp"

// Each field is extracted by an ordered battery of patterns; the first match
// wins. Adding or reordering a fallback is a data change, not a code change.
// All patterns run over the full rendered page text, so they are written to
// stay inside one line of output (html2text emits one line per block).

var snowSummitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)snow depth[^\n]{0,60}?summit[^\n]{0,20}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)summit[^\n]{0,40}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)(?:top|mountain) station[^\n]{0,40}?(\d+(?:\.\d+)?)\s*cm`),
}

var snowBasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)snow depth[^\n]{0,60}?(?:base|valley)[^\n]{0,20}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)(?:base|valley)(?: station| area)?[^\n]{0,40}?(\d+(?:\.\d+)?)\s*cm`),
}

var newSnow24hPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:fresh|new) snow[^\n]{0,40}?24\s*h(?:ours|rs)?[^\n]{0,20}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)24\s*h(?:ours|rs)?[^\n]{0,30}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cm[^\n]{0,30}?(?:last|past)\s*24\s*h`),
}

var newSnow48hPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)48\s*h(?:ours|rs)?[^\n]{0,30}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cm[^\n]{0,30}?(?:last|past)\s*48\s*h`),
}

var newSnow7dPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)7\s*d(?:ays)?[^\n]{0,30}?(\d+(?:\.\d+)?)\s*cm`),
	regexp.MustCompile(`(?i)(?:last|past)\s*week[^\n]{0,30}?(\d+(?:\.\d+)?)\s*cm`),
}

// Lift counts: an open/total pair is preferred; a labeled total is the
// fallback and only populates the total.
var liftsOfPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:of|/)\s*(\d+)\s*(?:ski\s*)?lifts`),
	regexp.MustCompile(`(?i)lifts[^\n]{0,20}?(\d+)\s*(?:of|/)\s*(\d+)`),
}

var liftsTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total(?: number of)? lifts?[^\n]{0,15}?(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:ski\s*)?lifts(?: in total| total)`),
}

var runsOfPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:of|/)\s*(\d+)\s*(?:runs|slopes|trails)`),
	regexp.MustCompile(`(?i)(?:runs|slopes|trails)[^\n]{0,20}?(\d+)\s*(?:of|/)\s*(\d+)`),
}

var runsTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total(?: number of)? (?:runs|slopes|trails)[^\n]{0,15}?(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:runs|slopes|trails)(?: in total| total)`),
}

var terrainOpenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:of|/)\s*(\d+(?:\.\d+)?)\s*km`),
	regexp.MustCompile(`(?i)(?:open )?(?:terrain|slopes|pistes)[^\n]{0,20}?(\d+(?:\.\d+)?)\s*(?:of|/)\s*(\d+(?:\.\d+)?)\s*km`),
}

var terrainOpenPctPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*%[^\n]{0,20}?(?:terrain|slopes|pistes)?[^\n]{0,10}?open`),
	regexp.MustCompile(`(?i)open[^\n]{0,20}?(\d+)\s*%`),
}

var seasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)season[:\s]*(?:from\s*)?(\d{4}-\d{2}-\d{2}|\d{1,2}\s+[A-Za-z]{3,9}\.?\s+\d{4}|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})\s*(?:until|to|through|-|–)\s*(\d{4}-\d{2}-\d{2}|\d{1,2}\s+[A-Za-z]{3,9}\.?\s+\d{4}|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)operating[:\s]*(?:from\s*)?(\d{4}-\d{2}-\d{2})\s*(?:until|to|-|–)\s*(\d{4}-\d{2}-\d{2})`),
}

var lastSnowfallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)last snow(?:fall)?[:\s]*([^\n]{0,40})`),
	regexp.MustCompile(`(?i)most recent snow(?:fall)?[:\s]*([^\n]{0,40})`),
}

var conditionsLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)snow conditions?[:\s]+([A-Za-z][A-Za-z /-]{2,40})`),
	regexp.MustCompile(`(?i)conditions?[:\s]+(packed powder|powder|spring snow|hard(?:-| )packed|machine groomed|granular|icy|slushy|variable)`),
}

var chairTimesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:operating times|opening hours?|lift hours?)[^\n]{0,30}?(\d{1,2}:\d{2})\s*(?:-|–|to|until)\s*(\d{1,2}:\d{2})`),
	regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*(?:-|–|to|until)\s*(\d{1,2}:\d{2})\s*(?:daily|every day)`),
}

// Static info page.

var elevationRangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{3,4})\s*m\s*(?:-|–|to)\s*(\d{3,4})\s*m`),
	regexp.MustCompile(`(?i)elevation[^\n]{0,30}?(\d{3,4})\s*m[^\n]{0,15}?(\d{3,4})\s*m`),
}

var verticalDropPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)vertical(?: drop| difference)?[^\n]{0,20}?(\d{3,4})\s*m`),
	regexp.MustCompile(`(?i)(\d{3,4})\s*m\s*(?:of )?vertical`),
}

var terrainTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total(?: slope| trail| piste)? length[^\n]{0,15}?(\d+(?:\.\d+)?)\s*km`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*km(?: of)? (?:slopes|terrain|trails|pistes)`),
}

// Per-difficulty terrain needs the distance and the parenthesized percentage
// to co-occur within a bounded window; if only one is present neither field
// is set. The {0,40} lookahead is that window.
var terrainTierPatterns = map[string][]*regexp.Regexp{
	"easy": {
		regexp.MustCompile(`(?i)(?:easy|beginner|blue)[^\n]{0,40}?(\d+(?:\.\d+)?)\s*km\s*\(\s*(\d+)\s*%\s*\)`),
	},
	"intermediate": {
		regexp.MustCompile(`(?i)(?:intermediate|red)[^\n]{0,40}?(\d+(?:\.\d+)?)\s*km\s*\(\s*(\d+)\s*%\s*\)`),
	},
	"difficult": {
		regexp.MustCompile(`(?i)(?:difficult|advanced|expert|black)[^\n]{0,40}?(\d+(?:\.\d+)?)\s*km\s*\(\s*(\d+)\s*%\s*\)`),
	},
}

// Lift-type vocabulary on the ski-lifts page. Counts appear in parentheses
// after the label and the same label can occur multiple times (distinct
// models of the same type); occurrences are summed. Order matters: matches
// for an earlier entry are stripped before the later ones run, so the plain
// "chairlift" pattern cannot re-count high-speed chairlifts.
var liftTypePatterns = []struct {
	Kind string
	Re   *regexp.Regexp
}{
	{"gondola", regexp.MustCompile(`(?i)(?:gondola|cable car|aerial tramway)[^\n]{0,40}?\(\s*(\d+)\s*\)`)},
	{"high_speed_chair", regexp.MustCompile(`(?i)high[- ]speed(?: \d-seater)? chairlift[^\n]{0,40}?\(\s*(\d+)\s*\)`)},
	{"fixed_chair", regexp.MustCompile(`(?i)(?:fixed[- ]grip )?chairlift[^\n]{0,40}?\(\s*(\d+)\s*\)`)},
	{"surface", regexp.MustCompile(`(?i)(?:surface lift|t-bar|platter|rope tow|drag lift)[^\n]{0,40}?\(\s*(\d+)\s*\)`)},
	{"carpet", regexp.MustCompile(`(?i)(?:magic|moving|conveyor) (?:carpet|belt)[^\n]{0,40}?\(\s*(\d+)\s*\)`)},
}

var resortOpenPhraseRe = regexp.MustCompile(`(?i)resort is open|currently open|open daily`)
var zeroOfRe = regexp.MustCompile(`\b0\s*(?:of|/)\s*\d+`)
