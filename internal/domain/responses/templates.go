package responses

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
)

// Type names the intended use of a template.
type Type string

const (
	TypeCalm       Type = "calm"
	TypeLegal      Type = "legal"
	TypeSupportive Type = "supportive"
	TypeReport     Type = "report"
)

// dateLayout renders dates as "October 16, 2026".
const dateLayout = "January 02, 2006"

// Template is one filled reply suggestion.
type Template struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
	Note string `json:"note"`
}

// Input is what a rule sees when choosing and filling text.
type Input struct {
	Severity   harassment.Severity
	Categories []string
	Date       string
}

func (in Input) has(names ...string) bool {
	for _, c := range in.Categories {
		for _, n := range names {
			if c == n {
				return true
			}
		}
	}
	return false
}

func (in Input) severe() bool { return in.Severity == harassment.SeveritySevere }

// Rule pairs a predicate with a text builder. A nil When always matches.
type Rule struct {
	When func(Input) bool
	Text func(Input) string
}

// Spec describes one template type: its note and its rules in precedence
// order. The last rule of every Spec entry must match unconditionally.
type Spec struct {
	Type  Type
	Note  string
	Rules []Rule
}

// Pick returns the text of the first matching rule.
func (s Spec) Pick(in Input) string {
	for _, r := range s.Rules {
		if r.When == nil || r.When(in) {
			return r.Text(in)
		}
	}
	return ""
}

func fixed(text string) func(Input) string {
	return func(Input) string { return text }
}

// Specs is the template table in output order.
var Specs = []Spec{
	{
		Type: TypeCalm,
		Note: "Use this to maintain composure and not escalate.",
		Rules: []Rule{
			{
				When: func(in Input) bool { return in.severe() || in.has(harassment.Threats) },
				Text: fixed("I'm not going to engage with this type of communication. I'm documenting this message and will not respond further."),
			},
			{
				When: func(in Input) bool { return in.has(harassment.Manipulation) },
				Text: fixed("I understand you're upset, but I won't accept responsibility for your behavior. I'm choosing not to continue this conversation."),
			},
			{Text: fixed("I've received your message. I don't believe this type of communication is helpful. If you'd like to have a respectful conversation, I'm open to that.")},
		},
	},
	{
		Type: TypeLegal,
		Note: "Use if you may need to involve authorities.",
		Rules: []Rule{
			{
				When: func(in Input) bool { return in.severe() || in.has(harassment.Threats, harassment.Stalking) },
				Text: func(in Input) string {
					return fmt.Sprintf("This message, received on %s, contains concerning content that I am documenting for potential legal purposes. Continued contact of this nature may be considered harassment under applicable laws. I am retaining all evidence.", in.Date)
				},
			},
			{Text: func(in Input) string {
				return fmt.Sprintf("I am formally requesting that you cease this type of communication. This message has been documented as of %s. Continued unwanted contact may be considered harassment.", in.Date)
			}},
		},
	},
	{
		Type: TypeSupportive,
		Note: "Use when communicating with friends/family.",
		Rules: []Rule{
			{
				When: Input.severe,
				Text: func(in Input) string {
					return fmt.Sprintf("I need to share something concerning with you. I've been receiving harassing messages that include %s. I've been documenting everything and may need support in deciding next steps.", strings.Join(in.Categories, " and "))
				},
			},
			{Text: fixed("I've been receiving some uncomfortable messages and wanted to share this with you. I'm handling it by not responding and documenting.")},
		},
	},
	{
		Type: TypeReport,
		Note: "Use as a template when reporting to the platform.",
		Rules: []Rule{
			{Text: func(in Input) string {
				return fmt.Sprintf("I am reporting a user for harassment. The message(s) I received contain %s. This communication was unwanted and makes me feel unsafe. I am attaching screenshots as evidence.", strings.Join(in.Categories, ", "))
			}},
		},
	},
}

// Synthesize fills all four templates, in calm, legal, supportive, report
// order, for a classification received at the given time.
func Synthesize(severity harassment.Severity, categories []string, at time.Time) []Template {
	in := Input{Severity: severity, Categories: categories, Date: at.Format(dateLayout)}
	out := make([]Template, 0, len(Specs))
	for _, s := range Specs {
		out = append(out, Template{Type: s.Type, Text: s.Pick(in), Note: s.Note})
	}
	return out
}
