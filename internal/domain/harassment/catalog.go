package harassment

// Category is a keyword-defined harassment pattern group.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Weight   int      `json:"weight" yaml:"weight"`
}

// Catalog is an ordered set of categories. Order decides the order of
// detected categories in a Result.
type Catalog []Category

// Category names used by response synthesis.
const (
	Threats      = "threats"
	Sexual       = "sexual"
	Stalking     = "stalking"
	Insults      = "insults"
	Manipulation = "manipulation"
	Doxxing      = "doxxing"

	// GeneralHarassment is reported when no pattern matched.
	GeneralHarassment = "general harassment"
)

// DefaultCatalog returns the built-in pattern table.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: Threats, Weight: 5, Keywords: []string{
			"kill", "hurt", "harm", "attack", "find you", "coming for",
			"destroy", "ruin", "end you", "make you pay",
		}},
		{Name: Sexual, Weight: 4, Keywords: []string{
			"sexy", "nudes", "naked", "body", "send pics", "hot",
		}},
		{Name: Stalking, Weight: 5, Keywords: []string{
			"watching", "following", "know where", "saw you", "your house", "tracked",
		}},
		{Name: Insults, Weight: 2, Keywords: []string{
			"ugly", "stupid", "worthless", "pathetic", "loser", "disgusting", "idiot", "trash",
		}},
		{Name: Manipulation, Weight: 3, Keywords: []string{
			"no one will believe", "your fault", "you made me", "you owe me", "you deserve", "crazy",
		}},
		{Name: Doxxing, Weight: 4, Keywords: []string{
			"address", "phone number", "tell everyone", "expose", "your family", "your friends will know",
		}},
	}
}

// Names returns the category names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, len(c))
	for i, cat := range c {
		out[i] = cat.Name
	}
	return out
}
