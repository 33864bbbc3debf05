package kakomon

// Choice is one selectable answer option. The label is the short
// identifier shown on the site (a single letter or kana). Label
// uniqueness is not guaranteed by the provider.
type Choice struct {
	Label  string
	Text   string
	Images []string
}

// Question is the structured form of one scraped past-exam question.
// Absent answer keys and explanations are represented as empty strings,
// never as errors; a question with zero choices is valid.
type Question struct {
	Text              string
	Images            []string
	Choices           []Choice
	Answer            string
	Explanation       string
	ExplanationImages []string
}

// Selectors locate the question structure inside the provider's HTML.
type Selectors struct {
	Question    string `json:"question"`
	Choice      string `json:"choice"`
	ChoiceLabel string `json:"choice_label"`
	ChoiceText  string `json:"choice_text"`
	BaseURL     string `json:"base_url"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Question:    "h3.qno + div",
		Choice:      "ul.selectList li",
		ChoiceLabel: "button.selectBtn",
		ChoiceText:  "span",
	}
}
