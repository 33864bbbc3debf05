package kakomon

import (
	"context"
	"net/url"
	"strings"

	"kakomonbot-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// markers the provider renders the answer key and explanation under
const answerSelector = "#answerChar"
const explanationSelector = "#kaisetsu .ansbg"

// ParseQuestion extracts a structured question from the provider's HTML.
// It never fails: malformed or partial HTML produces a best-effort
// Question with absent fields left empty.
func ParseQuestion(rawHTML string, sel Selectors) Question {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Question{}
	}

	var base *url.URL
	if sel.BaseURL != "" {
		base, _ = url.Parse(sel.BaseURL)
	}

	questionEl := doc.Find(sel.Question).First()
	question := Question{
		Text:   htmlutil.Text(questionEl),
		Images: htmlutil.Images(questionEl, base),
	}

	doc.Find(sel.Choice).Each(func(_ int, choiceEl *goquery.Selection) {
		labelSel := sel.ChoiceLabel
		if labelSel == "" {
			labelSel = "button"
		}
		textSel := sel.ChoiceText
		if textSel == "" {
			textSel = "span"
		}
		question.Choices = append(question.Choices, Choice{
			Label:  htmlutil.Text(choiceEl.Find(labelSel).First()),
			Text:   htmlutil.Text(choiceEl.Find(textSel).First()),
			Images: htmlutil.Images(choiceEl, base),
		})
	})

	question.Answer = htmlutil.Text(doc.Find(answerSelector).First())

	explanationEl := doc.Find(explanationSelector).First()
	if explanationEl.Length() > 0 {
		question.Explanation = htmlutil.Text(explanationEl)
		question.ExplanationImages = htmlutil.Images(explanationEl, base)
	}

	return question
}

// Scrape fetches one fresh question from the provider. The provider
// returns a different random question on every search, so each call is a
// new draw rather than a replay.
func (c *Client) Scrape(ctx context.Context) (Question, error) {
	ctx, span := tracer.Start(ctx, "client:Scrape")
	defer span.End()

	rawHTML, err := c.FetchHTML(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch question page")
		return Question{}, err
	}

	question := ParseQuestion(rawHTML, c.opts.Selectors)
	span.SetAttributes(
		attribute.Int("choices", len(question.Choices)),
		attribute.Bool("has_answer", question.Answer != ""),
	)
	return question, nil
}
