package sentiment

import (
	"context"
	"strings"

	"ideabox/domain/core/entities"

	"github.com/google/uuid"
)

// Labels produced by the lexicon.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
	LabelMixed    = "MIXED"
)

var (
	positiveWords = wordSet("good", "great", "love", "like", "awesome", "excellent", "helpful",
		"useful", "agree", "yes", "nice", "brilliant", "support", "improve", "better", "best",
		"fantastic", "thanks", "happy", "perfect")
	negativeWords = wordSet("bad", "terrible", "hate", "dislike", "awful", "useless", "disagree",
		"worse", "worst", "waste", "expensive", "problem", "broken", "annoying", "poor",
		"wrong", "never", "against", "unhappy")
	negations = wordSet("not", "don't", "dont", "isn't", "isnt", "never", "no")
)

// Lexicon labels text by counting positive and negative words. It runs
// in-process and is used when no sentiment service is configured.
type Lexicon struct{}

func NewLexicon() *Lexicon { return &Lexicon{} }

// Annotate never fails.
func (l *Lexicon) Annotate(_ context.Context, text string) (entities.Annotation, error) {
	return entities.Annotation{
		Sentiment:    Classify(text),
		EvaluationID: "lexicon-" + uuid.NewString(),
	}, nil
}

// Classify returns the label for text. A word directly after a negation
// counts for the opposite side.
func Classify(text string) string {
	var pos, neg int
	negated := false
	for _, word := range tokenize(text) {
		switch {
		case positiveWords[word] && negated:
			neg++
		case positiveWords[word]:
			pos++
		case negativeWords[word] && negated:
			pos++
		case negativeWords[word]:
			neg++
		}
		negated = negations[word]
	}

	switch {
	case pos > 0 && neg > 0:
		return LabelMixed
	case pos > 0:
		return LabelPositive
	case neg > 0:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// tokenize lowercases text and strips punctuation around each word.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if cleaned := strings.Trim(f, ".,!?;:\"()[]{}#@$%^&*+=<>/\\|`~"); cleaned != "" {
			words = append(words, cleaned)
		}
	}
	return words
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
