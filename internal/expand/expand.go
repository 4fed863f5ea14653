package expand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/services/llm"
)

// minFeelingLength is the minimum rune count of a trimmed free-text query.
const minFeelingLength = 3

const defaultPhraseCount = 4

const systemPromptTemplate = `You are a search assistant for a library of Christian sermons.

Given how someone is feeling, produce %d short search phrases that would match sermon passages able to help them. Describe the comfort or solution they need, not a restatement of the problem.

Examples:
- "I'm feeling anxious" -> phrases about peace, trusting God, letting go of worry
- "I'm grieving" -> phrases about comfort in loss, God's presence in pain, hope beyond death

Rules:
- Use the natural spoken language a preacher would use, not keywords or book titles.
- Do not cite specific Bible verses.
- Keep each phrase between two and eight words.
- Respond with only a JSON object of the form {"expansion_phrases": ["first phrase", "second phrase"]}.`

// moodOrder fixes the presentation order for CLI listings and error messages.
var moodOrder = []string{
	"anxious",
	"sad",
	"grieving",
	"lost",
	"angry",
	"grateful",
	"hopeless",
	"fearful",
	"lonely",
	"overwhelmed",
}

var moodPhrases = map[string]string{
	"anxious":     "I'm feeling anxious and worried about the future",
	"sad":         "I'm feeling sad and going through a difficult time",
	"grieving":    "I'm grieving and dealing with loss",
	"lost":        "I feel lost and confused about my purpose",
	"angry":       "I'm feeling angry and frustrated",
	"grateful":    "I'm feeling grateful and want to praise God",
	"hopeless":    "I'm feeling hopeless and need encouragement",
	"fearful":     "I'm feeling fearful and need courage",
	"lonely":      "I'm feeling lonely and isolated",
	"overwhelmed": "I'm feeling overwhelmed and stressed",
}

var errNoUsablePhrases = errors.New("model returned no usable phrases")

// Moods returns the supported mood labels in presentation order.
func Moods() []string {
	moods := make([]string, len(moodOrder))
	copy(moods, moodOrder)
	return moods
}

// MoodPhrase resolves a mood label to the first-person phrase handed to the
// expander. Labels are matched case-insensitively after trimming.
func MoodPhrase(mood string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(mood))
	phrase, ok := moodPhrases[key]
	if !ok {
		return "", services.Wrap(services.ErrValidation, "expand", "mood",
			fmt.Sprintf("unknown mood %q (valid moods: %s)", mood, strings.Join(Moods(), ", ")), nil)
	}
	return phrase, nil
}

// DisplayName renders a mood label for human-facing output.
func DisplayName(mood string) string {
	return cases.Title(language.English).String(mood)
}

// Completer is the LLM surface the expander depends on. *llm.Client
// satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Expander generates search phrases from an emotional state.
type Expander struct {
	client  Completer
	phrases int
	logger  *slog.Logger
}

// New builds an Expander that asks for up to phrases expansion phrases per
// query.
func New(client Completer, phrases int, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	if phrases <= 0 {
		phrases = defaultPhraseCount
	}
	return &Expander{
		client:  client,
		phrases: phrases,
		logger:  logger.With("component", "expand"),
	}
}

type expansionResponse struct {
	Phrases []string `json:"expansion_phrases"`
}

// Expand turns a feeling into search phrases. The input must be at least
// three runes after trimming; anything shorter is a validation error. Model
// failures never surface to the caller: the original wording comes back as
// the single phrase so the search can still run.
func (e *Expander) Expand(ctx context.Context, input string) ([]string, error) {
	feeling := strings.TrimSpace(input)
	if utf8.RuneCountInString(feeling) < minFeelingLength {
		return nil, services.Wrap(services.ErrValidation, "expand", "query",
			fmt.Sprintf("feeling must be at least %d characters", minFeelingLength), nil)
	}

	phrases, err := e.complete(ctx, feeling)
	if err != nil {
		e.logger.Warn("query expansion failed, searching with the original wording",
			"feeling", feeling,
			"error", err)
		return []string{feeling}, nil
	}
	return phrases, nil
}

func (e *Expander) complete(ctx context.Context, feeling string) ([]string, error) {
	raw, err := e.client.CompleteJSON(ctx, fmt.Sprintf(systemPromptTemplate, e.phrases), feeling)
	if err != nil {
		return nil, err
	}

	var parsed expansionResponse
	if err := llm.DecodeLLMJSON(raw, &parsed); err != nil {
		return nil, err
	}

	phrases := cleanPhrases(parsed.Phrases, e.phrases)
	if len(phrases) == 0 {
		return nil, errNoUsablePhrases
	}
	return phrases, nil
}

// cleanPhrases trims, drops empties, dedupes case-insensitively, and caps
// the list at limit while preserving model order.
func cleanPhrases(raw []string, limit int) []string {
	seen := make(map[string]struct{}, len(raw))
	phrases := make([]string, 0, limit)
	for _, phrase := range raw {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		key := strings.ToLower(phrase)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		phrases = append(phrases, phrase)
		if len(phrases) == limit {
			break
		}
	}
	return phrases
}
