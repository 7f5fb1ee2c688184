package profile

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

var (
	digitsRe = regexp.MustCompile(`\d+`)
	yearRe   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Normalizer coerces raw page text into typed records. Coercion is
// tolerant: an unparseable optional field becomes its zero value, never an
// error. Only a missing identifier or profile link rejects the record.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Run(raw *Raw) (*Record, error) {
	identifier := CleanText(raw.Identifier)
	if identifier == "" {
		return nil, &ValidationError{Identifier: raw.Identifier, Reason: "missing identifier"}
	}
	if strings.TrimSpace(raw.ProfileLink) == "" {
		return nil, &ValidationError{Identifier: identifier, Reason: "missing profile link"}
	}

	nickname := CleanText(raw.Nickname)
	if nickname == "" {
		nickname = identifier
	}

	record := &Record{
		Identifier:  identifier,
		Nickname:    nickname,
		City:        CleanText(raw.City),
		Gender:      parseGender(raw.Gender),
		Married:     parseMarried(raw.Married),
		Age:         parseNumber(raw.Age),
		JoinYear:    parseJoinYear(raw.Joined),
		Followers:   parseCount(raw.Followers),
		Posts:       parseCount(raw.Posts),
		ProfileLink: strings.TrimSpace(raw.ProfileLink),
		ImageLink:   strings.TrimSpace(raw.ImageLink),
		Intro:       CleanText(raw.Intro),
		LastPost:    CleanText(raw.LastPost),
		CapturedAt:  raw.FetchedAt,
	}

	if ts := CleanText(raw.LastPostAt); ts != "" {
		if parsed, err := dateparse.ParseAny(ts); err == nil {
			record.LastPostAt = &parsed
		} else {
			slog.Debug("Unparseable post timestamp", "identifier", identifier, "value", ts)
		}
	}

	return record, nil
}

func parseGender(s string) Gender {
	switch strings.ToLower(CleanText(s)) {
	case "male", "m", "boy", "man":
		return GenderMale
	case "female", "f", "girl", "woman":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

func parseMarried(s string) *bool {
	var married bool
	switch strings.ToLower(CleanText(s)) {
	case "yes", "married":
		married = true
	case "no", "single", "unmarried":
		married = false
	default:
		return nil
	}
	return &married
}

// parseNumber extracts the first integer in the text, or nil.
func parseNumber(s string) *int {
	match := digitsRe.FindString(CleanText(s))
	if match == "" {
		return nil
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &value
}

// parseJoinYear extracts a plausible year from joined text like
// "Joined: 2019" or "15 March 2019".
func parseJoinYear(s string) *int {
	match := yearRe.FindString(CleanText(s))
	if match == "" {
		return nil
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &year
}

// parseCount coerces counter text like "150 followers" or "1,204" to an
// integer, defaulting to zero.
func parseCount(s string) int {
	cleaned := strings.ReplaceAll(CleanText(s), ",", "")
	match := digitsRe.FindString(cleaned)
	if match == "" {
		return 0
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return value
}
