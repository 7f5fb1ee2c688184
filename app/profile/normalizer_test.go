package profile

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeCompleteProfile(t *testing.T) {
	normalizer := NewNormalizer()

	fetchedAt := time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC)
	raw := &Raw{
		Identifier:  "alice",
		Nickname:    "Alice",
		City:        "Lahore",
		Gender:      "Female",
		Married:     "No",
		Age:         "24 years",
		Joined:      "15 March 2019",
		Followers:   "150 followers",
		Posts:       "1,204",
		Intro:       "hello  there",
		ImageLink:   "https://cdn.example.com/avatar-imgs/alice.jpg",
		ProfileLink: "https://damadam.pk/users/alice/",
		FetchedAt:   fetchedAt,
	}

	record, err := normalizer.Run(raw)
	if err != nil {
		t.Fatal(err)
	}

	if record.Identifier != "alice" {
		t.Errorf("Expected identifier 'alice', got '%s'", record.Identifier)
	}
	if record.Gender != GenderFemale {
		t.Errorf("Expected gender Female, got %s", record.Gender)
	}
	if record.Married == nil || *record.Married != false {
		t.Errorf("Expected married false, got %v", record.Married)
	}
	if record.Age == nil || *record.Age != 24 {
		t.Errorf("Expected age 24, got %v", record.Age)
	}
	if record.JoinYear == nil || *record.JoinYear != 2019 {
		t.Errorf("Expected join year 2019, got %v", record.JoinYear)
	}
	if record.Followers != 150 {
		t.Errorf("Expected 150 followers, got %d", record.Followers)
	}
	if record.Posts != 1204 {
		t.Errorf("Expected 1204 posts, got %d", record.Posts)
	}
	if record.Intro != "hello there" {
		t.Errorf("Expected collapsed intro, got '%s'", record.Intro)
	}
	if !record.CapturedAt.Equal(fetchedAt) {
		t.Errorf("Expected captured at %v, got %v", fetchedAt, record.CapturedAt)
	}
}

func TestNormalizeTolerance(t *testing.T) {
	normalizer := NewNormalizer()

	// Every optional field absent or garbage still yields a record.
	raw := &Raw{
		Identifier:  "bob",
		City:        "Not set",
		Gender:      "prefer not to say",
		Married:     "???",
		Age:         "old enough",
		Joined:      "a while ago",
		Followers:   "",
		Posts:       "no posts yet",
		ProfileLink: "https://damadam.pk/users/bob/",
		FetchedAt:   time.Now(),
	}

	record, err := normalizer.Run(raw)
	if err != nil {
		t.Fatal(err)
	}

	if record.City != "" {
		t.Errorf("Expected placeholder city dropped, got '%s'", record.City)
	}
	if record.Gender != GenderUnknown {
		t.Errorf("Expected gender Unknown, got %s", record.Gender)
	}
	if record.Married != nil {
		t.Errorf("Expected married nil, got %v", *record.Married)
	}
	if record.Age != nil {
		t.Errorf("Expected age nil, got %v", *record.Age)
	}
	if record.JoinYear != nil {
		t.Errorf("Expected join year nil, got %v", *record.JoinYear)
	}
	if record.Followers != 0 || record.Posts != 0 {
		t.Errorf("Expected zero counters, got %d/%d", record.Followers, record.Posts)
	}
	if record.Nickname != "bob" {
		t.Errorf("Expected nickname to default to identifier, got '%s'", record.Nickname)
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	normalizer := NewNormalizer()

	tests := []struct {
		name string
		raw  Raw
	}{
		{"missing identifier", Raw{ProfileLink: "https://damadam.pk/users/x/"}},
		{"whitespace identifier", Raw{Identifier: "  ", ProfileLink: "https://damadam.pk/users/x/"}},
		{"missing profile link", Raw{Identifier: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizer.Run(&tt.raw)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("Expected ValidationError, got %T", err)
			}
		})
	}
}

func TestNormalizeGenderVariants(t *testing.T) {
	tests := []struct {
		input    string
		expected Gender
	}{
		{"Male", GenderMale},
		{"female", GenderFemale},
		{"  Boy ", GenderMale},
		{"girl", GenderFemale},
		{"", GenderUnknown},
		{"robot", GenderUnknown},
	}

	for _, tt := range tests {
		if got := parseGender(tt.input); got != tt.expected {
			t.Errorf("parseGender(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestNormalizeLastPostTimestamp(t *testing.T) {
	normalizer := NewNormalizer()

	raw := &Raw{
		Identifier:  "alice",
		ProfileLink: "https://damadam.pk/users/alice/",
		LastPost:    "assalam o alaikum",
		LastPostAt:  "2025-03-14T12:30:00Z",
		FetchedAt:   time.Now(),
	}

	record, err := normalizer.Run(raw)
	if err != nil {
		t.Fatal(err)
	}

	if record.LastPostAt == nil {
		t.Fatal("Expected parsed last post timestamp")
	}
	if record.LastPostAt.UTC().Hour() != 12 {
		t.Errorf("Expected hour 12, got %d", record.LastPostAt.UTC().Hour())
	}

	// Garbage timestamps degrade to nil, not errors.
	raw.LastPostAt = "a few moments ago"
	record, err = normalizer.Run(raw)
	if err != nil {
		t.Fatal(err)
	}
	if record.LastPostAt != nil {
		t.Errorf("Expected nil timestamp for unparseable input, got %v", record.LastPostAt)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello   world  ", "hello world"},
		{"Lahore\u00a0cantt", "Lahore cantt"},
		{"Not set", ""},
		{"no city", ""},
		{"N/A", ""},
		{"-", ""},
		{"", ""},
		{"Karachi", "Karachi"},
	}

	for _, tt := range tests {
		if got := CleanText(tt.input); got != tt.expected {
			t.Errorf("CleanText(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
