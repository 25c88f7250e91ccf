package companionsdk

import (
	"regexp"
	"sort"
	"strings"
)

// ──────────────────────────────────────────────
// Signal Detectors — rule-based message classification
// ──────────────────────────────────────────────

// EnergyLevel classifies the user's energy in a single message.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// Mood classifies the user's emotional state in a single message.
type Mood string

const (
	MoodDistressed Mood = "distressed"
	MoodAnxious    Mood = "anxious"
	MoodNeutral    Mood = "neutral"
	MoodCalm       Mood = "calm"
	MoodPositive   Mood = "positive"
)

// SignalDetector classifies a single message into energy, mood, topics and
// a heavy-topic flag. All methods are deterministic, side-effect free and
// safe for concurrent use.
type SignalDetector struct {
	heavyKeywords []string
	heavyPatterns []*regexp.Regexp

	lowEnergyWords  []string
	highEnergyWords []string

	anxietyWords  []string
	positiveWords []string
	calmWords     []string

	topicLexicon map[string]string
}

// NewSignalDetector creates a detector with the built-in lexicons.
func NewSignalDetector() *SignalDetector {
	return &SignalDetector{
		heavyKeywords: []string{
			"suicide", "kill myself", "self harm", "self-harm", "hurt myself",
			"end it all", "no reason to live", "want to die", "hopeless",
			"worthless", "panic attack", "can't breathe",
		},
		heavyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)want(s)? to disappear`),
			regexp.MustCompile(`(?i)can'?t take (this|it) anymore`),
			regexp.MustCompile(`(?i)what'?s the point of (anything|living)`),
			regexp.MustCompile(`(?i)nobody would (care|notice|miss me)`),
			regexp.MustCompile(`(?i)better off without me`),
		},
		lowEnergyWords: []string{
			"tired", "exhausted", "drained", "whatever", "meh", "sleepy",
			"worn out", "numb", "blah", "idk",
		},
		highEnergyWords: []string{
			"excited", "amazing", "awesome", "can't wait", "pumped",
			"so good", "incredible", "yes!", "finally", "love",
		},
		anxietyWords: []string{
			"anxious", "nervous", "worried", "stressed", "overwhelmed",
			"panicking", "freaking out", "scared", "on edge", "racing",
		},
		positiveWords: []string{
			"happy", "great", "good news", "excited", "proud", "grateful",
			"wonderful", "amazing", "better today",
		},
		calmWords: []string{
			"calm", "peaceful", "relaxed", "okay today", "settled",
			"content", "at ease",
		},
		topicLexicon: map[string]string{
			"boss": "work", "job": "work", "coworker": "work", "work": "work",
			"deadline": "work", "interview": "work", "meeting": "work",
			"mom": "family", "dad": "family", "sister": "family",
			"brother": "family", "parents": "family", "family": "family",
			"boyfriend": "relationship", "girlfriend": "relationship",
			"partner": "relationship", "breakup": "relationship",
			"dating": "relationship", "ex ": "relationship",
			"sleep": "sleep", "insomnia": "sleep", "tired": "sleep",
			"nightmare": "sleep",
			"doctor": "health", "sick": "health", "pain": "health",
			"therapy": "health", "medication": "health",
			"money": "finances", "rent": "finances", "debt": "finances",
			"bills": "finances",
			"school": "school", "exam": "school", "class": "school",
			"homework": "school",
			"lonely": "loneliness", "alone": "loneliness",
			"friend": "friends", "friends": "friends",
		},
	}
}

// DetectHeavyTopic returns true if the message contains crisis or distress
// content. Boolean gate, no partial scoring.
func (d *SignalDetector) DetectHeavyTopic(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range d.heavyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, p := range d.heavyPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}

// DetectEnergy classifies the message energy as low, medium or high.
// Very short messages with no exclamation read as low; otherwise the
// low-signal count (lexicon hits + ellipses) is compared against the
// high-signal count (lexicon hits + exclamation marks) and a margin of
// more than 1 decides the class.
func (d *SignalDetector) DetectEnergy(message string) EnergyLevel {
	lower := strings.ToLower(message)
	words := strings.Fields(message)

	if len(words) <= 3 && !strings.Contains(message, "!") {
		return EnergyLow
	}

	lowScore := strings.Count(lower, "...")
	for _, kw := range d.lowEnergyWords {
		if strings.Contains(lower, kw) {
			lowScore++
		}
	}

	highScore := strings.Count(message, "!")
	for _, kw := range d.highEnergyWords {
		if strings.Contains(lower, kw) {
			highScore++
		}
	}

	switch {
	case highScore-lowScore > 1:
		return EnergyHigh
	case lowScore-highScore > 1:
		return EnergyLow
	default:
		return EnergyMedium
	}
}

// DetectMood classifies the message mood. Priority order: heavy topic wins,
// then anxiety, positive and calm lexicons, defaulting to neutral.
func (d *SignalDetector) DetectMood(message string) Mood {
	if d.DetectHeavyTopic(message) {
		return MoodDistressed
	}
	lower := strings.ToLower(message)
	for _, kw := range d.anxietyWords {
		if strings.Contains(lower, kw) {
			return MoodAnxious
		}
	}
	for _, kw := range d.positiveWords {
		if strings.Contains(lower, kw) {
			return MoodPositive
		}
	}
	for _, kw := range d.calmWords {
		if strings.Contains(lower, kw) {
			return MoodCalm
		}
	}
	return MoodNeutral
}

// ExtractTopics maps message keywords to topic tags, deduplicated.
// Keywords are scanned in sorted order so identical input always yields
// the same slice.
func (d *SignalDetector) ExtractTopics(message string) []string {
	lower := strings.ToLower(message)
	keywords := make([]string, 0, len(d.topicLexicon))
	for kw := range d.topicLexicon {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	seen := make(map[string]bool)
	var topics []string
	for _, kw := range keywords {
		tag := d.topicLexicon[kw]
		if strings.Contains(lower, kw) && !seen[tag] {
			seen[tag] = true
			topics = append(topics, tag)
		}
	}
	return topics
}
