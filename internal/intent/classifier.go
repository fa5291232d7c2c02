package intent

import (
	"math"
	"strings"
)

// Intent labels in resolution (tie-break) order.
const (
	Appointment      = "APPOINTMENT"
	Enquiry          = "ENQUIRY"
	GeneralEnquiry   = "GENERAL_ENQUIRY"
	FollowUp         = "FOLLOW_UP"
	MedicalDictation = "MEDICAL_DICTATION"
	NotInterested    = "NOT_INTERESTED"
)

// intents preserves enumeration order for deterministic tie-breaking.
var intents = []string{
	Appointment,
	Enquiry,
	GeneralEnquiry,
	FollowUp,
	MedicalDictation,
	NotInterested,
}

// hotIntents are the labels that qualify a call as a hot lead.
var hotIntents = map[string]bool{
	Appointment: true,
	Enquiry:     true,
	FollowUp:    true,
}

// patterns maps each intent to its literal phrase table. Matching is plain
// substring containment on normalized text; no stemming or fuzzy matching.
var patterns = map[string][]string{
	Appointment: {
		"book an appointment",
		"schedule an appointment",
		"want to see the doctor",
		"consult the doctor",
		"appointment availability",
		"when can i see",
		"available slots",
		"book a slot",
	},
	Enquiry: {
		"enquire about appointment",
		"appointment enquiry",
		"when is doctor available",
		"doctor availability",
		"consultation timing",
		"appointment timing",
		"available for consultation",
		"doctor available",
		"consultation availability",
	},
	GeneralEnquiry: {
		"enquire about",
		"want to know",
		"need information",
		"can you tell me",
		"looking for details",
		"what is",
		"how much",
		"general information",
	},
	FollowUp: {
		"follow up",
		"checking again",
		"previous consultation",
		"earlier appointment",
	},
	MedicalDictation: {
		"dear doctor",
		"referral letter",
		"date of birth",
		"clinical examination",
		"on examination",
		"diagnosis",
		"treatment plan",
	},
	NotInterested: {
		"not interested",
		"don't want",
		"stop calling",
		"no longer needed",
	},
}

// Classification is the result of classifying a transcript.
type Classification struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Scores     map[string]int `json:"scores"`
	IsHot      bool           `json:"is_hot"`
}

// Classify scores a free-text transcript against the phrase tables and
// resolves a single intent. It is pure and deterministic.
func Classify(text string) Classification {
	normalized := normalize(text)
	scores := scoreIntents(normalized)
	resolved := resolve(scores)

	confidence := math.Min(0.95, 0.5+0.15*float64(scores[resolved]))
	confidence = math.Round(confidence*100) / 100

	return Classification{
		Intent:     resolved,
		Confidence: confidence,
		Scores:     scores,
		IsHot:      hotIntents[resolved],
	}
}

func normalize(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(strings.ToLower(text)), " "))
}

func scoreIntents(text string) map[string]int {
	scores := make(map[string]int, len(intents))
	for _, intent := range intents {
		scores[intent] = 0
		for _, phrase := range patterns[intent] {
			if strings.Contains(text, phrase) {
				scores[intent]++
			}
		}
	}
	return scores
}

func resolve(scores map[string]int) string {
	// Clinical dictation must not be misrouted as a lead.
	if scores[MedicalDictation] >= 2 {
		return MedicalDictation
	}
	// Opt-out always wins.
	if scores[NotInterested] >= 1 {
		return NotInterested
	}

	best := intents[0]
	for _, intent := range intents[1:] {
		if scores[intent] > scores[best] {
			best = intent
		}
	}
	if scores[best] == 0 {
		return GeneralEnquiry
	}
	return best
}
