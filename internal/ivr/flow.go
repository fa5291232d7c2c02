package ivr

import (
	"net/url"
	"strings"
)

// Call-flow stages. Each stage corresponds to one provider webhook; the
// machine holds no state between transitions — everything is reconstructed
// from the callback URL and the call row.
const (
	StageGreeting          = "greeting"
	StageAvailability      = "availability"
	StageRecordingComplete = "record-complete"
)

// notAvailableTokens route the availability answer to the not-available
// branch. Any other answer, including silence, is treated as a yes.
var notAvailableTokens = []string{"no", "not available", "busy"}

// Flow generates the scripted voice-menu document for each call stage.
// The public base URL is fixed at construction so webhook actions never
// depend on request ordering.
type Flow struct {
	baseURL string
}

// NewFlow creates a call flow rooted at the public base URL.
func NewFlow(baseURL string) *Flow {
	return &Flow{baseURL: strings.TrimRight(baseURL, "/")}
}

// Greeting produces the opening announcement plus the availability gather.
// A trailing fallback message covers callers who say nothing.
func (f *Flow) Greeting(callID, healthIssue string) *Response {
	return &Response{
		Verbs: []any{
			say(greetingMessage),
			Gather{
				Input:         "speech",
				Action:        f.stageURL(StageAvailability, callID, healthIssue),
				Method:        "POST",
				Timeout:       GatherTimeout,
				SpeechTimeout: "auto",
				Say:           &Say{Voice: Voice, Language: Language, Text: availabilityPrompt},
			},
			say(noResponseMessage),
			Hangup{},
		},
	}
}

// Availability branches on the caller's transcribed answer. It returns the
// next document and whether the caller declined; persisting the declined
// status is the webhook handler's job.
func (f *Flow) Availability(speechResult, callID, healthIssue string) (*Response, bool) {
	speech := strings.ToLower(speechResult)
	for _, token := range notAvailableTokens {
		if strings.Contains(speech, token) {
			return &Response{
				Verbs: []any{
					say(notAvailableMessage),
					Hangup{},
				},
			}, true
		}
	}

	// Anything else counts as a yes: fail open toward engagement.
	return &Response{
		Verbs: []any{
			say(availableMessage),
			Record{
				Timeout:   1,
				MaxLength: RecordingMaxLength,
				PlayBeep:  true,
				Action:    f.stageURL(StageRecordingComplete, callID, healthIssue),
				Method:    "POST",
			},
		},
	}, false
}

// RecordingComplete closes the call after the concern has been recorded.
func (f *Flow) RecordingComplete() *Response {
	return &Response{
		Verbs: []any{
			say(thankYouMessage),
			Hangup{},
		},
	}
}

// GreetingURL is the voice webhook handed to the provider when the outbound
// call is created.
func (f *Flow) GreetingURL(callID, healthIssue string) string {
	return f.stageURL(StageGreeting, callID, healthIssue)
}

// RecordingStatusURL receives the async recording status callback.
func (f *Flow) RecordingStatusURL(callID string) string {
	params := url.Values{}
	params.Set("callId", callID)
	return f.baseURL + "/ivr/recording-status?" + params.Encode()
}

func (f *Flow) stageURL(stage, callID, healthIssue string) string {
	params := url.Values{}
	params.Set("callId", callID)
	params.Set("healthIssue", healthIssue)
	return f.baseURL + "/ivr/" + stage + "?" + params.Encode()
}
