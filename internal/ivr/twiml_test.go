package ivr

import (
	"strings"
	"testing"
)

func TestRender_PreservesVerbOrder(t *testing.T) {
	doc := &Response{
		Verbs: []any{
			say("first"),
			Record{Timeout: 1, MaxLength: 15, PlayBeep: true, Action: "/next", Method: "POST"},
			Hangup{},
		},
	}

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	sayIdx := strings.Index(out, "<Say")
	recordIdx := strings.Index(out, "<Record")
	hangupIdx := strings.Index(out, "<Hangup")
	if sayIdx == -1 || recordIdx == -1 || hangupIdx == -1 {
		t.Fatalf("missing verbs in output: %s", out)
	}
	if !(sayIdx < recordIdx && recordIdx < hangupIdx) {
		t.Errorf("verbs out of order: %s", out)
	}
}

func TestRender_IncludesXMLDeclaration(t *testing.T) {
	doc := &Response{Verbs: []any{Hangup{}}}
	out, err := doc.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Errorf("expected XML declaration prefix, got %s", out)
	}
}

func TestSay_CarriesVoiceAndLanguage(t *testing.T) {
	doc := &Response{Verbs: []any{say("hello")}}
	out, err := doc.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `voice="Polly.Aditi-Neural"`) {
		t.Errorf("missing voice attribute: %s", out)
	}
	if !strings.Contains(out, `language="en-IN"`) {
		t.Errorf("missing language attribute: %s", out)
	}
}

func TestGather_NestsPrompt(t *testing.T) {
	doc := &Response{
		Verbs: []any{
			Gather{
				Input:         "speech",
				Action:        "/ivr/availability",
				Method:        "POST",
				Timeout:       GatherTimeout,
				SpeechTimeout: "auto",
				Say:           &Say{Voice: Voice, Text: "Please say yes or no."},
			},
		},
	}
	out, err := doc.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	gatherOpen := strings.Index(out, "<Gather")
	gatherClose := strings.Index(out, "</Gather>")
	sayIdx := strings.Index(out, "<Say")
	if gatherOpen == -1 || gatherClose == -1 || sayIdx == -1 {
		t.Fatalf("malformed gather output: %s", out)
	}
	if !(gatherOpen < sayIdx && sayIdx < gatherClose) {
		t.Errorf("prompt not nested inside gather: %s", out)
	}
	if !strings.Contains(out, `speechTimeout="auto"`) {
		t.Errorf("missing speechTimeout attribute: %s", out)
	}
}
