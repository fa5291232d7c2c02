package ivr

import (
	"encoding/xml"
	"fmt"
)

// TwiML verb structs. Each carries its own XMLName so a Response can hold an
// ordered mix of verbs and marshal them in document order.

// Response is the root TwiML document returned to the provider.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Say speaks a message with the configured voice.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects speech input and posts the result to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Say           *Say
}

// Record opens a bounded voice recording and posts its URL to Action.
type Record struct {
	XMLName   xml.Name `xml:"Record"`
	Timeout   int      `xml:"timeout,attr"`
	MaxLength int      `xml:"maxLength,attr"`
	PlayBeep  bool     `xml:"playBeep,attr"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func say(text string) Say {
	return Say{Voice: Voice, Language: Language, Text: text}
}

// Render serializes the document with the XML declaration the provider expects.
func (r *Response) Render() (string, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("ivr: marshal twiml: %w", err)
	}
	return xml.Header + string(body), nil
}
