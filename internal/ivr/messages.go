package ivr

// Voice menu configuration. The gather timeout and recording bound are part
// of the call-flow contract with the telephony provider.
const (
	Voice              = "Polly.Aditi-Neural"
	Language           = "en-IN"
	GatherTimeout      = 5
	RecordingMaxLength = 15
)

// Scripted announcements, one per call-flow stage.
const (
	greetingMessage = "Hello, this is MedAgg Healthcare calling. " +
		"We are reaching out to assist you with your recent enquiry. " +
		"May I know if you are available to speak right now?"

	availabilityPrompt = "Please say yes or no."

	notAvailableMessage = "No problem. Thank you for your time. " +
		"We will discuss this at a later time. Take care."

	availableMessage = "Thank you. Please briefly tell us your concern. " +
		"This may include health issues, appointment related questions, " +
		"or general consultation enquiries. You may start speaking after the beep."

	thankYouMessage = "Thank you for sharing your concern. " +
		"Our healthcare team will review it and get back to you shortly. " +
		"Have a good day."

	noResponseMessage = "I did not receive a response. " +
		"We will connect with you later. Thank you and take care."
)
