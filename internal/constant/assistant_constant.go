package constant

const (
	// Synthesized assistant messages. The engine authors every other reply;
	// these cover the turns the controller itself must produce.
	AssistantWelcomeTemplate = `I've loaded your PDF "%s". What would you like me to do with it? I can help you compress, convert to Word, extract pages, and more!`
	AssistantDispatchFailed  = "Sorry, I encountered an error processing your request. Please try again."
	AssistantMergeFailed     = "Failed to merge PDFs. Please try again."
	AssistantMergeCancelled  = "Merge cancelled. What would you like to do instead?"
)
