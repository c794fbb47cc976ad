package dialogue

import "fmt"

// Canned speech output. The voice transport renders these verbatim, so any
// change here is user-visible.
const (
	speechWelcome       = "Welcome to Doc Support. What can I help you with?"
	speechWelcomeAsk    = "You can ask me about the documentation."
	speechHelp          = "You can ask me about the documentation. How can I help?"
	speechFallback      = "Hmm, I'm not sure. You can ask about the documentation. What would you like to do?"
	speechFallbackAsk   = "I didn't catch that. What can I help you with?"
	speechGoodbye       = "Goodbye!"
	speechGoodbyePolite = "Ok. Goodbye!"

	speechTrouble = "I'm having trouble finding information on your question. Please try asking it another way."
	speechNoMatch = "I couldn't find anything matching your question. Please try asking it another way."

	speechAnswerConfirmed = "Great. I can email you the document or you can ask another question. Which would you like?"

	speechNeedPermissions = "Please enable first name and email permissions in the companion app."
	speechPendingConfirm  = "Please check your inbox and confirm your subscription to the topic. " +
		"You will only receive emails when you request them from Doc Support. " +
		"Once you've confirmed, say 'send my email', or come back later and ask your question again."

	speechNothingToEmail = "I don't have a result to email yet. Ask me a question first."
	speechNothingToRead  = "I don't have a document to read from yet. Ask me a question first."

	// Audio cues bracket the excerpt so the listener can tell quoted
	// document text from the assistant's own voice.
	audioCue = `<audio src="soundbank://soundlibrary/musical/amzn_sfx_electronic_beep_03"/>`
)

func speechAskedBefore(lastQuery string) string {
	return fmt.Sprintf("You just asked about %s. What are you looking for now?", lastQuery)
}

func speechFoundAnswer(text string) string {
	return fmt.Sprintf("I found this: %s. Is this what you were looking for?", text)
}

func speechFoundDocument(title string) string {
	return fmt.Sprintf("I found a document titled %s. Is this what you were looking for? "+
		"If you're not sure, you can say 'read me an excerpt'.", title)
}

func speechReadDoc(docText string) string {
	return fmt.Sprintf("Here is an excerpt from the document: %s%s.%s Is this what you were looking for?",
		audioCue, docText, audioCue)
}

func speechEmailSent(lastQuery string) string {
	return fmt.Sprintf("Ok. I'm sending you an email with the documentation about your query, %s. "+
		"Would you like to ask something else?", lastQuery)
}
