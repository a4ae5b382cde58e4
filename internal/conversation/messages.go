package conversation

// Fixed conversational copy for the check-in flow. The wording here is
// user-facing; tests assert against fragments of it.

const timeCheckMessage = "Hi! It's time for your check-in. Do you have a few minutes to chat? 💬"

const pauseAckMessage = "No problem at all — we can pick this up whenever you're ready. Just open the chat when you have a moment. 💛"

var introMessages = []string{
	"Hi! I'm your check-in companion. Every so often I'll ask how things are going for you and your baby. 🌸",
	"There are no right or wrong answers — this is just a way for your care team to understand how to support you best.",
	"You can pause anytime by saying \"not now\", and we'll pick up right where we left off. Ready? Here's the first question.",
}

const closingMessage = "That's everything — thank you so much for taking the time to check in today. Your care team will review your answers. Take good care of yourself! 💛"

const transitionClarifyMessage = "Sorry if that was unclear! We just finished a section. Say \"continue\" to move on to the next part (%s), or \"pause\" to take a break."

const lastSectionPrompt = "That was the last section! Say \"continue\" whenever you're ready to wrap up, or \"pause\" if you'd like to finish later."

const transitionPrompt = "Thanks — that's everything for this section. Next up: %s. Would you like to keep going, or take a break?"

const transitionQuestionText = "Would you like to continue with the next section, or pause for now?"
