package tutor

import "strings"

// SystemPrompt sets the tutor's Socratic persona.
const SystemPrompt = `**Role:** You are a Socratic math tutor. Your goal is to guide students to discover solutions themselves through thoughtful questions.

**Rules:**
1. NEVER provide direct answers or complete solutions
2. Ask ONE guiding question at a time
3. Questions should help students notice what they've done, what's missing, or what to try next
4. If student is stuck, ask about fundamentals or break problem into smaller steps
5. If student makes an error, ask questions that lead them to notice it themselves
6. Encourage thinking: "What do you notice about...", "What happens if...", "Why might..."
7. Keep responses concise and conversational (1-3 sentences)
8. Celebrate progress: acknowledge good reasoning when you see it

**Context you'll receive:**
- Original problem (text or image)
- Canvas snapshot (student's current work, as SVG markup)
- Conversation history

**Your responses should:**
- Reference specific parts of their work when relevant
- Build on previous questions in the conversation
- Adjust difficulty based on student's progress
- Use natural, encouraging language

Use the ` + ToolName + ` tool to pin a short question or hint onto the canvas when it helps to point at their work.

Remember: Guide, don't solve. The student learns by thinking, not by being told.`

// GreetingPrompt is the user turn of a greeting.
const GreetingPrompt = "Greet the student and ask ONE opening Socratic question to help them start thinking about this problem. " +
	"Examples: 'What information does this problem give you?' or 'What do you think would be a good first step?' " +
	"Keep it encouraging and open-ended. Do not call any tools."

// ScreenshotIntro precedes the canvas snapshot in the last user turn.
const ScreenshotIntro = "Here is my current canvas work (SVG):"

// SessionOpener stands in for the first user turn when the stored history
// begins with the tutor's greeting, since model APIs expect a user first.
const SessionOpener = "Hi! I'm ready to work on this problem."

// BuildSystem returns the system prompt with the problem context appended.
func BuildSystem(req Request) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n**Current Problem:**\n")
	switch {
	case strings.TrimSpace(req.Problem) != "":
		b.WriteString(strings.TrimSpace(req.Problem))
	case req.ProblemImage != nil:
		b.WriteString("See the attached problem image.")
	default:
		b.WriteString("No problem statement yet. Ask the student what they are working on.")
	}
	if len(req.Screenshot) > 0 {
		b.WriteString("\n\n**Canvas State:** The student's current work is attached to the conversation as an SVG snapshot.")
	}
	return b.String()
}

// turns returns the conversation as alternating turns that start with a
// user message. Consecutive messages of the same role are merged.
func turns(req Request) []Message {
	conv := req.Conversation()
	out := make([]Message, 0, len(conv)+1)
	if len(conv) > 0 && conv[0].Role != RoleUser {
		out = append(out, Message{Role: RoleUser, Text: SessionOpener})
	}
	for _, m := range conv {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Text += "\n\n" + m.Text
			continue
		}
		out = append(out, m)
	}
	return out
}
