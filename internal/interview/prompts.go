package interview

import (
	"fmt"
	"strings"
)

const personaDirective = "You are an AI interviewer with the following persona:\n\n%s\n\nStrictly adhere to this persona for the entire interview. Do not break character."

// StartDirective is the synthetic user turn seeded after the persona.
const StartDirective = "Start the interview by greeting the interviewee and asking the first question based on your persona."

const beginInstruction = "\nBegin the interview. You are the interviewer and I am the interviewee. Please be very concise as the interviewer in your answers but do not skip the formalities. Use this opportunity to pick up on interviewee social cues. Keep in mind time is limited and make this interview %s"

const (
	detectorSystem = "You are a helpful assistant. Your task is to determine if a statement indicates an explicit intent to end a conversation or conclude an interview. Respond ONLY with 'yes' or 'no'."
	detectorPrompt = "Given this statement: '%s', does it convey an explicit intent to end the conversation or explicitly conclude the interview? Respond ONLY with 'yes' or 'no' and nothing else."
)

const summaryTemplate = `Given this interview transcript:

%s

Please perform two tasks:

1.  **Generate a detailed manuscript:** Focus on key points of the interview, including the answers to the questions provided by the interviewer.
2.  **Evaluate and rate each significant interviewee answer:** Use the following criteria for your rating. Assign one of the following ratings: 'Excellent', 'Good', 'Satisfactory', 'Needs Improvement', or 'Poor'. Present your evaluation clearly, referencing specific interviewee responses from the transcript.

Here are the evaluation criteria:

%s
`

// ComposePersona joins persona text with the begin instruction for the requested difficulty.
func ComposePersona(personaText, difficulty string) string {
	difficulty = strings.TrimSpace(difficulty)
	if difficulty == "" {
		difficulty = "moderate"
	}
	return strings.TrimRight(personaText, "\n") + fmt.Sprintf(beginInstruction, difficulty)
}
