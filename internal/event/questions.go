package event

// Question is one entry of the fixed questionnaire participants answer
// about the recipient.
type Question struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Helper string `json:"helper,omitempty"`
}

// CoreQuestions is the fixed question set. A participant counts as
// answered once they submit, regardless of how many of these they filled
// in.
var CoreQuestions = []Question{
	{ID: 1, Text: "What has [name] been talking about or obsessing over lately?", Helper: "Think about topics, hobbies, or specific items."},
	{ID: 2, Text: "What's something they keep saying they'll do but haven't yet?", Helper: "A trip? A project? A skill to learn?"},
	{ID: 3, Text: "What's a small thing that makes them unreasonably happy?", Helper: "A specific snack, a type of pen, a sound?"},
	{ID: 4, Text: "What do they complain about?", Helper: "Problems we can solve with a gadget or tool."},
	{ID: 5, Text: "What would they never buy for themselves but secretly want?", Helper: "Something too luxurious or 'silly' to justify."},
	{ID: 6, Text: "Anything else we should know to find the perfect gift?", Helper: "Any clear 'do not buy' list?"},
}
