package constant

// Answers for intents that never touch external data sources. The LLM
// prompt-assembly layer upstream replaces these with a generated answer;
// they are returned verbatim when the engine runs standalone.
const (
	AnswerEducational = "This question can be answered without live measurements. Ask about a specific city for current readings."
	AnswerSearch      = "Search queries are answered from the knowledge base, not from live monitoring stations."
)
