package models

type CodeSnippet struct {
	Lang     string `json:"lang"`
	LangSlug string `json:"langSlug"`
	Code     string `json:"code"`
}

type TopicTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// QuestionDetail is the problem metadata returned by the GraphQL endpoint.
type QuestionDetail struct {
	QuestionID       string        `json:"questionId"`
	Title            string        `json:"title"`
	Difficulty       string        `json:"difficulty"`
	Content          string        `json:"content"`
	ExampleTestcases string        `json:"exampleTestcases"`
	CodeSnippets     []CodeSnippet `json:"codeSnippets"`
	TopicTags        []TopicTag    `json:"topicTags"`
	Hints            []string      `json:"hints"`
}

type ProblemDetail struct {
	Question  *QuestionDetail `json:"question"`
	TestCases []TestCase      `json:"testCases"`
}
