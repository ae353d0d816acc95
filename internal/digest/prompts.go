package digest

import (
	"strings"
	"text/template"
)

var topicsPrompt = template.Must(template.New("topics").Parse(`
You are an expert content analyzer. Given a YouTube video transcript, identify at most {{.MaxTopics}} most interesting topics discussed and generate at most 3 most thought-provoking questions for each topic.
These questions don't need to be directly asked in the video. It's good to have clarification questions.

VIDEO TITLE: {{.Title}}

TRANSCRIPT:
{{.Transcript}}

Format your response in YAML:

` + "```yaml" + `
topics:
  - title: |
        First Topic Title
    questions:
      - |
        Question 1 about first topic?
      - |
        Question 2 ...
  - title: |
        Second Topic Title
    questions:
        ...
` + "```\n"))

var contentPrompt = template.Must(template.New("content").Parse(`You are an expert content processor. Given a topic and questions from a YouTube video, rephrase the topic title and questions to be clearer and more engaging, and provide concise, informative answers.

TOPIC: {{.Title}}

QUESTIONS:
{{range .Questions}}- {{.}}
{{end}}
TRANSCRIPT EXCERPT:
{{.Transcript}}

For topic title and questions:
1. Keep them engaging and clear, but concise
2. Make them accessible to a general adult audience

For your answers:
1. Format them using HTML with <b> and <i> tags for highlighting.
2. Prefer lists with <ol> and <li> tags. Ideally, <li> followed by <b> for the key points.
3. Define technical terms clearly but don't oversimplify (e.g., "<b>Quantum computing</b> uses quantum mechanical phenomena to process information exponentially faster than classical computers")
4. Provide comprehensive yet concise explanations suitable for an educated audience
5. Focus on clarity and accuracy rather than simplification

Format your response in YAML:

` + "```yaml" + `
rephrased_title: |
    Clear and engaging topic title
questions:
  - original: |
        {{.First}}
    rephrased: |
        Clear, engaging question
    answer: |
        Comprehensive, well-structured answer with proper technical depth
  - original: |
        {{.Second}}
    ...
` + "```\n"))

func renderTopicsPrompt(title, transcript string, maxTopics int) (string, error) {
	var b strings.Builder
	err := topicsPrompt.Execute(&b, struct {
		Title      string
		Transcript string
		MaxTopics  int
	}{title, transcript, maxTopics})
	return b.String(), err
}

func renderContentPrompt(topic Topic, transcript string) (string, error) {
	questions := make([]string, len(topic.Questions))
	for i, q := range topic.Questions {
		questions[i] = q.Original
	}
	at := func(i int) string {
		if i < len(questions) {
			return questions[i]
		}
		return ""
	}

	var b strings.Builder
	err := contentPrompt.Execute(&b, struct {
		Title         string
		Questions     []string
		Transcript    string
		First, Second string
	}{topic.Title, questions, transcript, at(0), at(1)})
	return b.String(), err
}
