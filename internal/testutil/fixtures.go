package testutil

import (
	"fmt"
	"strings"

	"github.com/agentstation/pocketflow/internal/youtube"
)

// SampleVideo returns a short video with a transcript.
func SampleVideo() *youtube.Video {
	return &youtube.Video{
		ID:           "dQw4w9WgXcQ",
		URL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title:        "How Go Schedules Goroutines",
		ThumbnailURL: "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		Transcript:   "Today we look at the Go scheduler. Goroutines are multiplexed onto threads. Channels synchronize them.",
	}
}

// TopicsReply formats an analysis reply the way a model would, with block
// scalars inside a ```yaml fence. Each topic is a title followed by its
// questions.
func TopicsReply(topics ...[]string) string {
	var b strings.Builder
	b.WriteString("Here are the topics:\n\n```yaml\ntopics:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "  - title: |\n        %s\n    questions:\n", t[0])
		for _, q := range t[1:] {
			fmt.Fprintf(&b, "      - |\n        %s\n", q)
		}
	}
	b.WriteString("```\n")
	return b.String()
}

// QA is one processed question in a ContentReply.
type QA struct {
	Original, Rephrased, Answer string
}

// ContentReply formats a simplification reply for one topic.
func ContentReply(rephrasedTitle string, qas ...QA) string {
	var b strings.Builder
	b.WriteString("```yaml\n")
	if rephrasedTitle != "" {
		fmt.Fprintf(&b, "rephrased_title: |\n    %s\n", rephrasedTitle)
	}
	b.WriteString("questions:\n")
	for _, qa := range qas {
		fmt.Fprintf(&b, "  - original: |\n        %s\n", qa.Original)
		if qa.Rephrased != "" {
			fmt.Fprintf(&b, "    rephrased: |\n        %s\n", qa.Rephrased)
		}
		if qa.Answer != "" {
			fmt.Fprintf(&b, "    answer: |\n        %s\n", qa.Answer)
		}
	}
	b.WriteString("```")
	return b.String()
}
