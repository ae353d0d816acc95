package digest

import (
	"errors"
	"testing"
)

func TestExtractYAML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "Sure!\n```yaml\na: 1\n```\nBye", "a: 1"},
		{"first fence wins", "```yaml\na: 1\n```\n```yaml\nb: 2\n```", "a: 1"},
		{"unterminated fence", "```yaml\na: 1\n", "a: 1"},
		{"no fence", "  a: 1  ", "a: 1"},
		{"other fence is not yaml", "```json\n{}\n```", "```json\n{}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractYAML(tt.in); got != tt.want {
				t.Errorf("ExtractYAML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeTopicsReply(t *testing.T) {
	reply := "```yaml\ntopics:\n  - title: |\n        Scheduling\n    questions:\n      - |\n        What is M:N?\n      - Why threads?\n  - title: Channels\n```"

	var got topicsReply
	if err := decodeReply(reply, topicsSchema, &got); err != nil {
		t.Fatalf("decodeReply() error = %v", err)
	}
	if len(got.Topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(got.Topics))
	}
	if got.Topics[0].Title != "Scheduling\n" || len(got.Topics[0].Questions) != 2 {
		t.Errorf("topic 0 = %+v", got.Topics[0])
	}
	if got.Topics[0].Questions[0] != "What is M:N?\n" {
		t.Errorf("question = %q", got.Topics[0].Questions[0])
	}
	if got.Topics[1].Title != "Channels" || len(got.Topics[1].Questions) != 0 {
		t.Errorf("topic 1 = %+v", got.Topics[1])
	}
}

func TestDecodeReplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty document", "```yaml\n```"},
		{"malformed yaml", "```yaml\ntopics: [unclosed\n```"},
		{"scalar document", "just some prose"},
		{"topic without title", "topics:\n  - questions: [a]"},
		{"questions not a list", "topics:\n  - title: x\n    questions: nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got topicsReply
			if err := decodeReply(tt.reply, topicsSchema, &got); err == nil {
				t.Errorf("decodeReply() succeeded with %+v", got)
			}
		})
	}

	t.Run("empty document sentinel", func(t *testing.T) {
		var got contentReply
		if err := decodeReply("", contentSchema, &got); !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("decodeReply() error = %v, want %v", err, ErrEmptyDocument)
		}
	})
}

func TestDecodeContentReply(t *testing.T) {
	reply := "```yaml\nrephrased_title: Clear title\nquestions:\n  - original: What is M:N?\n    rephrased: How are goroutines mapped?\n    answer: |\n      <b>M:N</b> scheduling.\n  - original: Why threads?\n```"

	var got contentReply
	if err := decodeReply(reply, contentSchema, &got); err != nil {
		t.Fatalf("decodeReply() error = %v", err)
	}
	if got.RephrasedTitle != "Clear title" || len(got.Questions) != 2 {
		t.Fatalf("reply = %+v", got)
	}
	if got.Questions[0].Answer != "<b>M:N</b> scheduling.\n" {
		t.Errorf("answer = %q", got.Questions[0].Answer)
	}
	if got.Questions[1].Rephrased != "" || got.Questions[1].Answer != "" {
		t.Errorf("missing fields should decode empty: %+v", got.Questions[1])
	}
}
