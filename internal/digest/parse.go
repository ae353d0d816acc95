package digest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// ErrEmptyDocument is returned when a model reply holds no YAML document.
var ErrEmptyDocument = errors.New("model reply contains no yaml document")

// ExtractYAML returns the contents of the first ```yaml fence in text, or
// the whole text when there is none.
func ExtractYAML(text string) string {
	const fence = "```yaml"
	start := strings.Index(text, fence)
	if start < 0 {
		return strings.TrimSpace(text)
	}
	body := text[start+len(fence):]
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

var (
	topicsSchema = gojsonschema.NewStringLoader(`{
  "type": "object",
  "properties": {
    "topics": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string"},
          "questions": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    }
  }
}`)

	contentSchema = gojsonschema.NewStringLoader(`{
  "type": "object",
  "properties": {
    "rephrased_title": {"type": ["string", "null"]},
    "questions": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "original": {"type": "string"},
          "rephrased": {"type": ["string", "null"]},
          "answer": {"type": ["string", "null"]}
        }
      }
    }
  }
}`)
)

// topicsReply is the analysis model's answer.
type topicsReply struct {
	Topics []struct {
		Title     string   `yaml:"title"`
		Questions []string `yaml:"questions"`
	} `yaml:"topics"`
}

// contentReply is the simplification model's answer for one topic.
type contentReply struct {
	RephrasedTitle string `yaml:"rephrased_title"`
	Questions      []struct {
		Original  string `yaml:"original"`
		Rephrased string `yaml:"rephrased"`
		Answer    string `yaml:"answer"`
	} `yaml:"questions"`
}

// decodeReply extracts the YAML block from reply, checks it against schema
// and decodes it into out.
func decodeReply(reply string, schema gojsonschema.JSONLoader, out any) error {
	text := ExtractYAML(reply)
	if text == "" {
		return ErrEmptyDocument
	}

	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return ErrEmptyDocument
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate reply: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("reply does not match schema: %s", strings.Join(msgs, "; "))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "yaml",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
