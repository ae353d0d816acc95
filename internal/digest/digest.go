// Package digest turns a YouTube video into an HTML page of topics,
// questions and answers.
//
// The pipeline is a pocketflow graph of four nodes over *State:
//
//	process_url -> extract_topics -> process_content -> generate_html
package digest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agentstation/pocketflow"
	"github.com/agentstation/pocketflow/internal/llm"
	"github.com/agentstation/pocketflow/internal/report"
	"github.com/agentstation/pocketflow/internal/youtube"
)

// Node names.
const (
	NodeProcessURL     = "process_url"
	NodeExtractTopics  = "extract_topics"
	NodeProcessContent = "process_content"
	NodeGenerateHTML   = "generate_html"
)

// ErrNoURL is returned when the flow starts without a video URL.
var ErrNoURL = errors.New("no youtube url provided")

// State is the shared state of a digest run.
type State struct {
	URL        string
	Video      *youtube.Video
	Topics     []Topic
	HTML       string
	OutputFile string
}

// Topic groups the questions generated for one subject of the video.
type Topic struct {
	Title          string
	RephrasedTitle string
	Questions      []Question
}

// Question is a generated question and, once processed, its answer.
type Question struct {
	Original  string
	Rephrased string
	Answer    string
}

// Transcripts fetches a video.
type Transcripts interface {
	Fetch(ctx context.Context, url string) (*youtube.Video, error)
}

// Deps holds the collaborators and settings of the pipeline.
type Deps struct {
	Transcripts Transcripts
	LLM         llm.Client
	Provider    string // shown in the page title and file name
	OutputDir   string
	MaxTopics   int
	MaxAttempts int
	Wait        time.Duration
	Logger      pocketflow.Logger
}

func (d *Deps) defaults() {
	if d.OutputDir == "" {
		d.OutputDir = "output"
	}
	if d.MaxTopics <= 0 {
		d.MaxTopics = 5
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = 2
	}
	if d.Logger == nil {
		d.Logger = pocketflow.NopLogger{}
	}
}

// NewFlow wires the four nodes into a flow. The flow's logger is d.Logger
// unless opts override it.
func NewFlow(d Deps, opts ...pocketflow.FlowOption[*State]) *pocketflow.Flow[*State] {
	d.defaults()

	processURL := NewProcessURL(d)
	processURL.
		Then(NewExtractTopics(d)).
		Then(NewProcessContent(d)).
		Then(NewGenerateHTML(d))

	opts = append([]pocketflow.FlowOption[*State]{
		pocketflow.WithName[*State]("youtube-digest"),
		pocketflow.WithLogger[*State](d.Logger),
	}, opts...)
	return pocketflow.NewFlow(processURL, opts...)
}

func nodeOptions(d Deps, opts ...pocketflow.Option) []pocketflow.Option {
	return append([]pocketflow.Option{pocketflow.WithRetry(d.MaxAttempts, d.Wait)}, opts...)
}

// NewProcessURL fetches the video named by State.URL.
func NewProcessURL(d Deps) pocketflow.Node[*State] {
	d.defaults()
	return pocketflow.NewNode(NodeProcessURL, pocketflow.Steps[*State, string, *youtube.Video]{
		Prep: func(ctx context.Context, s *State) (string, error) {
			return strings.TrimSpace(s.URL), nil
		},
		Exec: func(ctx context.Context, url string) (*youtube.Video, error) {
			if url == "" {
				return nil, ErrNoURL
			}
			d.Logger.Info(ctx, "processing youtube url", "url", url)
			return d.Transcripts.Fetch(ctx, url)
		},
		Post: func(ctx context.Context, s *State, _ string, v *youtube.Video) (pocketflow.Action, error) {
			s.Video = v
			d.Logger.Info(ctx, "video fetched", "title", v.Title, "transcript_length", len(v.Transcript))
			return pocketflow.ActionDefault, nil
		},
	}, nodeOptions(d, pocketflow.WithActions(pocketflow.ActionDefault))...)
}

// NewExtractTopics asks the analysis model for topics and questions.
func NewExtractTopics(d Deps) pocketflow.Node[*State] {
	d.defaults()
	return pocketflow.NewNode(NodeExtractTopics, pocketflow.Steps[*State, youtube.Video, []Topic]{
		Prep: func(ctx context.Context, s *State) (youtube.Video, error) {
			if s.Video == nil {
				return youtube.Video{}, nil
			}
			return *s.Video, nil
		},
		Exec: func(ctx context.Context, v youtube.Video) ([]Topic, error) {
			prompt, err := renderTopicsPrompt(v.Title, v.Transcript, d.MaxTopics)
			if err != nil {
				return nil, err
			}
			reply, err := d.LLM.Complete(ctx, prompt, llm.TaskAnalysis)
			if err != nil {
				return nil, err
			}

			var parsed topicsReply
			if err := decodeReply(reply, topicsSchema, &parsed); err != nil {
				return nil, err
			}

			raw := parsed.Topics
			if len(raw) > d.MaxTopics {
				raw = raw[:d.MaxTopics]
			}
			topics := make([]Topic, 0, len(raw))
			for _, t := range raw {
				topic := Topic{Title: strings.TrimSpace(t.Title), Questions: make([]Question, 0, len(t.Questions))}
				for _, q := range t.Questions {
					topic.Questions = append(topic.Questions, Question{Original: strings.TrimSpace(q)})
				}
				topics = append(topics, topic)
			}
			return topics, nil
		},
		Post: func(ctx context.Context, s *State, _ youtube.Video, topics []Topic) (pocketflow.Action, error) {
			s.Topics = topics
			total := 0
			for _, t := range topics {
				total += len(t.Questions)
			}
			d.Logger.Info(ctx, "extracted topics", "topics", len(topics), "questions", total)
			return pocketflow.ActionDefault, nil
		},
	}, nodeOptions(d, pocketflow.WithActions(pocketflow.ActionDefault))...)
}

// topicWork is one item of the process_content batch.
type topicWork struct {
	Topic      Topic
	Transcript string
}

// processedTopic is the model's rewrite of one topic, keyed by the
// original title and question texts.
type processedTopic struct {
	Title          string
	RephrasedTitle string
	Questions      map[string]Question
}

// NewProcessContent rephrases and answers each topic's questions.
func NewProcessContent(d Deps) pocketflow.Node[*State] {
	d.defaults()
	return pocketflow.NewBatchNode(NodeProcessContent, pocketflow.BatchSteps[*State, topicWork, processedTopic]{
		Prep: func(ctx context.Context, s *State) ([]topicWork, error) {
			transcript := ""
			if s.Video != nil {
				transcript = s.Video.Transcript
			}
			items := make([]topicWork, len(s.Topics))
			for i, t := range s.Topics {
				items[i] = topicWork{Topic: t, Transcript: transcript}
			}
			return items, nil
		},
		Exec: func(ctx context.Context, w topicWork) (processedTopic, error) {
			prompt, err := renderContentPrompt(w.Topic, w.Transcript)
			if err != nil {
				return processedTopic{}, err
			}
			reply, err := d.LLM.Complete(ctx, prompt, llm.TaskSimplification)
			if err != nil {
				return processedTopic{}, err
			}

			var parsed contentReply
			if err := decodeReply(reply, contentSchema, &parsed); err != nil {
				return processedTopic{}, err
			}

			out := processedTopic{
				Title:          w.Topic.Title,
				RephrasedTitle: strings.TrimSpace(parsed.RephrasedTitle),
				Questions:      make(map[string]Question, len(parsed.Questions)),
			}
			if out.RephrasedTitle == "" {
				out.RephrasedTitle = w.Topic.Title
			}
			for _, q := range parsed.Questions {
				original := strings.TrimSpace(q.Original)
				out.Questions[original] = Question{
					Original:  original,
					Rephrased: strings.TrimSpace(q.Rephrased),
					Answer:    strings.TrimSpace(q.Answer),
				}
			}
			return out, nil
		},
		Post: func(ctx context.Context, s *State, _ []topicWork, results []processedTopic) (pocketflow.Action, error) {
			byTitle := make(map[string]processedTopic, len(results))
			for _, r := range results {
				byTitle[r.Title] = r
			}

			for i := range s.Topics {
				topic := &s.Topics[i]
				processed, ok := byTitle[topic.Title]
				if !ok {
					continue
				}
				topic.RephrasedTitle = processed.RephrasedTitle
				for j := range topic.Questions {
					q := &topic.Questions[j]
					if p, ok := processed.Questions[q.Original]; ok {
						q.Rephrased = p.Rephrased
						if q.Rephrased == "" {
							q.Rephrased = q.Original
						}
						q.Answer = p.Answer
					}
				}
			}

			d.Logger.Info(ctx, "processed topics", "topics", len(results))
			return pocketflow.ActionDefault, nil
		},
	}, nodeOptions(d, pocketflow.WithActions(pocketflow.ActionDefault))...)
}

// Sections converts processed topics into report sections. Topics without
// questions are skipped, and a question is listed only when both its
// label and its answer are non-blank.
func Sections(topics []Topic) []report.Section {
	sections := make([]report.Section, 0, len(topics))
	for _, t := range topics {
		if len(t.Questions) == 0 {
			continue
		}
		title := t.RephrasedTitle
		if title == "" {
			title = t.Title
		}

		var bullets []report.Bullet
		for _, q := range t.Questions {
			label := q.Rephrased
			if strings.TrimSpace(label) == "" {
				label = q.Original
			}
			if strings.TrimSpace(label) != "" && strings.TrimSpace(q.Answer) != "" {
				bullets = append(bullets, report.Bullet{Question: label, Answer: q.Answer})
			}
		}
		if len(bullets) > 0 {
			sections = append(sections, report.Section{Title: title, Bullets: bullets})
		}
	}
	return sections
}

// NewGenerateHTML renders the page and writes it to the output directory.
func NewGenerateHTML(d Deps) pocketflow.Node[*State] {
	d.defaults()
	return pocketflow.NewNode(NodeGenerateHTML, pocketflow.Steps[*State, State, string]{
		Prep: func(ctx context.Context, s *State) (State, error) {
			return *s, nil
		},
		Exec: func(ctx context.Context, s State) (string, error) {
			return report.Render(videoTitle(s.Video, "YouTube Video Summary"), Sections(s.Topics), d.Provider)
		},
		Post: func(ctx context.Context, s *State, prep State, html string) (pocketflow.Action, error) {
			s.HTML = html
			path, err := report.Write(d.OutputDir, videoTitle(prep.Video, "youtube_video"), d.Provider, html)
			if err != nil {
				return "", err
			}
			s.OutputFile = path
			d.Logger.Info(ctx, "generated html output", "path", path)
			return pocketflow.ActionDefault, nil
		},
	}, nodeOptions(d, pocketflow.WithTerminal(pocketflow.ActionDefault))...)
}

func videoTitle(v *youtube.Video, def string) string {
	if v == nil || strings.TrimSpace(v.Title) == "" {
		return def
	}
	return v.Title
}
