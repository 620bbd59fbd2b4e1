package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiGateway implements Gateway using the Google Gemini API.
type GeminiGateway struct {
	apiKey string
	model  string
	policy RefusalPolicy
}

func NewGeminiGateway(apiKey, model string, policy RefusalPolicy) *GeminiGateway {
	if model == "" {
		model = DefaultModel
	}
	if policy == "" {
		policy = RefusalDisclose
	}
	return &GeminiGateway{apiKey: apiKey, model: model, policy: policy}
}

func (g *GeminiGateway) Name() string {
	return fmt.Sprintf("Gemini (%s)", g.model)
}

func (g *GeminiGateway) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: g.apiKey})
}

func (g *GeminiGateway) GeneralStream(ctx context.Context, history []Turn, input string) (Stream, error) {
	return g.stream(ctx, generalSystemInstruction, buildContents(history, input)), nil
}

func (g *GeminiGateway) DocumentStream(ctx context.Context, history []Turn, input string, doc DocumentContext) (Stream, error) {
	system := documentSystemInstruction(doc, g.policy)
	return g.stream(ctx, system, buildContents(history, input)), nil
}

func (g *GeminiGateway) stream(ctx context.Context, system string, contents []*genai.Content) Stream {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		client, err := g.newClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}

		config := &genai.GenerateContentConfig{}
		if system != "" {
			config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}

		for resp, err := range client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				return fmt.Errorf("gemini streaming error: %w", err)
			}
			if text := resp.Text(); text != "" {
				events <- Event{Type: EventTextDelta, Text: text}
			}
		}

		events <- Event{Type: EventDone}
		return nil
	})
}

func (g *GeminiGateway) GroundedSearch(ctx context.Context, history []Turn, input string, url string) (Result, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(groundedSystemInstruction(url), genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, buildContents(history, input), config)
	if err != nil {
		return Result{}, fmt.Errorf("gemini API error: %w", err)
	}

	return Result{
		Text:      resp.Text(),
		Citations: extractCitations(resp),
	}, nil
}

func (g *GeminiGateway) MediaTurn(ctx context.Context, input string, media MediaContext) (Result, error) {
	data, err := decodeDataURL(media.DataURL)
	if err != nil {
		return Result{}, err
	}
	if media.MimeType == "" {
		return Result{}, fmt.Errorf("media payload has no MIME type")
	}

	client, err := g.newClient(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: media.MimeType, Data: data}},
			{Text: input},
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Result{}, fmt.Errorf("gemini API error: %w", err)
	}

	return Result{Text: resp.Text(), Citations: []Citation{}}, nil
}

// buildContents maps the conversation history plus the new user input
// to ordered gemini contents.
func buildContents(history []Turn, input string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		if turn.Text == "" {
			continue
		}
		role := genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	return append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: input}},
	})
}

// extractCitations pulls grounding chunks out of a search-grounded
// response, keeping only entries that carry both a URI and a title.
func extractCitations(resp *genai.GenerateContentResponse) []Citation {
	citations := []Citation{}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
				continue
			}
			citations = append(citations, Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return citations
}

// decodeDataURL strips the "data:<mime>;base64," prefix and decodes
// the payload.
func decodeDataURL(dataURL string) ([]byte, error) {
	_, payload, found := strings.Cut(dataURL, ",")
	if !found || payload == "" {
		return nil, fmt.Errorf("invalid data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode media payload: %w", err)
	}
	return data, nil
}
