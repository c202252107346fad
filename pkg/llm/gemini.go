package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// contentGenerator is the slice of *genai.Models the client depends on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Client on the Gemini API.
type Gemini struct {
	models      contentGenerator
	model       string
	temperature float32
}

// NewGemini builds a Gemini client from the assistant settings.
func NewGemini(ctx context.Context, cfg config.AssistantConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newGemini(client.Models, cfg.Model, cfg.Temperature), nil
}

func newGemini(models contentGenerator, model string, temperature float32) *Gemini {
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	return &Gemini{models: models, model: model, temperature: temperature}
}

// Generate sends the transcript and declared tools and returns the first candidate.
func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if len(req.Tools) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return fromResponse(resp), nil
}

func toContents(messages []Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for i, msg := range messages {
		role := genai.RoleUser
		if msg.Role == RoleModel {
			role = genai.RoleModel
		}
		switch {
		case msg.FunctionCall != nil:
			part := genai.NewPartFromFunctionCall(msg.FunctionCall.Name, msg.FunctionCall.Args)
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleModel))
		case msg.FunctionResponse != nil:
			part := genai.NewPartFromFunctionResponse(msg.FunctionResponse.Name, map[string]any{
				"result": msg.FunctionResponse.Result,
			})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		case msg.Text != "":
			contents = append(contents, genai.NewContentFromText(msg.Text, role))
		default:
			return nil, fmt.Errorf("message %d is empty", i)
		}
	}
	return contents, nil
}

func toDeclarations(tools []ToolDeclaration) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(tool.Parameters)),
		}
		for _, p := range tool.Parameters {
			schema.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schema,
		})
	}
	return decls
}

func fromResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return out
	}
	out.HasContent = true
	var text strings.Builder
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			out.FunctionCalls = append(out.FunctionCalls, FunctionCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	out.Text = text.String()
	return out
}
