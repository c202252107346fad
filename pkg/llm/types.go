package llm

import "context"

// Role is the speaker of a transcript entry as the model sees it.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one transcript entry. Exactly one of Text, FunctionCall or
// FunctionResponse is set.
type Message struct {
	Role             Role
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name   string
	Result string
}

// Parameter is a string argument of a declared tool.
type Parameter struct {
	Name        string
	Description string
	Required    bool
}

// ToolDeclaration advertises a callable tool to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []Parameter
}

type Request struct {
	Messages []Message
	Tools    []ToolDeclaration
}

// Response is the first candidate of a generation. HasContent is false
// when there is no candidate or the candidate carries no content parts.
type Response struct {
	HasContent    bool
	Text          string
	FunctionCalls []FunctionCall
}

// Client generates one model turn.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func ModelText(text string) Message {
	return Message{Role: RoleModel, Text: text}
}
