package assistant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/llm"
)

// Role is who wrote a conversation message, as the client stores it.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleTool
}

// Message is one entry of the client-held conversation history.
type Message struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	ToolName string `json:"toolName,omitempty"`
}

// ProductSummary is a product card pulled out of an assistant answer.
type ProductSummary struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount,omitempty"`
	Brand           *string          `json:"brand,omitempty"`
	Description     *string          `json:"description,omitempty"`
}

// Reply is the outcome of one assistant turn.
type Reply struct {
	Answer   string           `json:"answer"`
	Products []ProductSummary `json:"products"`
	ToolName string           `json:"toolName,omitempty"`
}

// transcript renders the history for the model, system prompt first. Tool
// results are replayed as user text because the model only accepts function
// responses directly after its own call.
func transcript(history []Message) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.UserText(systemPrompt))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case RoleUser:
			out = append(out, llm.UserText(msg.Content))
		case RoleAssistant:
			out = append(out, llm.ModelText(msg.Content))
		case RoleTool:
			out = append(out, llm.UserText(fmt.Sprintf("[Tool result from %s]: %s", msg.ToolName, msg.Content)))
		}
	}
	return out
}
