package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/assistant"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxChatMessageLength = 8000

// AssistantTurner runs one serialized assistant turn for a chat session.
type AssistantTurner interface {
	Turn(ctx context.Context, sessionID string, history []assistant.Message) (*assistant.Reply, error)
}

type chatRequest struct {
	Messages []assistant.Message `json:"messages" validate:"required,min=1"`
}

type chatResponse struct {
	Answer   string                     `json:"answer"`
	Products []assistant.ProductSummary `json:"products"`
}

type chatError struct {
	Error string `json:"error"`
}

// AssistantChat answers the latest user message of a client-held
// conversation. Failures are reported as {"error": "..."}.
func AssistantChat(turner AssistantTurner, maxMessages int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fail := func(err error) {
			status, msg := responses.Describe(err)
			if status >= http.StatusInternalServerError && logg != nil {
				logg.Error(ctx, "assistant.chat_failed", err)
			}
			responses.WriteJSON(w, status, chatError{Error: msg})
		}

		if turner == nil {
			fail(pkgerrors.New(pkgerrors.CodeDependency, "assistant disabled"))
			return
		}

		var payload chatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			fail(err)
			return
		}
		if err := validateHistory(payload.Messages, maxMessages); err != nil {
			fail(err)
			return
		}

		sessionID := middleware.IdentityFromContext(ctx).Key()
		reply, err := turner.Turn(ctx, sessionID, payload.Messages)
		if err != nil {
			fail(err)
			return
		}

		products := reply.Products
		if products == nil {
			products = []assistant.ProductSummary{}
		}
		responses.WriteJSON(w, http.StatusOK, chatResponse{Answer: reply.Answer, Products: products})
	}
}

func validateHistory(messages []assistant.Message, maxMessages int) error {
	if maxMessages > 0 && len(messages) > maxMessages {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "conversation exceeds %d messages", maxMessages)
	}
	for i, msg := range messages {
		if !msg.Role.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid message role").
				WithDetails(map[string]string{"field": fmt.Sprintf("messages[%d].role", i)})
		}
		if utf8.RuneCountInString(msg.Content) > maxChatMessageLength {
			return pkgerrors.New(pkgerrors.CodeValidation, "message too long").
				WithDetails(map[string]string{"field": fmt.Sprintf("messages[%d].content", i)})
		}
	}
	last := messages[len(messages)-1]
	if last.Role != assistant.RoleUser || strings.TrimSpace(last.Content) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "last message must be a non-empty user message")
	}
	return nil
}
