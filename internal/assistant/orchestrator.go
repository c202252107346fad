package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/llm"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	answerNoCandidate = "No response from AI"
	answerEmpty       = "No response"
	answerUnknownTool = "Unknown tool requested"
)

// TurnLocker serializes turns of one chat session across API replicas.
type TurnLocker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
	ChatTurnLockKey(sessionID string) string
}

// OrchestratorParams wires an Orchestrator. Locker is optional.
type OrchestratorParams struct {
	Model       llm.Client
	Catalog     Catalog
	Locker      TurnLocker
	TurnTimeout time.Duration
	Logger      *logger.Logger
	Metrics     *metrics.Storefront
}

// Orchestrator runs one assistant turn: a model call, at most one tool
// execution, and a follow-up model call that phrases the tool result.
type Orchestrator struct {
	model       llm.Client
	search      *SearchTool
	compare     *CompareTool
	locker      TurnLocker
	turnTimeout time.Duration
	logg        *logger.Logger
	metrics     *metrics.Storefront
}

func NewOrchestrator(params OrchestratorParams) (*Orchestrator, error) {
	if params.Model == nil {
		return nil, errors.New("model client required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.TurnTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Orchestrator{
		model:       params.Model,
		search:      NewSearchTool(params.Catalog),
		compare:     NewCompareTool(params.Catalog),
		locker:      params.Locker,
		turnTimeout: timeout,
		logg:        logg,
		metrics:     params.Metrics,
	}, nil
}

// Turn runs Respond while holding the session's turn lock. A second turn for
// the same session fails with CodeConflict until the first finishes. When the
// lock store is unreachable the turn proceeds unguarded.
func (o *Orchestrator) Turn(ctx context.Context, sessionID string, history []Message) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()
	ctx = o.logg.WithSessionID(ctx, sessionID)

	if o.locker == nil || sessionID == "" {
		return o.Respond(ctx, history)
	}

	key := o.locker.ChatTurnLockKey(sessionID)
	token := uuid.NewString()
	ok, err := o.locker.AcquireLock(ctx, key, token, o.turnTimeout)
	switch {
	case err != nil:
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "assistant turn lock unavailable")
	case !ok:
		o.metrics.IncAssistantTurn("busy")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a reply is already in progress for this chat")
	default:
		defer func() {
			if err := o.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
				o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "release assistant turn lock")
			}
		}()
	}
	return o.Respond(ctx, history)
}

// Respond answers the latest message given the full client-held history.
func (o *Orchestrator) Respond(ctx context.Context, history []Message) (*Reply, error) {
	contents := transcript(history)

	first, err := o.generate(ctx, llm.Request{Messages: contents, Tools: toolDeclarations})
	if err != nil {
		return nil, err
	}
	if !first.HasContent {
		o.metrics.IncAssistantTurn("empty")
		return &Reply{Answer: answerNoCandidate, Products: []ProductSummary{}}, nil
	}

	if len(first.FunctionCalls) == 0 {
		answer := first.Text
		if answer == "" {
			answer = answerEmpty
			o.metrics.IncAssistantTurn("empty")
		} else {
			o.metrics.IncAssistantTurn("direct")
		}
		return &Reply{Answer: answer, Products: ParseProducts(answer)}, nil
	}

	// Only the first requested call runs; extra calls in the same turn are ignored.
	call := first.FunctionCalls[0]
	if extra := len(first.FunctionCalls) - 1; extra > 0 {
		o.logg.Debug(o.logg.WithField(ctx, "ignored_calls", extra), "model requested more than one tool call")
	}
	result := o.dispatch(ctx, call)

	followUp := append(contents,
		llm.Message{Role: llm.RoleModel, FunctionCall: &llm.FunctionCall{Name: call.Name, Args: call.Args}},
		llm.Message{Role: llm.RoleUser, FunctionResponse: &llm.FunctionResponse{Name: call.Name, Result: result.Text}},
	)
	second, err := o.generate(ctx, llm.Request{Messages: followUp, Tools: toolDeclarations})
	if err != nil {
		return nil, err
	}

	answer := second.Text
	if answer == "" {
		answer = result.Text
	}
	products := ParseProducts(answer)
	if len(products) == 0 && len(result.Products) > 0 {
		products = summariesFromProducts(result.Products)
	}
	o.metrics.IncAssistantTurn("tool")
	return &Reply{Answer: answer, Products: products, ToolName: call.Name}, nil
}

func (o *Orchestrator) generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	started := time.Now()
	resp, err := o.model.Generate(ctx, req)
	o.metrics.ObserveModelLatency(time.Since(started))
	if err != nil {
		o.metrics.IncAssistantTurn("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assistant model call failed")
	}
	if resp == nil {
		resp = &llm.Response{}
	}
	return resp, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, call llm.FunctionCall) ToolResult {
	o.metrics.IncToolCall(call.Name)
	logCtx := o.logg.WithField(ctx, "tool", call.Name)
	o.logg.Info(logCtx, "assistant tool call")

	switch call.Name {
	case ToolSearch:
		return o.search.Run(ctx, stringArg(call.Args, "query"))
	case ToolCompare:
		return o.compare.Run(ctx, stringArg(call.Args, "product1"), stringArg(call.Args, "product2"))
	default:
		o.logg.Warn(logCtx, "model requested an unknown tool")
		return ToolResult{Text: answerUnknownTool}
	}
}

func stringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
