package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"agenthub/llm/providers"
	"agenthub/llm/retrieval"
	"agenthub/llm/tools"
	"agenthub/pubsub"
)

// Runtime drives one assistant conversation: it feeds user input and the
// stored history to the agent and publishes every resulting message.
type Runtime struct {
	agent      adk.Agent
	runner     *adk.Runner
	store      ConversationStore
	broker     *pubsub.Broker[adk.Message]
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewRuntime creates an assistant runtime from a chat model and tool list.
func NewRuntime(ctx context.Context, chatModel model.ToolCallingChatModel, toolsList []tool.BaseTool) (*Runtime, error) {
	agt, err := NewAssistantAgent(ctx, &AssistantConfig{
		ChatModel: chatModel,
		Tools:     toolsList,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant agent: %w", err)
	}

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           agt,
		EnableStreaming: false,
	})

	broker := pubsub.NewBroker[adk.Message]()

	childCtx, cancel := context.WithCancel(ctx)

	return &Runtime{
		agent:      agt,
		runner:     runner,
		store:      NewMemoryStore(),
		broker:     broker,
		ctx:        childCtx,
		cancelFunc: cancel,
	}, nil
}

// Run processes one user turn. The answer and any intermediate messages
// arrive through the runtime's broker.
func (r *Runtime) Run(userPrompt string) error {
	userMsg := &schema.Message{
		Role:    schema.User,
		Content: userPrompt,
	}

	if err := r.store.Add(r.ctx, userMsg); err != nil {
		return fmt.Errorf("failed to store user message: %w", err)
	}

	r.broker.Publish(pubsub.MessageCreatedEvent, userMsg)

	history, err := r.store.List(r.ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	iter := r.runner.Run(r.ctx, history)

	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		r.handleEvent(event)
	}

	return nil
}

// handleEvent stores and publishes each message the agent produces.
func (r *Runtime) handleEvent(event *adk.AgentEvent) {
	if event.Output == nil {
		return
	}

	output := event.Output.MessageOutput
	if output == nil {
		return
	}

	msg, err := output.GetMessage()
	if err != nil {
		log.Printf("failed to read agent message: %v", err)
		r.broker.Publish(pubsub.MessageCreatedEvent, &schema.Message{
			Role:    schema.System,
			Content: fmt.Sprintf("error: %v", err),
		})
		return
	}

	if err := r.store.Add(r.ctx, msg); err != nil {
		log.Printf("failed to store message: %v", err)
	}

	r.broker.Publish(pubsub.MessageCreatedEvent, msg)

	for _, tc := range msg.ToolCalls {
		r.broker.Publish(pubsub.MessageUpdatedEvent, &schema.Message{
			Role:    schema.System,
			Content: fmt.Sprintf("calling tool: %s", tc.Function.Name),
		})
	}
}

// Broker returns the conversation event broker.
func (r *Runtime) Broker() *pubsub.Broker[adk.Message] {
	return r.broker
}

// Store returns the conversation store.
func (r *Runtime) Store() ConversationStore {
	return r.store
}

// Close stops the runtime.
func (r *Runtime) Close() {
	r.cancelFunc()
	r.broker.Shutdown()
}

// SetupRuntime builds a runtime whose assistant is scoped to one tenant's
// knowledge base.
func SetupRuntime(ctx context.Context, service *retrieval.Service, tenantID string, agentID int) (*Runtime, error) {
	chatModel, err := providers.CreateChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	knowledgeTools, err := tools.NewToolset(service, tenantID, agentID).All()
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge tools: %w", err)
	}

	toolsList := make([]tool.BaseTool, 0, len(knowledgeTools))
	for _, t := range knowledgeTools {
		toolsList = append(toolsList, t)
	}

	return NewRuntime(ctx, chatModel, toolsList)
}
