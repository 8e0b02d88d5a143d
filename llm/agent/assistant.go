// Package agent runs a conversational assistant on top of a tenant's
// knowledge base. The assistant answers from ingested documents via the
// knowledge tools and refuses to guess beyond them.
package agent

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
)

// AssistantPrompt defines the persona and workflow for the knowledge assistant.
const AssistantPrompt = `
You are a knowledge base assistant. You answer questions using the tenant's
ingested documents, reached through your tools.

TOOLS
1. search_knowledge: Find document chunks relevant to a question
2. ingest_url: Fetch a web page and add it to the knowledge base
3. list_documents: Show what the knowledge base contains
4. delete_document: Remove a document and its chunks by id

RULES
- Always call search_knowledge before answering a question about the
  tenant's documents. Never answer from memory alone.
- If search returns nothing relevant, say the knowledge base does not
  cover the topic. Do not invent an answer.
- Cite the source shown with each search result.
- When the user shares a URL worth keeping, offer to ingest it.

Style: concise and direct. Quote the documents where it helps.
`

// AssistantConfig holds dependencies for the knowledge assistant.
type AssistantConfig struct {
	ChatModel model.ToolCallingChatModel
	Tools     []tool.BaseTool
}

// NewAssistantAgent creates the knowledge assistant using the provided configuration.
func NewAssistantAgent(ctx context.Context, config *AssistantConfig) (adk.Agent, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}

	return adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:        "KnowledgeAssistant",
		Description: "Answers questions from the tenant's ingested documents.",
		Instruction: AssistantPrompt,
		Model:       config.ChatModel,
		ToolsConfig: adk.ToolsConfig{
			ToolsNodeConfig: compose.ToolsNodeConfig{
				Tools: config.Tools,
			},
		},
		MaxIterations: 50,
	})
}
