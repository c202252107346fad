package assistant

import "github.com/angelmondragon/storefront-backend/pkg/llm"

const (
	ToolSearch  = "getData"
	ToolCompare = "compareProducts"
)

const systemPrompt = `
You are an AI shopping assistant.
- Respond normally to greetings (hi, hello).
- If the user asks about products like details, filters, recommendations → call the "getData" tool.
- If the user asks to compare two products → call the "compareProducts" tool with the product names/descriptions (e.g., "motorcycle" and "kawasaki", NOT IDs).
- NEVER answer product questions directly. ALWAYS use tools.
- After receiving tool results, provide a clear final answer.
`

var toolDeclarations = []llm.ToolDeclaration{
	{
		Name:        ToolSearch,
		Description: "Fetch product data from the database based on the query.",
		Parameters: []llm.Parameter{
			{Name: "query", Required: true},
		},
	},
	{
		Name:        ToolCompare,
		Description: "Compare two products by searching for them by name, brand, or description. Use product names like 'motorcycle', 'kawasaki bike', 'Dell laptop', etc.",
		Parameters: []llm.Parameter{
			{Name: "product1", Description: "First product name, brand, or description to search for", Required: true},
			{Name: "product2", Description: "Second product name, brand, or description to search for", Required: true},
		},
	},
}
