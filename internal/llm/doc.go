// Package llm phrases alert explanations through a hosted text generator. OpenAI and
// Anthropic share one client that throttles requests and retries transient failures.
package llm
