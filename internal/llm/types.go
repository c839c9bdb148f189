package llm

import "fmt"

// Role says whose voice a prompt message carries.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one prompt message. Analysis prompts are a system message with
// the template instructions followed by the user's organisation context.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest asks a model for one answer. An empty Model uses the
// provider's configured model.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Usage counts the tokens one completion consumed.
type Usage struct {
	Prompt int
	Answer int
}

func (u Usage) String() string {
	return fmt.Sprintf("%d prompt + %d answer tokens", u.Prompt, u.Answer)
}

// CompletionResponse is a model answer.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
	// Truncated is set when the model stopped at the token limit, which
	// leaves a JSON answer unterminated.
	Truncated bool
}
