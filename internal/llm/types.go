package llm

// Role is the author of a chat message.
type Role string

// Chat roles understood by OpenAI-compatible providers.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat-completions message. Content is either a string or a
// []ContentPart for vision requests.
type Message struct {
	Role    Role `json:"role"`
	Content any  `json:"content"`
}

// ContentPart is one element of a multi-part message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL points at an image, usually a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a plain text message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// ImageMessage builds a user message with a text instruction followed by one image.
func ImageMessage(text, imageURL string) Message {
	return Message{
		Role: RoleUser,
		Content: []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
		},
	}
}

// ChatRequest describes a chat-completions call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type chatBody struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

func (r ChatRequest) body(stream bool) chatBody {
	return chatBody{
		Model:       r.Model,
		Messages:    r.Messages,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Stream:      stream,
	}
}
