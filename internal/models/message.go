package models

// Embed colors used by the bot.
const (
	ColorGreen   = 0x57F287
	ColorBlue    = 0x3498DB
	ColorRed     = 0xED4245
	ColorOrange  = 0xE67E22
	ColorBlurple = 0x7289DA
)

// ButtonStyle mirrors the platform's button styles the bot uses.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Embed is a rich message block.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Footer      string `json:"footer,omitempty"`
	Author      string `json:"author,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// Button is an interactive control bound to a handler by CustomID.
type Button struct {
	CustomID string      `json:"custom_id"`
	Label    string      `json:"label"`
	Style    ButtonStyle `json:"style"`
}

// Message is an outbound message: plain text, an embed, or both, plus controls.
type Message struct {
	Content string   `json:"content,omitempty"`
	Embed   *Embed   `json:"embed,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Text returns a content-only message.
func Text(content string) Message {
	return Message{Content: content}
}
