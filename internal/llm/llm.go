// Package llm defines the inference client contract used to obtain resume feedback.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client abstracts LLM providers for resume feedback.
type Client interface {
	// Feedback asks the model to review the stored image at imagePath.
	Feedback(ctx context.Context, imagePath, instructions string) (*Response, error)
}

// Response is a provider-neutral model reply.
type Response struct {
	Message Message `json:"message"`
}

// Message is a single chat message.
type Message struct {
	Role    string  `json:"role,omitempty"`
	Content Content `json:"content"`
}

// Part is one element of a multi-part message content.
type Part struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// Content is either a plain string or a list of parts.
type Content struct {
	text  string
	parts []Part
	multi bool
}

// TextContent builds string content.
func TextContent(s string) Content {
	return Content{text: s}
}

// PartsContent builds multi-part content.
func PartsContent(parts ...Part) Content {
	return Content{parts: parts, multi: true}
}

// Text returns the string content, or the first part's text for multi-part content.
func (c Content) Text() string {
	if !c.multi {
		return c.text
	}
	if len(c.parts) == 0 {
		return ""
	}
	return c.parts[0].Text
}

// Parts returns the parts of multi-part content.
func (c Content) Parts() []Part {
	return c.parts
}

// UnmarshalJSON accepts a JSON string or an array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*c = Content{}
		return nil
	case strings.HasPrefix(trimmed, "\""):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case strings.HasPrefix(trimmed, "["):
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = PartsContent(parts...)
		return nil
	default:
		return fmt.Errorf("llm content: unsupported JSON %.20q", trimmed)
	}
}

// MarshalJSON writes the form the content was built with.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.multi {
		if c.parts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// StripCodeFence removes markdown ```json and ``` markers anywhere in s and trims the result.
func StripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Feedback returns ErrNotImplemented.
func (PlaceholderClient) Feedback(ctx context.Context, imagePath, instructions string) (*Response, error) {
	_ = ctx
	_ = imagePath
	_ = instructions
	return nil, ErrNotImplemented
}
