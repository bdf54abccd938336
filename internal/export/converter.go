package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/raphaelgruber/chatexport/internal/models"
)

// Human-readable speaker labels.
const (
	LabelUser      = "User"
	LabelAssistant = "Claude"
)

// Converter turns a conversation into file content of one format.
type Converter interface {
	// Convert renders the conversation.
	Convert(conv *models.Conversation) ([]byte, error)

	// FileExtension returns the extension including the dot (e.g. ".json").
	FileExtension() string

	// MimeType returns the MIME type of the rendered content.
	MimeType() string
}

// ConverterFor returns the converter for a format.
func ConverterFor(f Format) (Converter, error) {
	switch f {
	case FormatJSON:
		return jsonConverter{}, nil
	case FormatText, FormatTxt:
		return textConverter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, string(f))
	}
}

// ToStructured renders the record as pretty-printed JSON.
// Bytes received from the API are indented as-is, so no field is lost
// and field order is preserved.
func ToStructured(conv *models.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	if raw := conv.Raw(); len(raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("indent conversation: %w", err)
		}
		return buf.Bytes(), nil
	}

	return json.MarshalIndent(conv, "", "  ")
}

// ToFlatText renders each message as "<Label>:\n<text>\n\n" in order and
// trims trailing whitespace from the result.
func ToFlatText(conv *models.Conversation) string {
	var sb strings.Builder
	for _, msg := range conv.Messages {
		label := LabelAssistant
		if msg.IsHuman() {
			label = LabelUser
		}
		sb.WriteString(label)
		sb.WriteString(":\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n")
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace)
}

type jsonConverter struct{}

func (jsonConverter) Convert(conv *models.Conversation) ([]byte, error) {
	return ToStructured(conv)
}

func (jsonConverter) FileExtension() string { return ".json" }

func (jsonConverter) MimeType() string { return "application/json" }

type textConverter struct{}

func (textConverter) Convert(conv *models.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	return []byte(ToFlatText(conv)), nil
}

func (textConverter) FileExtension() string { return ".txt" }

func (textConverter) MimeType() string { return "text/plain" }
