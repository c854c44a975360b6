package chat

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
)

// Format selects how reply payloads are written
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

const (
	LoanAdvisoryText = "대출 관련 상담은 신용점수 조회가 필요합니다."
	ErrorText        = "죄송합니다. 처리 중 오류가 발생했습니다."
	defaultTemplate  = "AI 모델 %s이 답변합니다: '%s'에 대한 안내입니다."
)

// Reply is the rendered outcome for one message
type Reply struct {
	Category Category
	Status   int
	Text     string

	// LogLevel and LogMessage describe the line emitted for the category
	LogLevel   slog.Level
	LogMessage string
}

// Renderer turns a Category into a status code and payload
type Renderer struct {
	modelVersion string
	format       Format
}

// NewRenderer creates a renderer. Unknown formats fall back to text.
func NewRenderer(modelVersion string, format Format) *Renderer {
	switch Format(strings.ToLower(string(format))) {
	case FormatHTML:
		format = FormatHTML
	default:
		format = FormatText
	}
	return &Renderer{modelVersion: modelVersion, format: format}
}

// Format returns the payload format in use
func (r *Renderer) Format() Format {
	return r.format
}

// Render maps category and the user message to a Reply
func (r *Renderer) Render(category Category, message string) Reply {
	switch category {
	case CategoryLoan:
		return Reply{
			Category:   category,
			Status:     http.StatusOK,
			Text:       r.wrap(LoanAdvisoryText),
			LogLevel:   slog.LevelWarn,
			LogMessage: "Loan inquiry detected - Risk Check Required",
		}
	case CategoryError:
		return Reply{
			Category:   category,
			Status:     http.StatusInternalServerError,
			Text:       r.wrap(ErrorText),
			LogLevel:   slog.LevelError,
			LogMessage: "Model Inference Error: Unknown Token",
		}
	default:
		echoed := message
		if r.format == FormatHTML {
			echoed = "<b>" + html.EscapeString(message) + "</b>"
		}
		return Reply{
			Category:   CategoryDefault,
			Status:     http.StatusOK,
			Text:       r.wrap(fmt.Sprintf(defaultTemplate, r.modelVersion, echoed)),
			LogLevel:   slog.LevelInfo,
			LogMessage: "Default answer generated",
		}
	}
}

func (r *Renderer) wrap(text string) string {
	if r.format == FormatHTML {
		return `<div class="bot-reply">` + text + `</div>`
	}
	return text
}
