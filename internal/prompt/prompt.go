// Package prompt renders the chat messages sent to the upstream model.
package prompt

import (
	"embed"
	"strings"
	"text/template"

	"github.com/webagent/webagent/internal/llm"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

// Diff block markers the modification prompt asks the model to emit.
const (
	SearchMarker  = "<<<<<<< SEARCH"
	DividerMarker = "======="
	ReplaceMarker = ">>>>>>> REPLACE"
)

// Section markers of the three-part website answer.
const (
	AnalysisStart = "===ANALYSIS_START==="
	AnalysisEnd   = "===ANALYSIS_END==="
	CodeStart     = "===CODE_START==="
	CodeEnd       = "===CODE_END==="
	SummaryStart  = "===SUMMARY_START==="
	SummaryEnd    = "===SUMMARY_END==="
)

// DefaultPreviousPrompt stands in for a missing previous prompt on edits.
const DefaultPreviousPrompt = "You are modifying the HTML file based on the user's request."

// GenerateInput is one page generation or edit request.
type GenerateInput struct {
	Prompt         string
	PreviousHTML   string
	PreviousPrompt string
}

// IsModification reports whether the request edits an existing page.
func (in GenerateInput) IsModification() bool {
	return in.PreviousHTML != ""
}

// GenerationSystemPrompt instructs the model to produce one complete HTML document.
func GenerationSystemPrompt() string {
	return render("generation_system.tmpl", nil)
}

// ModificationSystemPrompt instructs the model to answer with SEARCH/REPLACE blocks.
func ModificationSystemPrompt() string {
	return render("modification_system.tmpl", map[string]string{
		"SearchMarker":  SearchMarker,
		"DividerMarker": DividerMarker,
		"ReplaceMarker": ReplaceMarker,
	})
}

// EnhancedUserPrompt wraps a raw prompt in the full-page requirements list.
func EnhancedUserPrompt(prompt string) string {
	return render("generation_user.tmpl", map[string]string{"Prompt": prompt})
}

// CurrentCode is the assistant turn that hands the model the page being edited.
func CurrentCode(html string) string {
	return "The current code is: \n```html\n" + html + "\n```"
}

// BuildGenerateMessages selects between full generation and diff editing.
func BuildGenerateMessages(in GenerateInput) []llm.Message {
	if !in.IsModification() {
		return []llm.Message{
			llm.TextMessage(llm.RoleSystem, GenerationSystemPrompt()),
			llm.TextMessage(llm.RoleUser, EnhancedUserPrompt(in.Prompt)),
		}
	}

	previous := in.PreviousPrompt
	if previous == "" {
		previous = DefaultPreviousPrompt
	}

	return []llm.Message{
		llm.TextMessage(llm.RoleSystem, ModificationSystemPrompt()),
		llm.TextMessage(llm.RoleUser, previous),
		llm.TextMessage(llm.RoleAssistant, CurrentCode(in.PreviousHTML)),
		llm.TextMessage(llm.RoleUser, in.Prompt),
	}
}

// BuildWebsiteMessages asks for an ANALYSIS/CODE/SUMMARY answer for a
// description, typically one produced by image analysis.
func BuildWebsiteMessages(description string) []llm.Message {
	system := render("website_system.tmpl", map[string]string{
		"AnalysisStart": AnalysisStart,
		"AnalysisEnd":   AnalysisEnd,
		"CodeStart":     CodeStart,
		"CodeEnd":       CodeEnd,
		"SummaryStart":  SummaryStart,
		"SummaryEnd":    SummaryEnd,
	})

	return []llm.Message{
		llm.TextMessage(llm.RoleSystem, system),
		llm.TextMessage(llm.RoleUser, render("website_user.tmpl", map[string]string{"Description": description})),
	}
}

// ImageAnalysisPrompt is the instruction sent alongside an uploaded image.
func ImageAnalysisPrompt() string {
	return render("image_analysis.tmpl", nil)
}

// render executes an embedded template. The templates and their data are
// fixed at compile time, so a failure is a programming error.
func render(name string, data any) string {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		panic("prompt: render " + name + ": " + err.Error())
	}
	return strings.TrimSpace(b.String())
}
