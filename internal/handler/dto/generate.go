package dto

// GenerateRequest represents the request body for page generation.
// PreviousHTML switches the request to an edit.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	PreviousHTML   string `json:"previous_html,omitempty"`
	PreviousPrompt string `json:"previous_prompt,omitempty"`
}

// WebsiteRequest represents the request body for website generation.
type WebsiteRequest struct {
	Description string `json:"description"`
}

// AnalysisResponse is the result of an image analysis.
type AnalysisResponse struct {
	Success         bool   `json:"success"`
	Description     string `json:"description"`
	Filename        string `json:"filename"`
	FileSize        int    `json:"file_size"`
	ImageDimensions string `json:"image_dimensions"`
	Message         string `json:"message"`
}
