package chat

import "os"

// Gemini Model IDs
//
// | Model Name                   | API Model ID                   | Use Case                      |
// |------------------------------|--------------------------------|-------------------------------|
// | Gemini 2.5 Flash             | gemini-2.5-flash               | Stable, balanced performance  |
// | Gemini 2.5 Flash Image       | gemini-2.5-flash-image-preview | Image generation/edit         |
// | Gemini 3 Flash (Preview)     | gemini-3-flash-preview         | Best for speed + intelligence |
// | Gemini 3 Pro Image (Preview) | gemini-3-pro-image-preview     | Advanced image generation     |
const (
	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashImage is the image-capable Flash model.
	ModelGemini25FlashImage = "gemini-2.5-flash-image-preview"

	// ModelGemini3FlashPreview is best for speed + intelligence.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// DefaultAnalysisModel describes the photo's defects and writes the instruction.
const DefaultAnalysisModel = ModelGemini25Flash

// DefaultRestorationModel produces the restored image.
const DefaultRestorationModel = ModelGemini25FlashImage

// AnalysisModelName returns the analysis model, resolved from the
// GEMINI_MODEL environment variable or DefaultAnalysisModel.
func AnalysisModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultAnalysisModel
}

// RestorationModelName returns the restoration model, resolved from the
// GEMINI_IMAGE_MODEL environment variable or DefaultRestorationModel.
func RestorationModelName() string {
	if env := os.Getenv("GEMINI_IMAGE_MODEL"); env != "" {
		return env
	}
	return DefaultRestorationModel
}
