package waves

import (
	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
)

// DefaultManifests describes the built-in waves: what each one emits and
// which signals it needs. The registry resolves dependency questions from
// these entries; the orchestrator never reads them.
func DefaultManifests() []domain.WaveManifest {
	return []domain.WaveManifest{
		{
			Name:        "format",
			Priority:    10,
			Description: "Container sniffing: format name, pixel geometry, animation frames, EXIF marker.",
			Tags:        []string{"local", "fast"},
			Emits: []string{
				"format.name", "format.has_exif", "format.animated", "format.frame_count",
				"geometry.width", "geometry.height", "geometry.aspect_ratio",
				"geometry.megapixels", "geometry.orientation",
			},
		},
		{
			Name:        "color",
			Priority:    20,
			Description: "Chromatic statistics: grayscale flag, mean saturation and brightness, dominant hues.",
			Tags:        []string{"local", "fast"},
			Emits: []string{
				"color.is_grayscale", "color.mean_saturation", "color.mean_brightness",
				"color.dominant", "color.palette",
			},
			Requires: []string{"format.name"},
		},
		{
			Name:        "quality",
			Priority:    30,
			Description: "Sharpness and texture: blur, edge strength, noise, contrast.",
			Tags:        []string{"local", "fast"},
			Emits: []string{
				"quality.blur_score", "quality.edge_strength", "quality.noise_level",
				"quality.contrast",
			},
			Requires: []string{"format.name"},
		},
		{
			Name:        "motion",
			Priority:    40,
			Description: "Frame-to-frame luma delta over animated GIFs.",
			Tags:        []string{"local", "fast"},
			Emits:       []string{"motion.score", "motion.frame_delta"},
			Requires:    []string{"format.animated"},
			Optional:    []string{"format.frame_count"},
		},
		{
			Name:        "layout",
			Priority:    50,
			Description: "Ink projection profiles: text row bands, columns, whitespace ratio.",
			Tags:        []string{"local", "fast"},
			Emits:       []string{"layout.text_rows", "layout.columns", "layout.whitespace_ratio"},
			Requires:    []string{"format.name"},
			Optional:    []string{"color.is_grayscale"},
		},
		{
			Name:        "textlike",
			Priority:    60,
			Description: "Blended estimate of how text-bearing the image looks.",
			Tags:        []string{"local", "fast"},
			Emits:       []string{"textlike.score"},
			Requires:    []string{"quality.edge_strength"},
			Optional:    []string{"layout.text_rows"},
		},
		{
			Name:        "ocr",
			Priority:    70,
			Description: "Visible text read through the vision model, gated on textiness.",
			Tags:        []string{"remote"},
			Emits:       []string{"ocr.text", "ocr.confidence", "ocr.word_count"},
			Requires:    []string{"textlike.score"},
			Optional:    []string{"layout.*"},
		},
		{
			Name:        "vision",
			Priority:    80,
			Description: "Structured scene description from the vision model.",
			Tags:        []string{"remote"},
			Emits: []string{
				"vision.caption", "vision.classification", "vision.face_count",
				"vision.is_monochrome", "vision.saturation_estimate", "vision.tags",
			},
			Requires: []string{"format.name"},
			Optional: []string{"color.*", "quality.*"},
		},
		{
			Name:        "synthesis",
			Priority:    90,
			Description: "Prose summary of the whole signal set.",
			Tags:        []string{"remote"},
			Emits:       []string{"synthesis.summary"},
			Requires:    []string{"vision.caption"},
			Optional:    []string{"*"},
		},
	}
}

// DefaultWaves builds the built-in waves in priority order. The vision and
// llm clients back the remote waves; local waves touch only pixels.
func DefaultWaves(vision domain.VisionClient, llm domain.LLMClient, logger *zap.Logger) []domain.Wave {
	return []domain.Wave{
		NewFormatWave(),
		NewColorWave(),
		NewQualityWave(),
		NewMotionWave(),
		NewLayoutWave(),
		NewTextlikeWave(),
		NewOCRWave(vision, logger),
		NewVisionWave(vision, logger),
		NewSynthesisWave(llm, logger),
	}
}
