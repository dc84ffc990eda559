package catalog

// ProviderID identifies one of the supported analysis providers.
type ProviderID string

const (
	ProviderGemini     ProviderID = "gemini"
	ProviderTwelveLabs ProviderID = "twelvelabs"
	ProviderVideoIntel ProviderID = "videointel"
	ProviderRoboflow   ProviderID = "roboflow"
)

// Auto is the override value that defers to the task's primary provider.
const Auto = "auto"

// Provider describes an analysis provider. Entries are immutable catalog data.
type Provider struct {
	ID           ProviderID `json:"id"`
	Name         string     `json:"name"`
	Capabilities []string   `json:"capabilities"`
	FreeTier     string     `json:"freeTier"`
	BestFor      string     `json:"bestFor"`
}

var providers = []Provider{
	{
		ID:           ProviderGemini,
		Name:         "Google Gemini",
		Capabilities: []string{"multimodal", "reasoning", "damage-assessment", "summarization", "qa"},
		FreeTier:     "15 requests/min, 1500 requests/day",
		BestFor:      "Visual reasoning over video frames: damage inspection, condition scoring, open-ended Q&A",
	},
	{
		ID:           ProviderTwelveLabs,
		Name:         "Twelve Labs",
		Capabilities: []string{"video-native", "semantic-search", "moment-retrieval", "qa"},
		FreeTier:     "600 minutes of indexed video",
		BestFor:      "Searching inside footage by natural language and pinpointing moments",
	},
	{
		ID:           ProviderVideoIntel,
		Name:         "Google Cloud Video Intelligence",
		Capabilities: []string{"label-detection", "object-tracking", "shot-detection"},
		FreeTier:     "1000 minutes/month",
		BestFor:      "Frame-accurate object tracking and shot-level labeling",
	},
	{
		ID:           ProviderRoboflow,
		Name:         "Roboflow",
		Capabilities: []string{"object-detection", "damage-detection", "custom-models"},
		FreeTier:     "1000 inference credits/month",
		BestFor:      "Purpose-trained detectors: vehicle dents, roof damage, parts localization",
	},
}
