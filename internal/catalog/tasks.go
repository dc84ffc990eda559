package catalog

// TaskID identifies an analysis task in the catalog.
type TaskID string

const (
	TaskPropertyDamage TaskID = "property_damage"
	TaskVehicleDamage  TaskID = "vehicle_damage"
	TaskSemanticSearch TaskID = "semantic_search"
	TaskObjectTracking TaskID = "object_tracking"
	TaskVideoSummary   TaskID = "video_summary"
	TaskCustomQuery    TaskID = "custom_query"
)

// Kind selects the shape of a task's analysis result payload.
type Kind string

const (
	KindDamageReport Kind = "damage_report"
	KindSearchHits   Kind = "search_hits"
	KindTimeline     Kind = "timeline"
	KindSummary      Kind = "summary"
	KindAnswer       Kind = "answer"
)

// Task describes an analysis task. The fallback provider is descriptive
// metadata: it is surfaced to callers but never invoked automatically.
type Task struct {
	ID          TaskID     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Kind        Kind       `json:"kind"`
	CreditCost  int        `json:"creditCost"`
	Primary     ProviderID `json:"primaryProvider"`
	Fallback    ProviderID `json:"fallbackProvider"`
	// Prompts maps provider id to the prompt template sent with the call.
	Prompts map[ProviderID]string `json:"-"`
	// RequiresQuery marks tasks that need free-text input from the user.
	RequiresQuery bool `json:"requiresQuery"`
}

var tasks = []Task{
	{
		ID:          TaskPropertyDamage,
		Name:        "Property Damage Inspection",
		Description: "Inspect footage of a property for storm, water, or structural damage and grade severity.",
		Kind:        KindDamageReport,
		CreditCost:  15,
		Primary:     ProviderGemini,
		Fallback:    ProviderRoboflow,
		Prompts: map[ProviderID]string{
			ProviderGemini:   "You are a property damage inspector. Identify every damaged area in this video, grade its severity as Minor, Moderate, or Severe, and recommend a repair action for each.",
			ProviderRoboflow: "property-damage-detector-v2",
		},
	},
	{
		ID:          TaskVehicleDamage,
		Name:        "Vehicle Damage Assessment",
		Description: "Walk-around assessment of a vehicle: dents, scratches, glass, panels, with repair guidance.",
		Kind:        KindDamageReport,
		CreditCost:  12,
		Primary:     ProviderRoboflow,
		Fallback:    ProviderGemini,
		Prompts: map[ProviderID]string{
			ProviderRoboflow: "vehicle-damage-detector-v3",
			ProviderGemini:   "You are a vehicle damage appraiser. List each damaged panel or component visible in this walk-around video with a severity grade and a repair recommendation.",
		},
	},
	{
		ID:          TaskSemanticSearch,
		Name:        "Semantic Video Search",
		Description: "Find the moments in the footage matching a natural-language description.",
		Kind:        KindSearchHits,
		CreditCost:  8,
		Primary:     ProviderTwelveLabs,
		Fallback:    ProviderGemini,
		Prompts: map[ProviderID]string{
			ProviderTwelveLabs: "Search the indexed video for moments matching the user's query and return ranked hits with timestamps.",
		},
		RequiresQuery: true,
	},
	{
		ID:          TaskObjectTracking,
		Name:        "Object Tracking",
		Description: "Track the objects appearing in the video and report when and where they appear.",
		Kind:        KindTimeline,
		CreditCost:  10,
		Primary:     ProviderVideoIntel,
		Fallback:    ProviderRoboflow,
		Prompts: map[ProviderID]string{
			ProviderVideoIntel: "OBJECT_TRACKING,LABEL_DETECTION",
		},
	},
	{
		ID:          TaskVideoSummary,
		Name:        "Video Summary",
		Description: "Summarize what happens in the video with key points and notable findings.",
		Kind:        KindSummary,
		CreditCost:  5,
		Primary:     ProviderGemini,
		Fallback:    ProviderTwelveLabs,
		Prompts: map[ProviderID]string{
			ProviderGemini:     "Summarize this video in a short paragraph, then list the key moments and any findings worth flagging.",
			ProviderTwelveLabs: "Generate a summary of the indexed video.",
		},
	},
	{
		ID:          TaskCustomQuery,
		Name:        "Custom Q&A",
		Description: "Ask any question about the video and get a direct answer.",
		Kind:        KindAnswer,
		CreditCost:  10,
		Primary:     ProviderTwelveLabs,
		Fallback:    ProviderGemini,
		Prompts: map[ProviderID]string{
			ProviderTwelveLabs: "Answer the user's question about the indexed video.",
			ProviderGemini:     "Answer the following question about this video as directly as possible.",
		},
		RequiresQuery: true,
	},
}
