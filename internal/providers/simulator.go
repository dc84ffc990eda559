package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"vidscope-backend/internal/catalog"
)

// Simulator implements Caller with timer-based mock responses. Payloads are
// task-shaped and deterministic for a given media name, task, and provider,
// which keeps handler tests stable.
type Simulator struct {
	Latency time.Duration
}

// NewSimulator constructs a Simulator with the given artificial latency.
func NewSimulator(latency time.Duration) *Simulator {
	return &Simulator{Latency: latency}
}

// Call waits out the configured latency honoring ctx, then fabricates a
// payload matching the task's result kind.
func (s *Simulator) Call(ctx context.Context, input CallInput) (json.RawMessage, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed(input)))

	var payload any
	switch input.Task.Kind {
	case catalog.KindDamageReport:
		payload = damageReportPayload(rng, input)
	case catalog.KindSearchHits:
		payload = searchHitsPayload(rng, input)
	case catalog.KindTimeline:
		payload = timelinePayload(rng, input)
	case catalog.KindSummary:
		payload = summaryPayload(rng, input)
	case catalog.KindAnswer:
		payload = answerPayload(rng, input)
	default:
		return nil, fmt.Errorf("unknown task kind %q", input.Task.Kind)
	}

	return json.Marshal(payload)
}

func seed(input CallInput) int64 {
	h := fnv.New64a()
	h.Write([]byte(input.MediaName))
	h.Write([]byte(input.Task.ID))
	h.Write([]byte(input.Provider))
	return int64(h.Sum64())
}

func confidence(rng *rand.Rand) float64 {
	// Keep scores in a believable band.
	return 0.72 + rng.Float64()*0.26
}

var severities = []string{"Minor", "Moderate", "Severe"}

var damageAreas = []struct {
	area           string
	description    string
	recommendation string
	costLow        int
	costHigh       int
}{
	{"roof", "displaced and cracked shingles along the ridge line", "Replace damaged shingles and inspect underlayment for water intrusion", 800, 4500},
	{"siding", "impact dents and punctures on the weather-facing wall", "Replace affected siding panels and check sheathing behind them", 400, 2200},
	{"gutter", "detached gutter section with bent hangers", "Re-hang gutter run and replace bent hangers", 150, 600},
	{"window", "cracked pane and damaged frame seal", "Replace glazing unit and reseal the frame", 300, 1200},
	{"front bumper", "scrape and paint transfer across the lower fascia", "Refinish bumper cover; replace if the mounting tabs are cracked", 350, 900},
	{"driver door", "shallow dent with intact paint", "Paintless dent repair", 150, 450},
	{"windshield", "chip within the driver's sight line", "Replace windshield; resin repair not advised in the sight line", 250, 500},
}

func damageReportPayload(rng *rand.Rand, input CallInput) map[string]any {
	count := 1 + rng.Intn(3)
	start := rng.Intn(len(damageAreas))
	items := make([]map[string]any, 0, count)
	recommendations := make([]string, 0, count)
	for i := 0; i < count; i++ {
		entry := damageAreas[(start+i)%len(damageAreas)]
		severity := severities[rng.Intn(len(severities))]
		cost := entry.costLow + rng.Intn(entry.costHigh-entry.costLow+1)
		items = append(items, map[string]any{
			"area":           entry.area,
			"severity":       severity,
			"description":    entry.description,
			"recommendation": entry.recommendation,
			"estimatedCost":  cost,
		})
		recommendations = append(recommendations, entry.recommendation)
	}
	return map[string]any{
		"summary":         fmt.Sprintf("Identified %d damaged area(s) in %s.", count, input.MediaName),
		"confidence":      confidence(rng),
		"conditionScore":  40 + rng.Intn(55),
		"damageItems":     items,
		"recommendations": recommendations,
	}
}

func searchHitsPayload(rng *rand.Rand, input CallInput) map[string]any {
	count := 2 + rng.Intn(3)
	hits := make([]map[string]any, 0, count)
	cursor := rng.Float64() * 10
	for i := 0; i < count; i++ {
		length := 2 + rng.Float64()*8
		hits = append(hits, map[string]any{
			"startSeconds": round1(cursor),
			"endSeconds":   round1(cursor + length),
			"label":        fmt.Sprintf("moment matching %q", input.Query),
			"score":        round1(0.5 + rng.Float64()*0.5),
		})
		cursor += length + rng.Float64()*15
	}
	return map[string]any{
		"summary":    fmt.Sprintf("Found %d moment(s) matching the query.", count),
		"confidence": confidence(rng),
		"hits":       hits,
	}
}

var trackedLabels = []string{"person", "vehicle", "ladder", "dog", "bicycle", "package"}

func timelinePayload(rng *rand.Rand, input CallInput) map[string]any {
	count := 2 + rng.Intn(4)
	entries := make([]map[string]any, 0, count)
	findings := make([]string, 0, count)
	cursor := rng.Float64() * 5
	for i := 0; i < count; i++ {
		label := trackedLabels[rng.Intn(len(trackedLabels))]
		length := 3 + rng.Float64()*20
		entries = append(entries, map[string]any{
			"startSeconds": round1(cursor),
			"endSeconds":   round1(cursor + length),
			"label":        label,
			"confidence":   round1(0.6 + rng.Float64()*0.4),
		})
		findings = append(findings, fmt.Sprintf("%s visible for %.1fs", label, length))
		cursor += length * (0.5 + rng.Float64())
	}
	return map[string]any{
		"summary":    fmt.Sprintf("Tracked %d object(s) across %s.", count, input.MediaName),
		"confidence": confidence(rng),
		"timeline":   entries,
		"findings":   findings,
	}
}

func summaryPayload(rng *rand.Rand, input CallInput) map[string]any {
	points := []string{
		"Opening shot establishes the scene",
		"Camera pans across the main subject",
		"Close-up detail captured mid-clip",
		"Final segment returns to a wide view",
	}
	count := 2 + rng.Intn(3)
	return map[string]any{
		"summary":    fmt.Sprintf("A %d-point walkthrough of %s.", count, input.MediaName),
		"confidence": confidence(rng),
		"keyPoints":  points[:count],
		"findings":   []string{"No anomalies flagged during the pass"},
	}
}

func answerPayload(rng *rand.Rand, input CallInput) map[string]any {
	return map[string]any{
		"summary":    "Answered from the footage.",
		"confidence": confidence(rng),
		"answer":     fmt.Sprintf("Based on the video, regarding %q: the footage supports a direct answer drawn from the visible frames.", input.Query),
	}
}

func round1(v float64) float64 {
	return float64(int(v*10)) / 10
}

var _ Caller = (*Simulator)(nil)
