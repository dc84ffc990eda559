package analyses

import (
	"encoding/json"
	"fmt"
	"time"

	"vidscope-backend/internal/catalog"
)

// MediaDescriptor is the snapshot of the analyzed media stamped into every
// result envelope.
type MediaDescriptor struct {
	FileName        string   `json:"fileName"`
	SizeBytes       int64    `json:"sizeBytes"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
}

// Result is the envelope around a provider payload: invariant metadata plus
// exactly one task-shaped variant selected by Kind.
type Result struct {
	TaskID           catalog.TaskID     `json:"taskId"`
	Kind             catalog.Kind       `json:"kind"`
	Provider         catalog.ProviderID `json:"provider"`
	FallbackProvider catalog.ProviderID `json:"fallbackProvider"`
	FallbackNote     string             `json:"fallbackNote"`
	Timestamp        time.Time          `json:"timestamp"`
	Media            MediaDescriptor    `json:"media"`
	Summary          string             `json:"summary"`
	Confidence       float64            `json:"confidence"`

	DamageReport *DamageReport `json:"damageReport,omitempty"`
	SearchHits   *SearchHits   `json:"searchHits,omitempty"`
	Timeline     *Timeline     `json:"timeline,omitempty"`
	Overview     *Overview     `json:"overview,omitempty"`
	Answer       *Answer       `json:"answer,omitempty"`
}

// Severity grades a damage finding.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

func (s Severity) valid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

// DamageItem is one damaged area with a graded severity and repair guidance.
type DamageItem struct {
	Area           string   `json:"area"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	EstimatedCost  int      `json:"estimatedCost,omitempty"`
}

// DamageReport is the payload variant for damage inspection tasks.
type DamageReport struct {
	ConditionScore  int          `json:"conditionScore"`
	Items           []DamageItem `json:"damageItems"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// SearchHit is one matched moment in the footage.
type SearchHit struct {
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	Label        string  `json:"label"`
	Score        float64 `json:"score"`
}

// SearchHits is the payload variant for semantic search tasks.
type SearchHits struct {
	Hits []SearchHit `json:"hits"`
}

// TimelineEntry is one tracked object span.
type TimelineEntry struct {
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
}

// Timeline is the payload variant for object tracking tasks.
type Timeline struct {
	Entries  []TimelineEntry `json:"timeline"`
	Findings []string        `json:"findings,omitempty"`
}

// Overview is the payload variant for summary tasks.
type Overview struct {
	KeyPoints []string `json:"keyPoints"`
	Findings  []string `json:"findings,omitempty"`
}

// Answer is the payload variant for custom Q&A tasks.
type Answer struct {
	Text string `json:"answer"`
}

// decodePayload decodes the raw provider payload into the variant selected
// by kind and fills the shared summary fields. Decoding is explicit per
// variant; a payload that does not fit the task's shape is an error rather
// than a silently empty result.
func (r *Result) decodePayload(kind catalog.Kind, raw json.RawMessage) error {
	var shared struct {
		Summary    string  `json:"summary"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &shared); err != nil {
		return fmt.Errorf("payload is not an object: %w", err)
	}
	r.Summary = shared.Summary
	if shared.Confidence < 0 || shared.Confidence > 1 {
		return fmt.Errorf("confidence %f outside [0,1]", shared.Confidence)
	}
	r.Confidence = shared.Confidence

	switch kind {
	case catalog.KindDamageReport:
		var report DamageReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return fmt.Errorf("decode damage report: %w", err)
		}
		if len(report.Items) == 0 {
			return fmt.Errorf("damage report has no items")
		}
		for i, item := range report.Items {
			if !item.Severity.valid() {
				return fmt.Errorf("damage item %d has invalid severity %q", i, item.Severity)
			}
			if item.Recommendation == "" {
				return fmt.Errorf("damage item %d missing recommendation", i)
			}
		}
		r.DamageReport = &report
	case catalog.KindSearchHits:
		var hits SearchHits
		if err := json.Unmarshal(raw, &hits); err != nil {
			return fmt.Errorf("decode search hits: %w", err)
		}
		r.SearchHits = &hits
	case catalog.KindTimeline:
		var timeline Timeline
		if err := json.Unmarshal(raw, &timeline); err != nil {
			return fmt.Errorf("decode timeline: %w", err)
		}
		r.Timeline = &timeline
	case catalog.KindSummary:
		var overview Overview
		if err := json.Unmarshal(raw, &overview); err != nil {
			return fmt.Errorf("decode overview: %w", err)
		}
		r.Overview = &overview
	case catalog.KindAnswer:
		var answer Answer
		if err := json.Unmarshal(raw, &answer); err != nil {
			return fmt.Errorf("decode answer: %w", err)
		}
		if answer.Text == "" {
			return fmt.Errorf("answer payload missing text")
		}
		r.Answer = &answer
	default:
		return fmt.Errorf("unknown result kind %q", kind)
	}
	return nil
}
