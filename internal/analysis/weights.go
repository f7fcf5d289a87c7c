package analysis

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	"candidatelens/internal/errors"
)

// Weight keys, one per scored subtask kind
const (
	WeightResumeMatch = "resume_jd_match"
	WeightGitHub      = "github_analysis"
	WeightLinkedIn    = "linkedin_analysis"
	WeightTwitter     = "twitter_analysis"
	WeightBlogs       = "technical_blogs"
	WeightProjects    = "project_quality"
	WeightExperience  = "work_experience"
)

// WeightKeys lists the known weight keys in a stable order
var WeightKeys = []string{
	WeightResumeMatch,
	WeightGitHub,
	WeightLinkedIn,
	WeightTwitter,
	WeightBlogs,
	WeightProjects,
	WeightExperience,
}

var weightLabels = map[string]string{
	WeightResumeMatch: "Resume / JD match",
	WeightGitHub:      "GitHub",
	WeightLinkedIn:    "LinkedIn",
	WeightTwitter:     "Twitter",
	WeightBlogs:       "Technical blogs",
	WeightProjects:    "Projects",
	WeightExperience:  "Work experience",
}

// WeightLabel is the display name of a weight key
func WeightLabel(key string) string {
	if l, ok := weightLabels[key]; ok {
		return l
	}
	return key
}

// DefaultWeights returns a fresh copy of the built-in weight table. The
// values sum to 1.0.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		WeightResumeMatch: 0.25,
		WeightGitHub:      0.20,
		WeightLinkedIn:    0.10,
		WeightTwitter:     0.05,
		WeightBlogs:       0.15,
		WeightProjects:    0.15,
		WeightExperience:  0.10,
	}
}

// ValidateWeights checks keys are known and values lie in [0,1]. The table
// does not need to sum to 1.
func ValidateWeights(w map[string]float64) error {
	keys := slices.Sorted(maps.Keys(w))
	for _, k := range keys {
		v := w[k]
		if !slices.Contains(WeightKeys, k) {
			return errors.NewValidationError(errors.ErrCodeInvalidWeights,
				fmt.Sprintf("unknown weight key %q", k), nil).WithContext("known_keys", WeightKeys)
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return errors.NewValidationError(errors.ErrCodeInvalidWeights,
				fmt.Sprintf("weight %q must be between 0 and 1, got %v", k, v), nil)
		}
	}
	return nil
}

// MergeWeights overlays overrides onto base key by key. Keys absent from
// overrides keep their base value, so merging the same overrides twice gives
// the same table as merging once.
func MergeWeights(base, overrides map[string]float64) map[string]float64 {
	merged := maps.Clone(base)
	if merged == nil {
		merged = make(map[string]float64, len(overrides))
	}
	maps.Copy(merged, overrides)
	return merged
}

// WeightResolver turns a preset name plus custom overrides into an effective
// weight table
type WeightResolver struct {
	defaults map[string]float64
	presets  map[string]map[string]float64
}

// NewWeightResolver validates the configured tables. A nil defaults table
// falls back to DefaultWeights.
func NewWeightResolver(defaults map[string]float64, presets map[string]map[string]float64) (*WeightResolver, error) {
	if len(defaults) == 0 {
		defaults = DefaultWeights()
	}
	if err := ValidateWeights(defaults); err != nil {
		return nil, err
	}
	for name, p := range presets {
		if err := ValidateWeights(p); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return &WeightResolver{defaults: maps.Clone(defaults), presets: clonePresets(presets)}, nil
}

// Resolve builds defaults <- preset <- custom
func (r *WeightResolver) Resolve(preset string, custom map[string]float64) (map[string]float64, error) {
	if err := ValidateWeights(custom); err != nil {
		return nil, err
	}
	weights := maps.Clone(r.defaults)
	if preset != "" && preset != "default" {
		p, ok := r.presets[preset]
		if !ok {
			return nil, errors.NewValidationError(errors.ErrCodeUnknownPreset,
				fmt.Sprintf("unknown weight preset %q", preset), nil).WithContext("presets", r.PresetNames())
		}
		weights = MergeWeights(weights, p)
	}
	return MergeWeights(weights, custom), nil
}

// PresetNames returns the configured preset names, sorted, including "default"
func (r *WeightResolver) PresetNames() []string {
	names := []string{"default"}
	for name := range r.presets {
		if name != "default" {
			names = append(names, name)
		}
	}
	sort.Strings(names[1:])
	return names
}

// Preset returns the effective table for a preset
func (r *WeightResolver) Preset(name string) (map[string]float64, bool) {
	if name == "" || name == "default" {
		return maps.Clone(r.defaults), true
	}
	p, ok := r.presets[name]
	if !ok {
		return nil, false
	}
	return MergeWeights(r.defaults, p), true
}

func clonePresets(in map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(in))
	for k, v := range in {
		out[k] = maps.Clone(v)
	}
	return out
}

// Recommendation labels
const (
	RecommendStrongHire = "Strong Hire"
	RecommendHire       = "Hire"
	RecommendMaybe      = "Maybe"
	RecommendNoHire     = "No Hire"
	RecommendIncomplete = "Analysis Incomplete"
)

// Thresholds partition [0,100] into four recommendation bands
type Thresholds struct {
	Excellent float64 `mapstructure:"excellent" json:"excellent"`
	Good      float64 `mapstructure:"good" json:"good"`
	Average   float64 `mapstructure:"average" json:"average"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 85, Good: 70, Average: 55}
}

// Validate requires 0 <= average <= good <= excellent <= 100
func (t Thresholds) Validate() error {
	if t.Average < 0 || t.Excellent > 100 || t.Average > t.Good || t.Good > t.Excellent {
		return errors.NewValidationError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("thresholds must satisfy 0 <= average (%v) <= good (%v) <= excellent (%v) <= 100",
				t.Average, t.Good, t.Excellent), nil)
	}
	return nil
}

// Recommend maps a clamped score to its band
func (t Thresholds) Recommend(score float64) string {
	switch {
	case score >= t.Excellent:
		return RecommendStrongHire
	case score >= t.Good:
		return RecommendHire
	case score >= t.Average:
		return RecommendMaybe
	default:
		return RecommendNoHire
	}
}

// Band returns the ordinal of a recommendation, lowest first. Unknown labels are -1.
func Band(recommendation string) int {
	switch recommendation {
	case RecommendNoHire:
		return 0
	case RecommendMaybe:
		return 1
	case RecommendHire:
		return 2
	case RecommendStrongHire:
		return 3
	default:
		return -1
	}
}
