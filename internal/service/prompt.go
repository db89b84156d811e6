package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"cropadvisor/internal/model"
	"cropadvisor/internal/utils"
)

// Fallback strings substituted when a section cannot be extracted from the
// model reply. One fixed phrase per field.
const (
	FallbackCause      = "Unable to determine cause"
	FallbackSymptoms   = "Symptoms could not be identified"
	FallbackImmediate  = "Isolate affected plants and monitor the field closely"
	FallbackChemical   = "Consult local agriculture office"
	FallbackOrganic    = "Apply a neem-based organic spray"
	FallbackPrevention = "Practice crop rotation and field hygiene"
)

// adviceLabels are the six section labels the model is asked to emit,
// in reply order
var adviceLabels = []string{"CAUSE", "SYMPTOMS", "IMMEDIATE", "CHEMICAL", "ORGANIC", "PREVENTION"}

// labelPatterns extracts the text after each label up to a blank line, the
// next label, or end of text. Matching is case-insensitive, spans lines,
// and tolerates markdown emphasis around the label.
var labelPatterns = buildLabelPatterns()

func buildLabelPatterns() map[string]*regexp.Regexp {
	alternation := strings.Join(adviceLabels, "|")
	patterns := make(map[string]*regexp.Regexp, len(adviceLabels))
	for _, label := range adviceLabels {
		patterns[label] = regexp.MustCompile(
			`(?is)\b` + label + `\b[ \t*]*:[ \t*]*(.*?)` +
				`(?:\r?\n[ \t]*\r?\n|[ \t\r\n*]*\b(?:` + alternation + `)\b[ \t*]*:|\z)`,
		)
	}
	return patterns
}

const advicePromptTemplate = `You are an experienced agricultural advisor helping smallholder farmers.

A crop disease detection system has produced this diagnosis:
- Crop: %s
- Disease: %s
- Severity: %s
- Detection confidence: %d%%

Give practical remediation advice for this diagnosis. Reply using exactly
these six labeled sections, each a single short sentence (SYMPTOMS may list
2-3 visible signs):

CAUSE: what causes this disease
SYMPTOMS: the visible signs on the plant
IMMEDIATE: what the farmer should do right now
CHEMICAL: a chemical treatment option
ORGANIC: an organic treatment option
PREVENTION: how to avoid this disease next season`

const lowConfidenceCaution = `

Since the detection confidence is below 60%, include a mild caution about
detection uncertainty in the IMMEDIATE section.`

// ConfidencePercent renders a [0,1] confidence as a whole-number percentage
func ConfidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// BuildAdvicePrompt turns a detection record into the advisor prompt
func BuildAdvicePrompt(in model.DetectionInput) string {
	percent := ConfidencePercent(in.Confidence)
	prompt := fmt.Sprintf(advicePromptTemplate, in.Crop, in.Disease, in.Severity, percent)
	if percent < 60 {
		prompt += lowConfidenceCaution
	}
	return prompt
}

// adviceReplyJSON mirrors AdviceFields for the structured reply path
type adviceReplyJSON struct {
	Cause      string `json:"cause"`
	Symptoms   string `json:"symptoms"`
	Immediate  string `json:"immediate"`
	Chemical   string `json:"chemical"`
	Organic    string `json:"organic"`
	Prevention string `json:"prevention"`
}

// ParseAdviceReply extracts the six advice fields from raw model output.
// It tries a structured JSON reply first, then falls back to labeled-section
// extraction. Missing sections are masked by their fallback strings; only an
// empty reply is an error.
func ParseAdviceReply(reply string) (model.AdviceFields, error) {
	if strings.TrimSpace(reply) == "" {
		return model.AdviceFields{}, &ParseError{Reason: "empty reply"}
	}

	fields, ok := parseStructuredReply(reply)
	if !ok {
		fields = parseLabeledReply(reply)
	}

	applyFallbacks(&fields)
	return fields, nil
}

// parseStructuredReply accepts a JSON object carrying the six keys. It is
// only taken when at least one key has content, so a stray JSON snippet in
// a labeled reply cannot mask the labels.
func parseStructuredReply(reply string) (model.AdviceFields, bool) {
	var parsed adviceReplyJSON
	if err := utils.ExtractJSON(reply, &parsed); err != nil {
		return model.AdviceFields{}, false
	}

	fields := model.AdviceFields{
		Cause:      strings.TrimSpace(parsed.Cause),
		Symptoms:   strings.TrimSpace(parsed.Symptoms),
		Immediate:  strings.TrimSpace(parsed.Immediate),
		Chemical:   strings.TrimSpace(parsed.Chemical),
		Organic:    strings.TrimSpace(parsed.Organic),
		Prevention: strings.TrimSpace(parsed.Prevention),
	}

	if fields == (model.AdviceFields{}) {
		return model.AdviceFields{}, false
	}
	return fields, true
}

// parseLabeledReply runs the six label patterns over the reply
func parseLabeledReply(reply string) model.AdviceFields {
	return model.AdviceFields{
		Cause:      extractSection(reply, "CAUSE"),
		Symptoms:   extractSection(reply, "SYMPTOMS"),
		Immediate:  extractSection(reply, "IMMEDIATE"),
		Chemical:   extractSection(reply, "CHEMICAL"),
		Organic:    extractSection(reply, "ORGANIC"),
		Prevention: extractSection(reply, "PREVENTION"),
	}
}

// extractSection returns the trimmed text after a label, or "" when the
// label is absent
func extractSection(reply, label string) string {
	matches := labelPatterns[label].FindStringSubmatch(reply)
	if len(matches) < 2 {
		return ""
	}
	value := strings.TrimSpace(matches[1])
	// Strip markdown emphasis left around the value
	value = strings.Trim(value, "*")
	return strings.TrimSpace(value)
}

// applyFallbacks fills every still-empty field with its fixed phrase
func applyFallbacks(fields *model.AdviceFields) {
	if fields.Cause == "" {
		fields.Cause = FallbackCause
	}
	if fields.Symptoms == "" {
		fields.Symptoms = FallbackSymptoms
	}
	if fields.Immediate == "" {
		fields.Immediate = FallbackImmediate
	}
	if fields.Chemical == "" {
		fields.Chemical = FallbackChemical
	}
	if fields.Organic == "" {
		fields.Organic = FallbackOrganic
	}
	if fields.Prevention == "" {
		fields.Prevention = FallbackPrevention
	}
}
