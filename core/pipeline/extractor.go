package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/siherrmann/preserver/model"
)

// measurementRule is one tier of a pattern cascade. Tiers are tried in
// order, the first tier whose pattern matches and parses wins.
type measurementRule struct {
	pattern *regexp.Regexp
	isRange bool
}

// organismNames are the known microorganism and spoilage agent mentions,
// scanned in this order.
var organismNames = []string{
	"Zygosaccharomyces bailii",
	"E. coli",
	"Salmonella",
	"Listeria",
	"Staphylococcus aureus",
	"Clostridium",
	"Pseudomonas",
	"Bacillus",
	"levadura",
	"bacteria",
	"hongo",
	"moho",
	"patógeno",
}

// conservantNames are the known preservative mentions, scanned in this order.
var conservantNames = []string{
	"benzoato",
	"sorbato",
	"nisina",
	"extracto",
	"aceite esencial",
	"essential oil",
	"eugenol",
	"carvacrol",
	"timol",
	"ácido sórbico",
	"ácido benzoico",
}

type factExtractor struct {
	acidityRules       []measurementRule
	waterActivityRules []measurementRule
	concentration      *regexp.Regexp
}

// NewFactExtractor creates an extractor that recognizes acidity and water
// activity measurements, concentration values and known organism and
// conservant mentions in chunk text. All patterns are case insensitive, a
// range tier is tried before the single value tier and the first matching
// tier wins. Extraction is pure, a chunk without recognizable facts yields
// an empty record.
func NewFactExtractor() ExtractFunc {
	e := &factExtractor{
		acidityRules: []measurementRule{
			{
				pattern: regexp.MustCompile(`(?i)pH\s*(?:=|:|between|of)?\s*(\d+\.?\d*)\s*(?:–|-|to)\s*(\d+\.?\d*)`),
				isRange: true,
			},
			{
				pattern: regexp.MustCompile(`(?i)pH\s*(?:=|:|of)?\s*(\d+\.?\d*)`),
			},
		},
		waterActivityRules: []measurementRule{
			{
				pattern: regexp.MustCompile(`(?i)(?:aw|water\s*activity)\s*(?:=|:|between|of)?\s*(0\.\d+)\s*(?:–|-|to)?\s*(0\.\d+)`),
				isRange: true,
			},
			{
				pattern: regexp.MustCompile(`(?i)(?:aw|water\s*activity)\s*(?:=|:|of)?\s*(0\.\d+)`),
			},
		},
		concentration: regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(ppm|mg/kg|%|g/kg|µL/g)`),
	}
	return e.extract
}

func (e *factExtractor) extract(text string) *model.ExtractedMetadata {
	extracted := &model.ExtractedMetadata{
		Acidity:        matchMeasurement(e.acidityRules, text),
		WaterActivity:  matchMeasurement(e.waterActivityRules, text),
		Microorganisms: scanMentions(organismNames, text),
		Conservants:    scanMentions(conservantNames, text),
	}

	if match := e.concentration.FindStringSubmatch(text); match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			extracted.Concentration = &model.Concentration{Value: value, Unit: match[2]}
		}
	}
	extracted.HasNumericData = extracted.Concentration != nil

	return extracted
}

// matchMeasurement tries the rules in order. A tier whose numbers fail to
// parse counts as no match and falls through to the next tier.
func matchMeasurement(rules []measurementRule, text string) *model.Measurement {
	for _, rule := range rules {
		match := rule.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		if rule.isRange {
			min, errMin := strconv.ParseFloat(match[1], 64)
			max, errMax := strconv.ParseFloat(match[2], 64)
			if errMin != nil || errMax != nil {
				continue
			}
			return model.NewRangeMeasurement(min, max)
		}

		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return model.NewScalarMeasurement(value)
	}
	return nil
}

// scanMentions returns the names contained in the text, case insensitive,
// preserving the order of the name list. Returns nil when nothing matches.
func scanMentions(names []string, text string) []string {
	lowered := strings.ToLower(text)

	var found []string
	for _, name := range names {
		if strings.Contains(lowered, strings.ToLower(name)) {
			found = append(found, name)
		}
	}
	return found
}
