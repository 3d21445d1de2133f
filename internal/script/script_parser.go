package script

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ScriptLine is one tagged spoken line of a multi-speaker script
type ScriptLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ParsedScript is the result of parsing a script: the ordered spoken lines
// and the distinct speaker set in alphabetical order
type ParsedScript struct {
	Lines      []ScriptLine `json:"lines"`
	Characters []string     `json:"characters"`
}

// IsMultiSpeaker reports whether the script declared more than one character
func (p ParsedScript) IsMultiSpeaker() bool {
	return len(p.Characters) > 1
}

// Parser detects multi-speaker scripts written as tagged lines of the form
// "[NAME]: text" and extracts the speaker/text pairs
type Parser struct {
	logger *zap.Logger
	// Pre-compiled regex for performance
	tagRegex *regexp.Regexp
}

// Tag pattern: optional bold/bracket decoration around a run of letters,
// spaces, and hyphens, followed by a colon and the spoken text. Lines that
// do not match are ignored; every spoken line must be fully tagged.
const tagPattern = `(?i)^\s*(?:\*\*)?\[?([a-z][a-z \-]*)\]?(?:\*\*)?\s*:\s*(.+)$`

// NewParser creates a new script Parser
func NewParser() *Parser {
	return &Parser{
		logger:   zap.NewNop(), // Default to no-op logger
		tagRegex: regexp.MustCompile(tagPattern),
	}
}

// NewParserWithLogger creates a new script Parser with the given logger
func NewParserWithLogger(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Parser{
		logger:   logger,
		tagRegex: regexp.MustCompile(tagPattern),
	}
}

// Parse extracts the ordered speaker/text pairs and distinct speaker set
// from a tagged script. Malformed or empty input yields an empty result,
// never an error.
func (p *Parser) Parse(text string) ParsedScript {
	result := ParsedScript{
		Lines:      []ScriptLine{},
		Characters: []string{},
	}

	if strings.TrimSpace(text) == "" {
		return result
	}

	seen := make(map[string]bool)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		matches := p.tagRegex.FindStringSubmatch(line)
		if len(matches) < 3 {
			p.logger.Debug("ignoring untagged script line",
				zap.String("line", line))
			continue
		}

		speaker := strings.ToUpper(strings.TrimSpace(matches[1]))
		spoken := strings.TrimSpace(matches[2])
		if speaker == "" || spoken == "" {
			continue
		}

		result.Lines = append(result.Lines, ScriptLine{
			Speaker: speaker,
			Text:    spoken,
		})

		if !seen[speaker] {
			seen[speaker] = true
			result.Characters = append(result.Characters, speaker)
		}
	}

	sort.Strings(result.Characters)

	p.logger.Debug("parsed script",
		zap.Int("line_count", len(result.Lines)),
		zap.Strings("characters", result.Characters))

	return result
}
