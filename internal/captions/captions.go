// Package captions extracts deduplicated spoken text from timed-text caption
// files. Auto-generated captions repeat lines across overlapping cues, so
// both parsers keep only the first occurrence of each line.
package captions

import (
	"regexp"
	"strings"
)

// inlineTagRe matches inline markup (<c>, <i>, <00:00:01.000>, ...) found in
// auto-generated caption text.
var inlineTagRe = regexp.MustCompile(`<[^>]+>`)

// vttMetadataRe matches WebVTT metadata lines such as "Kind: captions" and
// "Language: en".
var vttMetadataRe = regexp.MustCompile(`^(Kind|Language):`)

// ParseSRT extracts spoken text from SRT content: sequence numbers, timing
// lines, and repeated lines are dropped, inline tags stripped, and the
// remaining lines joined with single spaces in first-occurrence order.
func ParseSRT(content string) string {
	return parse(content, false)
}

// ParseVTT is ParseSRT for WebVTT content; it additionally drops the WEBVTT
// header, NOTE comments, metadata lines, and cue-settings lines that open
// with a tag.
func ParseVTT(content string) string {
	return parse(content, true)
}

func parse(content string, vtt bool) string {
	var kept []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isNumeric(line) || strings.Contains(line, "-->") {
			continue
		}
		if vtt && skipVTTLine(line) {
			continue
		}

		line = strings.TrimSpace(inlineTagRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		kept = append(kept, line)
	}

	return strings.Join(kept, " ")
}

func skipVTTLine(line string) bool {
	if strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") {
		return true
	}
	if vttMetadataRe.MatchString(line) {
		return true
	}
	// Lines that open with a tag carry cue settings or positioning, not text.
	return strings.HasPrefix(line, "<")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
