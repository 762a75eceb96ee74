// Package transcript normalises speech-to-text output into documents.
// It understands WebVTT, SubRip (SRT) and plain text transcripts.
package transcript

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Format is a transcript file format.
type Format string

// Transcript formats.
const (
	FormatPlain  Format = "text"
	FormatSRT    Format = "srt"
	FormatWebVTT Format = "vtt"
)

var (
	voiceTag  = regexp.MustCompile(`<v(?:\.[^\s>]*)?\s+([^>]+)>`)
	markupTag = regexp.MustCompile(`<[^>]*>|\{\\[^}]*\}`)
	spaces    = regexp.MustCompile(`[ \t]+`)
)

// Normaliser turns transcript files into documents.
type Normaliser struct{}

// New creates a new transcript normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".srt", ".vtt"}
}

// Normalise extracts the spoken text from a transcript file.
// The display name is derived from the file name.
func (n *Normaliser) Normalise(_ context.Context, filename string, data []byte) (*domain.Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrInvalidInput, filepath.Base(filename))
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	doc := &domain.Document{
		DisplayName: DisplayName(filename),
	}

	switch Detect(filename, text) {
	case FormatWebVTT:
		doc.FullText, doc.Language = parseCues(text, true)
	case FormatSRT:
		doc.FullText, _ = parseCues(text, false)
	default:
		doc.FullText = parsePlain(text)
	}

	if strings.TrimSpace(doc.FullText) == "" {
		return nil, fmt.Errorf("%w: %s contains no transcript text", domain.ErrInvalidInput, filepath.Base(filename))
	}
	return doc, nil
}

// Detect determines the transcript format from the extension, falling
// back to the content.
func Detect(filename, text string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".vtt":
		return FormatWebVTT
	case ".srt":
		return FormatSRT
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "WEBVTT") {
		return FormatWebVTT
	}
	for _, line := range strings.SplitN(trimmed, "\n", 4) {
		if strings.Contains(line, "-->") {
			return FormatSRT
		}
	}
	return FormatPlain
}

// DisplayName derives a human-readable name from a file path.
func DisplayName(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

// parseCues extracts cue text from SRT or WebVTT content. Cue numbers,
// identifiers, timings and markup are dropped. A change of speaker starts
// a new paragraph. For WebVTT the header's Language value is returned.
func parseCues(text string, vtt bool) (string, string) {
	var (
		paragraphs []string
		current    []string
		lastCue    string
		speaker    string
		language   string
	)

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}

	for i, block := range strings.Split(text, "\n\n") {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}

		if vtt {
			if i == 0 && strings.HasPrefix(lines[0], "WEBVTT") {
				language = headerLanguage(lines[1:])
				continue
			}
			if isMetadataBlock(lines[0]) {
				continue
			}
		}

		timing := -1
		for j, line := range lines {
			if strings.Contains(line, "-->") {
				timing = j
				break
			}
		}
		if timing < 0 {
			continue
		}

		cue := cleanCue(strings.Join(lines[timing+1:], " "))
		if cue == "" || cue == lastCue {
			continue
		}
		lastCue = cue

		if name, _, ok := strings.Cut(cue, ": "); ok && isSpeakerLabel(name) && name != speaker {
			flush()
			speaker = name
		}
		current = append(current, cue)
	}
	flush()

	return strings.Join(paragraphs, "\n\n"), language
}

func parsePlain(text string) string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}
		paragraphs = append(paragraphs, spaces.ReplaceAllString(strings.Join(lines, " "), " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

func cleanCue(cue string) string {
	cue = voiceTag.ReplaceAllString(cue, "$1: ")
	cue = markupTag.ReplaceAllString(cue, "")
	cue = html.UnescapeString(cue)
	cue = strings.ReplaceAll(cue, "\u00a0", " ")
	return strings.TrimSpace(spaces.ReplaceAllString(cue, " "))
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isMetadataBlock(first string) bool {
	for _, prefix := range []string{"NOTE", "STYLE", "REGION"} {
		if first == prefix || strings.HasPrefix(first, prefix+" ") {
			return true
		}
	}
	return false
}

func headerLanguage(lines []string) string {
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "Language") {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// isSpeakerLabel reports whether s looks like a short speaker name.
func isSpeakerLabel(s string) bool {
	return s != "" && utf8.RuneCountInString(s) <= 40 && !strings.ContainsAny(s, ".!?")
}
