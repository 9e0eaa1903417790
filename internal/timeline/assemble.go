package timeline

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ivlev/beat2video/internal/textlayout"
)

// Segment is one entry returned by script segmentation.
type Segment struct {
	Caption      string
	SearchPhrase string
	DurationHint float64
}

// CreditsSearchPhrase is the visual query attached to generated credits beats.
const CreditsSearchPhrase = "Cinema credits on dark background"

// Assemble builds the beat list for a processed script: an optional title
// beat, one beat per segment and a mandatory credits beat. Every beat gets
// the global duration and a zero offset; duration hints are ignored.
func Assemble(title, credits string, segments []Segment, duration float64) []Beat {
	beats := make([]Beat, 0, len(segments)+2)

	if strings.TrimSpace(textlayout.PlainText(title)) != "" {
		beats = append(beats, Beat{
			ID:              TitlePrefix + uuid.NewString(),
			DurationSeconds: duration,
			Caption:         title,
		})
	}

	for _, s := range segments {
		beats = append(beats, Beat{
			ID:              uuid.NewString(),
			DurationSeconds: duration,
			Caption:         s.Caption,
			SearchPhrase:    s.SearchPhrase,
		})
	}

	beats = append(beats, Beat{
		ID:              CreditsPrefix + uuid.NewString(),
		DurationSeconds: duration,
		Caption:         credits,
		SearchPhrase:    CreditsSearchPhrase,
	})
	return beats
}

// SegmentScript is the local stand-in for the segmentation service. It cuts
// plain text into segments of roughly wordsPerBeat words, closing a segment
// only at a sentence end once the target is reached. Paragraph breaks always
// close the current segment.
func SegmentScript(script string, wordsPerBeat int) []Segment {
	if wordsPerBeat <= 0 {
		wordsPerBeat = 30
	}

	var segments []Segment
	flush := func(words []string) {
		if len(words) == 0 {
			return
		}
		caption := strings.Join(words, " ")
		segments = append(segments, Segment{Caption: caption, SearchPhrase: searchPhrase(words)})
	}

	for _, para := range strings.Split(textlayout.PlainText(script), "\n") {
		var current []string
		for _, w := range strings.Fields(para) {
			current = append(current, w)
			if len(current) >= wordsPerBeat && endsSentence(w) {
				flush(current)
				current = nil
			}
		}
		flush(current)
	}
	return segments
}

func endsSentence(word string) bool {
	r := []rune(word)
	if len(r) == 0 {
		return false
	}
	switch r[len(r)-1] {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

// searchPhrase keeps the first few long words as a crude visual query.
func searchPhrase(words []string) string {
	var picked []string
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(w)) < 5 {
			continue
		}
		picked = append(picked, strings.ToLower(w))
		if len(picked) == 4 {
			break
		}
	}
	return strings.Join(picked, " ")
}
