package catalog

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/repository"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MediaMap maps a name slug to the demo media of that exercise.
type MediaMap map[string]domain.Media

// mediaEntry accepts both media file shapes: {"youtubeShort": "<id>"} and
// {"exercise": "<name>", "youtube": "<url>"}.
type mediaEntry struct {
	YouTubeShort string `json:"youtubeShort"`
	YouTube      string `json:"youtube"`
	Exercise     string `json:"exercise"`
}

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9]+`)
	ytQueryID  = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{6,})`)
	ytPathID   = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:embed/|shorts/))([A-Za-z0-9_-]{6,})`)
	ytRawID    = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	slugFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

// Slugify turns an exercise name into its media key, e.g.
// "Stability Ball Russian Twist" -> "stability-ball-russian-twist".
func Slugify(name string) string {
	folded, _, err := transform.String(slugFolder, name)
	if err != nil {
		folded = name
	}
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}

// YouTubeID extracts a video id from a watch, short, embed or youtu.be URL,
// or accepts a raw id. It returns "" when nothing matches.
func YouTubeID(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if m := ytQueryID.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := ytPathID.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if ytRawID.MatchString(url) {
		return url
	}
	return ""
}

// LoadMedia decodes a media map. Entries without a usable video are skipped.
func LoadMedia(r io.Reader) (MediaMap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read media map: %w", err)
	}
	var raw map[string]mediaEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &repository.DecodeError{Source: "media", Err: err}
	}

	out := make(MediaMap, len(raw))
	for key, e := range raw {
		m := domain.Media{URL: strings.TrimSpace(e.YouTube)}
		if e.YouTubeShort != "" {
			m.YouTubeID = YouTubeID(e.YouTubeShort)
		} else {
			m.YouTubeID = YouTubeID(e.YouTube)
		}
		if m.YouTubeID == "" && m.URL == "" {
			continue
		}
		if m.URL == "" {
			m.URL = "https://youtube.com/shorts/" + m.YouTubeID
		}
		slug := Slugify(key)
		if e.Exercise != "" {
			slug = Slugify(e.Exercise)
		}
		out[slug] = m
	}
	return out, nil
}

// AttachMedia returns copies of records with media set from the map, keyed
// by id first and name slug second. Records that already carry media keep it.
func AttachMedia(records []domain.Exercise, media MediaMap) []domain.Exercise {
	out := make([]domain.Exercise, len(records))
	for i, r := range records {
		r = r.Clone()
		if r.Media == nil && len(media) > 0 {
			m, ok := media[Slugify(r.ID)]
			if !ok {
				m, ok = media[Slugify(r.Name)]
			}
			if ok {
				r.Media = &m
			}
		}
		out[i] = r
	}
	return out
}
