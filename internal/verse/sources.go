package verse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Named verse-of-the-day providers. Scraping heuristics are best-effort;
// any miss surfaces as a resolution error (fatal to the session).
const (
	SourceYouVersion = "YouVersion"
	SourceGateway    = "Gateway"
	SourceOliveTree  = "Olive Tree"
)

const votdUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type votdSources struct {
	client *http.Client
}

func newVOTDSources() *votdSources {
	return &votdSources{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch returns the verse of the day from a named provider.
func (s *votdSources) Fetch(ctx context.Context, source string) (*Verse, error) {
	var (
		v   *Verse
		err error
	)
	switch source {
	case SourceYouVersion:
		v, err = s.fetchYouVersion(ctx)
	case SourceGateway:
		v, err = s.fetchBibleGateway(ctx)
	case SourceOliveTree:
		v, err = s.fetchOliveTree(ctx)
	default:
		return nil, fmt.Errorf("unknown verse source: %s", source)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch verse of the day from %s: %w", source, err)
	}
	return v, nil
}

func (s *votdSources) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", votdUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var youVersionAltPattern = regexp.MustCompile(`(?i)alt="([^"]+\d+:\d+)\s*-\s*([^"]+)"`)

func (s *votdSources) fetchYouVersion(ctx context.Context) (*Verse, error) {
	body, err := s.get(ctx, "https://www.bible.com/verse-of-the-day")
	if err != nil {
		return nil, err
	}

	// Pattern: alt="Isaiah 7:14 - Therefore the Lord himself will give you..."
	if m := youVersionAltPattern.FindSubmatch(body); m != nil {
		return &Verse{
			Reference: strings.TrimSpace(string(m[1])),
			Text:      strings.TrimSpace(string(m[2])),
			Version:   "NIV",
		}, nil
	}
	return nil, fmt.Errorf("verse markup not found")
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	htmlEntityPattern = regexp.MustCompile(`&#\d+;|&\w+;`)
)

func (s *votdSources) fetchBibleGateway(ctx context.Context) (*Verse, error) {
	body, err := s.get(ctx, "https://www.biblegateway.com/votd/get/?format=json&version=NIV")
	if err != nil {
		return nil, err
	}

	var payload struct {
		VOTD struct {
			Text       string `json:"text"`
			Reference  string `json:"reference"`
			DisplayRef string `json:"display_ref"`
		} `json:"votd"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unexpected votd payload: %w", err)
	}
	if payload.VOTD.Text == "" {
		return nil, fmt.Errorf("empty votd text")
	}

	text := htmlTagPattern.ReplaceAllString(payload.VOTD.Text, "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = htmlEntityPattern.ReplaceAllString(text, "")

	reference := payload.VOTD.Reference
	if reference == "" {
		reference = payload.VOTD.DisplayRef
	}
	if reference == "" {
		return nil, fmt.Errorf("votd missing reference")
	}

	return &Verse{
		Reference: reference,
		Text:      strings.TrimSpace(text),
		Version:   "NIV",
	}, nil
}

var (
	oliveTreeRefPattern  = regexp.MustCompile(`(?is)Verse of the Day\s*</[^>]+>\s*<[^>]+>([A-Za-z0-9\s]+\d+:\d+(?:-\d+)?)`)
	oliveTreeBookPattern = regexp.MustCompile(`(?i)>((?:Genesis|Exodus|Leviticus|Numbers|Deuteronomy|Joshua|Judges|Ruth|1 Samuel|2 Samuel|1 Kings|2 Kings|1 Chronicles|2 Chronicles|Ezra|Nehemiah|Esther|Job|Psalms?|Proverbs|Ecclesiastes|Song of Solomon|Isaiah|Jeremiah|Lamentations|Ezekiel|Daniel|Hosea|Joel|Amos|Obadiah|Jonah|Micah|Nahum|Habakkuk|Zephaniah|Haggai|Zechariah|Malachi|Matthew|Mark|Luke|John|Acts|Romans|1 Corinthians|2 Corinthians|Galatians|Ephesians|Philippians|Colossians|1 Thessalonians|2 Thessalonians|1 Timothy|2 Timothy|Titus|Philemon|Hebrews|James|1 Peter|2 Peter|1 John|2 John|3 John|Jude|Revelation)\s+\d+:\d+(?:-\d+)?)<`)
	oliveTreeTextPattern = regexp.MustCompile(`(?i)>([A-Z][^<]{30,})<`)
)

func (s *votdSources) fetchOliveTree(ctx context.Context) (*Verse, error) {
	body, err := s.get(ctx, "https://www.olivetree.com/votd/")
	if err != nil {
		return nil, err
	}
	html := string(body)

	reference := ""
	if m := oliveTreeRefPattern.FindStringSubmatch(html); m != nil {
		reference = strings.TrimSpace(m[1])
	} else if m := oliveTreeBookPattern.FindStringSubmatch(html); m != nil {
		reference = strings.TrimSpace(m[1])
	}
	if reference == "" {
		return nil, fmt.Errorf("verse markup not found")
	}

	// The verse text is the next significant text block after the reference.
	if _, after, found := strings.Cut(html, reference); found {
		if m := oliveTreeTextPattern.FindStringSubmatch(after); m != nil {
			return &Verse{
				Reference: reference,
				Text:      strings.TrimSpace(m[1]),
				Version:   "NIV",
			}, nil
		}
	}
	return nil, fmt.Errorf("verse text not found for %s", reference)
}
