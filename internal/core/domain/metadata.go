package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Metadata is the closed description of a document's origin.
// Fields shared by every source are top level; source specific fields live
// in the matching optional section. Keys nobody models land in Extra.
//
// On the wire (JSON, YAML imports, SQLite) metadata is a flat object, e.g.
// {"source": "arxiv", "paper_id": "2301.00001", "authors": [...]}.
type Metadata struct {
	Source      string
	Authors     []string
	Categories  []string
	Topics      []string
	Abstract    string
	Summary     string
	Description string

	// Published and CreatedAt are ISO-8601 like strings compared
	// lexicographically by date range filters.
	Published string
	CreatedAt string

	Arxiv     *ArxivMetadata
	GitHub    *GitHubMetadata
	Wikipedia *WikipediaMetadata

	// Extra holds unmodelled keys for forward compatibility.
	Extra map[string]any
}

// ArxivMetadata holds fields specific to arXiv papers.
type ArxivMetadata struct {
	PaperID string
	PDFURL  string
	DOI     string
}

// GitHubMetadata holds fields specific to GitHub repositories.
type GitHubMetadata struct {
	RepoID   string
	FullName string
	Language string
	Stars    int
	HTMLURL  string
}

// WikipediaMetadata holds fields specific to Wikipedia articles.
type WikipediaMetadata struct {
	URL string
}

// Labels returns categories followed by topics.
func (m Metadata) Labels() []string {
	if len(m.Topics) == 0 {
		return m.Categories
	}
	out := make([]string, 0, len(m.Categories)+len(m.Topics))
	out = append(out, m.Categories...)
	return append(out, m.Topics...)
}

// SourceOrUnknown returns the source, or SourceUnknown when none is set.
func (m Metadata) SourceOrUnknown() string {
	if m.Source == "" {
		return SourceUnknown
	}
	return m.Source
}

// Date returns Published, falling back to CreatedAt.
func (m Metadata) Date() string {
	if m.Published != "" {
		return m.Published
	}
	return m.CreatedAt
}

// Validate checks that source specific sections match the source.
func (m Metadata) Validate() error {
	if m.Arxiv != nil && m.Source != SourceArxiv {
		return fmt.Errorf("%w: arxiv metadata on %q document", ErrInvalidInput, m.Source)
	}
	if m.GitHub != nil && m.Source != SourceGitHub {
		return fmt.Errorf("%w: github metadata on %q document", ErrInvalidInput, m.Source)
	}
	if m.Wikipedia != nil && m.Source != SourceWikipedia {
		return fmt.Errorf("%w: wikipedia metadata on %q document", ErrInvalidInput, m.Source)
	}
	if m.GitHub != nil && m.GitHub.Stars < 0 {
		return fmt.Errorf("%w: negative star count", ErrInvalidInput)
	}
	return nil
}

// Flat keys shared by all sources.
const (
	keySource      = "source"
	keyAuthors     = "authors"
	keyCategories  = "categories"
	keyTopics      = "topics"
	keyAbstract    = "abstract"
	keySummary     = "summary"
	keyDescription = "description"
	keyPublished   = "published"
	keyCreatedAt   = "created_at"
)

// ParseMetadata builds Metadata from a flat key/value map such as decoded
// JSON or YAML. Source specific keys are only recognised for their source;
// on any other source they are kept in Extra.
func ParseMetadata(raw map[string]any) (Metadata, error) {
	var m Metadata
	var err error
	rest := make(map[string]any, len(raw))
	for k, v := range raw {
		rest[k] = v
	}

	take := func(key string) (any, bool) {
		v, ok := rest[key]
		delete(rest, key)
		return v, ok && v != nil
	}
	str := func(key string) string {
		if err != nil {
			return ""
		}
		v, ok := take(key)
		if !ok {
			return ""
		}
		var s string
		s, err = toString(key, v)
		return s
	}
	list := func(key string) []string {
		if err != nil {
			return nil
		}
		v, ok := take(key)
		if !ok {
			return nil
		}
		var l []string
		l, err = toStringSlice(key, v)
		return l
	}

	m.Source = str(keySource)
	m.Authors = list(keyAuthors)
	m.Categories = list(keyCategories)
	m.Topics = list(keyTopics)
	m.Abstract = str(keyAbstract)
	m.Summary = str(keySummary)
	m.Description = str(keyDescription)
	m.Published = str(keyPublished)
	m.CreatedAt = str(keyCreatedAt)

	switch m.Source {
	case SourceArxiv:
		a := ArxivMetadata{PaperID: str("paper_id"), PDFURL: str("pdf_url"), DOI: str("doi")}
		if a != (ArxivMetadata{}) {
			m.Arxiv = &a
		}
	case SourceGitHub:
		g := GitHubMetadata{
			RepoID:   str("repo_id"),
			FullName: str("full_name"),
			Language: str("language"),
			HTMLURL:  str("html_url"),
		}
		if v, ok := take("stars"); ok && err == nil {
			g.Stars, err = toInt("stars", v)
		}
		if g != (GitHubMetadata{}) {
			m.GitHub = &g
		}
	case SourceWikipedia:
		if u := str("url"); u != "" {
			m.Wikipedia = &WikipediaMetadata{URL: u}
		}
	}
	if err != nil {
		return Metadata{}, err
	}

	if len(rest) > 0 {
		m.Extra = rest
	}
	return m, m.Validate()
}

// Map flattens the metadata back into its wire form.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.Extra)+12)
	for k, v := range m.Extra {
		out[k] = v
	}
	set := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	setList := func(key string, v []string) {
		if len(v) > 0 {
			out[key] = v
		}
	}

	set(keySource, m.Source)
	setList(keyAuthors, m.Authors)
	setList(keyCategories, m.Categories)
	setList(keyTopics, m.Topics)
	set(keyAbstract, m.Abstract)
	set(keySummary, m.Summary)
	set(keyDescription, m.Description)
	set(keyPublished, m.Published)
	set(keyCreatedAt, m.CreatedAt)

	if a := m.Arxiv; a != nil {
		set("paper_id", a.PaperID)
		set("pdf_url", a.PDFURL)
		set("doi", a.DOI)
	}
	if g := m.GitHub; g != nil {
		set("repo_id", g.RepoID)
		set("full_name", g.FullName)
		set("language", g.Language)
		set("html_url", g.HTMLURL)
		out["stars"] = g.Stars
	}
	if w := m.Wikipedia; w != nil {
		set("url", w.URL)
	}
	return out
}

// MarshalJSON writes metadata as a flat object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// UnmarshalJSON reads metadata from a flat object.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMetadata(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func toString(key string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case bool:
		return strconv.FormatBool(t), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("%w: metadata %q must be a string, got %T", ErrInvalidInput, key, v)
	}
}

// toStringSlice accepts a list, or a single comma separated string.
func toStringSlice(key string, v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return t, nil
	case string:
		var out []string
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, err := toString(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: metadata %q must be a list, got %T", ErrInvalidInput, key, v)
	}
}

func toInt(key string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: metadata %q must be an integer", ErrInvalidInput, key)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("%w: metadata %q must be an integer", ErrInvalidInput, key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: metadata %q must be an integer, got %T", ErrInvalidInput, key, v)
	}
}

// SortedKeys returns the keys of a count map ordered by count descending,
// then key ascending.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
