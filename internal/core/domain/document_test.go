package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Identity_ChunkIDWins(t *testing.T) {
	doc := Document{ChunkID: "chunk-42", Title: "Transformers", Metadata: Metadata{Source: SourceArxiv}}
	assert.Equal(t, "chunk-42", doc.Identity())
}

func TestDocument_Identity_DerivedHash(t *testing.T) {
	doc := Document{Title: "Transformers", Content: "Attention is all you need", Metadata: Metadata{Source: SourceArxiv}}

	sum := md5.Sum([]byte("arxiv:Transformers:Attention is all you need"))
	want := hex.EncodeToString(sum[:])[:12]

	assert.Equal(t, want, doc.Identity())
	assert.Len(t, doc.Identity(), 12)
}

// TestDocument_Identity_Stable re-derives the identity of an unchanged
// document on two separate calls.
func TestDocument_Identity_Stable(t *testing.T) {
	a := Document{Title: "Diffusion Models", Content: "Denoising", Metadata: Metadata{Source: SourceArxiv}}
	b := Document{Title: "Diffusion Models", Content: "Denoising", Metadata: Metadata{Source: SourceArxiv}}

	assert.Equal(t, a.Identity(), b.Identity())
	assert.Equal(t, a.Identity(), a.Identity())
}

func TestDocument_Identity_OnlyContentPrefixCounts(t *testing.T) {
	prefix := strings.Repeat("x", 100)
	a := Document{Title: "T", Content: prefix + " tail one"}
	b := Document{Title: "T", Content: prefix + " tail two"}
	c := Document{Title: "T", Content: prefix}

	assert.Equal(t, a.Identity(), b.Identity())
	assert.Equal(t, a.Identity(), c.Identity())
}

func TestDocument_Identity_SourceMatters(t *testing.T) {
	a := Document{Title: "T", Content: "body", Metadata: Metadata{Source: SourceArxiv}}
	b := Document{Title: "T", Content: "body", Metadata: Metadata{Source: SourceGitHub}}
	assert.NotEqual(t, a.Identity(), b.Identity())
}

func TestDocument_SearchableText(t *testing.T) {
	doc := Document{
		Title:   "Transformers",
		Content: "Attention layers",
		Metadata: Metadata{
			Source:      SourceArxiv,
			Authors:     []string{"Vaswani", "Shazeer"},
			Categories:  []string{"cs.CL"},
			Topics:      []string{"nlp"},
			Abstract:    "We propose",
			Description: "Seminal paper",
		},
	}

	assert.Equal(t,
		"Transformers Transformers Attention layers Vaswani Shazeer cs.CL nlp We propose Seminal paper",
		doc.SearchableText())
}

func TestDocument_SearchableText_SkipsEmpty(t *testing.T) {
	doc := Document{Content: "only body"}
	assert.Equal(t, "only body", doc.SearchableText())
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{"title only", Document{Title: "T"}, false},
		{"content only", Document{Content: "C"}, false},
		{"empty", Document{Title: "  ", Content: ""}, true},
		{"arxiv section on github", Document{Title: "T", Metadata: Metadata{Source: SourceGitHub, Arxiv: &ArxivMetadata{DOI: "x"}}}, true},
		{"github section on github", Document{Title: "T", Metadata: Metadata{Source: SourceGitHub, GitHub: &GitHubMetadata{Stars: 3}}}, false},
		{"wikipedia section on generic", Document{Title: "T", Metadata: Metadata{Source: SourceGeneric, Wikipedia: &WikipediaMetadata{URL: "u"}}}, true},
		{"negative stars", Document{Title: "T", Metadata: Metadata{Source: SourceGitHub, GitHub: &GitHubMetadata{Stars: -1}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDocument_Prepare_SetsID(t *testing.T) {
	doc := Document{Title: "T", Content: "C"}
	require.NoError(t, doc.Prepare())
	assert.Equal(t, doc.Identity(), doc.ID)
}

func TestParseMetadata_Arxiv(t *testing.T) {
	m, err := ParseMetadata(map[string]any{
		"source":     "arxiv",
		"paper_id":   "2301.00001",
		"authors":    []any{"Ada", "Alan"},
		"categories": []any{"cs.LG"},
		"published":  "2023-01-01",
		"doi":        "10.1/x",
		"venue":      "NeurIPS",
	})
	require.NoError(t, err)

	assert.Equal(t, SourceArxiv, m.Source)
	assert.Equal(t, []string{"Ada", "Alan"}, m.Authors)
	require.NotNil(t, m.Arxiv)
	assert.Equal(t, "2301.00001", m.Arxiv.PaperID)
	assert.Equal(t, "10.1/x", m.Arxiv.DOI)
	assert.Nil(t, m.GitHub)
	assert.Equal(t, map[string]any{"venue": "NeurIPS"}, m.Extra)
}

func TestParseMetadata_GitHubStars(t *testing.T) {
	m, err := ParseMetadata(map[string]any{
		"source":    "github",
		"full_name": "octo/repo",
		"stars":     float64(120),
		"repo_id":   float64(99),
		"topics":    []any{"ci", "actions"},
	})
	require.NoError(t, err)

	require.NotNil(t, m.GitHub)
	assert.Equal(t, 120, m.GitHub.Stars)
	assert.Equal(t, "99", m.GitHub.RepoID)
	assert.Equal(t, []string{"ci", "actions"}, m.Labels())
}

func TestParseMetadata_SourceSpecificKeysStayExtraOnOtherSources(t *testing.T) {
	m, err := ParseMetadata(map[string]any{"source": "generic", "doi": "10.1/x"})
	require.NoError(t, err)

	assert.Nil(t, m.Arxiv)
	assert.Equal(t, "10.1/x", m.Extra["doi"])
}

func TestParseMetadata_InvalidTypes(t *testing.T) {
	_, err := ParseMetadata(map[string]any{"authors": 42})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = ParseMetadata(map[string]any{"source": "github", "stars": 1.5})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestParseMetadata_CommaSeparatedList(t *testing.T) {
	m, err := ParseMetadata(map[string]any{"authors": "Ada, Alan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Alan"}, m.Authors)
}

func TestMetadata_JSONIsFlat(t *testing.T) {
	doc := Document{
		Title: "Wiki",
		Metadata: Metadata{
			Source:     SourceWikipedia,
			Categories: []string{"Physics"},
			Wikipedia:  &WikipediaMetadata{URL: "https://en.wikipedia.org/wiki/Physics"},
			Extra:      map[string]any{"lang": "en"},
		},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"url":"https://en.wikipedia.org/wiki/Physics"`)
	assert.Contains(t, string(data), `"lang":"en"`)

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc.Metadata.Wikipedia, back.Metadata.Wikipedia)
	assert.Equal(t, doc.Metadata.Categories, back.Metadata.Categories)
	assert.Equal(t, "en", back.Metadata.Extra["lang"])
}

func TestMetadata_Date(t *testing.T) {
	assert.Equal(t, "2023", Metadata{Published: "2023", CreatedAt: "2020"}.Date())
	assert.Equal(t, "2020", Metadata{CreatedAt: "2020"}.Date())
	assert.Empty(t, Metadata{}.Date())
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 2, "a": 2, "c": 5})
	assert.Equal(t, []string{"c", "a", "b"}, got)
}
