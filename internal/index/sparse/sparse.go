// Package sparse implements the TF-IDF keyword index.
//
// The model is fitted over the corpus searchable texts: lowercase tokens,
// English stop words removed, unigrams and bigrams, a vocabulary capped by
// corpus term frequency, smoothed IDF and L2 normalised rows. Queries are
// projected into the fitted vocabulary without refitting.
package sparse

import (
	"errors"
	"math"
	"sort"

	"github.com/custodia-labs/scholar/internal/index/rank"
)

// ErrEmptyVocabulary is returned when no term survives tokenisation.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Options configures fitting.
type Options struct {
	// MaxFeatures caps the vocabulary. Zero or less means uncapped.
	MaxFeatures int

	// MinN and MaxN bound the n-gram range.
	MinN int
	MaxN int
}

// DefaultOptions returns a 10,000 term unigram+bigram model.
func DefaultOptions() Options {
	return Options{MaxFeatures: 10000, MinN: 1, MaxN: 2}
}

func (o Options) normalised() Options {
	if o.MinN < 1 {
		o.MinN = 1
	}
	if o.MaxN < o.MinN {
		o.MaxN = o.MinN
	}
	return o
}

// Vector is a sparse L2 normalised term vector with ascending indices.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of two vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Index is a fitted TF-IDF model with one row per corpus position.
// It is immutable once built.
type Index struct {
	opts  Options
	vocab map[string]int
	idf   []float64
	rows  []Vector
}

// Build fits the model over texts.
func Build(texts []string, opts Options) (*Index, error) {
	opts = opts.normalised()

	analyzed := make([][]string, len(texts))
	tf := make(map[string]int)
	df := make(map[string]int)
	for i, text := range texts {
		terms := analyze(text, opts.MinN, opts.MaxN)
		analyzed[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			tf[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}
	if len(tf) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(texts))
	x := &Index{
		opts:  opts,
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
		rows:  make([]Vector, len(texts)),
	}
	for i, term := range terms {
		x.vocab[term] = i
		x.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	for i, doc := range analyzed {
		x.rows[i] = x.vectorize(doc)
	}
	return x, nil
}

// vectorize weights raw term counts by IDF and L2 normalises the result.
// Terms outside the vocabulary are ignored.
func (x *Index) vectorize(terms []string) Vector {
	counts := make(map[int]float64, len(terms))
	for _, term := range terms {
		if idx, ok := x.vocab[term]; ok {
			counts[idx]++
		}
	}
	v := Vector{Indices: make([]int, 0, len(counts))}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)

	v.Values = make([]float64, len(v.Indices))
	var norm float64
	for i, idx := range v.Indices {
		w := counts[idx] * x.idf[idx]
		v.Values[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range v.Values {
			v.Values[i] /= norm
		}
	}
	return v
}

// Transform projects text into the fitted term space.
func (x *Index) Transform(text string) Vector {
	return x.vectorize(analyze(text, x.opts.MinN, x.opts.MaxN))
}

// Query ranks corpus positions by cosine similarity to text and returns at
// most k hits. Positions sharing no vocabulary with the query are never
// returned, even when fewer than k hits remain.
func (x *Index) Query(text string, k int, keep rank.Keep) []rank.Hit {
	q := x.Transform(text)
	if len(q.Indices) == 0 {
		return nil
	}
	scores := make([]float64, len(x.rows))
	for i, row := range x.rows {
		scores[i] = row.Dot(q)
	}
	return rank.TopK(scores, k, keep, true)
}

// Len returns the number of rows.
func (x *Index) Len() int {
	return len(x.rows)
}

// Features returns the vocabulary size.
func (x *Index) Features() int {
	return len(x.idf)
}

// Row returns the vector at position i.
func (x *Index) Row(i int) Vector {
	return x.rows[i]
}

// Has reports whether term is in the vocabulary.
func (x *Index) Has(term string) bool {
	_, ok := x.vocab[term]
	return ok
}
