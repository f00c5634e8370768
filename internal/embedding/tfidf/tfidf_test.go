package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	e := NewEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{
		"void multiplyMatrix(int a[][3], int b[][3])",
		"void bubble_sort(int *arr, int n)",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, e.Dimension(), len(vecs[0]))
	assert.Equal(t, e.Dimension(), len(vecs[1]))
	assert.InDelta(t, 1.0, norm(vecs[0]), 1e-9)
	assert.InDelta(t, 1.0, norm(vecs[1]), 1e-9)
	assert.Equal(t, "tfidf", e.Name())
}

func TestEmbedder_EmbedBatch_Errors(t *testing.T) {
	e := NewEmbedder()

	_, err := e.EmbedBatch(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.EmbedBatch(ctx, []string{"sort"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedder_EmbedBatch_NoVocabulary(t *testing.T) {
	e := NewEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"int main() { return 0; }", "x = 1 + 2;"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Empty(t, vecs[0])
	assert.Empty(t, vecs[1])
	assert.Equal(t, 0, e.Dimension())

	q, err := e.Embed(ctx, "main function")
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestEmbedder_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a fit", func(t *testing.T) {
		_, err := NewEmbedder().Embed(ctx, "sort")
		assert.Error(t, err)
	})

	t.Run("query shares the batch vector space", func(t *testing.T) {
		e := NewEmbedder()
		vecs, err := e.EmbedBatch(ctx, []string{
			"void multiplyMatrix(int a[][3], int b[][3])",
			"void bubble_sort(int *arr, int n)",
		})
		require.NoError(t, err)

		q, err := e.Embed(ctx, "how to multiply two matrices matrix")
		require.NoError(t, err)
		require.Len(t, q, len(vecs[0]))

		dot := func(a, b []float64) float64 {
			s := 0.0
			for i := range a {
				s += a[i] * b[i]
			}
			return s
		}
		assert.Greater(t, dot(q, vecs[0]), dot(q, vecs[1]))
	})

	t.Run("unknown words give a zero vector", func(t *testing.T) {
		e := NewEmbedder()
		_, err := e.EmbedBatch(ctx, []string{"bubble sort"})
		require.NoError(t, err)

		q, err := e.Embed(ctx, "quantum teleportation")
		require.NoError(t, err)
		assert.Equal(t, 0.0, norm(q))
	})
}

func TestEmbedder_Tokenize(t *testing.T) {
	e := NewEmbedder()
	assert.Equal(t, []string{"multiply", "matrix"}, e.tokenize("multiplyMatrix"))
	assert.Equal(t, []string{"bubble", "sort", "arr"}, e.tokenize("void bubble_sort(int *arr, int n)"))
	assert.Empty(t, e.tokenize("int main() { return 0; }"))
}
