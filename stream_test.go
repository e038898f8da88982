package acpclient

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(chunks []string, err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}

		if err != nil {
			yield("", err)
		}
	}
}

func TestCollect(t *testing.T) {
	out, err := Collect(seqOf([]string{"He", "llo"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestCollect_PartialOnError(t *testing.T) {
	boom := errors.New("boom")

	out, err := Collect(seqOf([]string{"par", "tial"}, boom))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", out)
}

func TestCollect_Empty(t *testing.T) {
	out, err := Collect(seqOf(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestChunks(t *testing.T) {
	boom := errors.New("boom")

	var (
		err error
		got []string
	)

	for c := range Chunks(seqOf([]string{"a", "b"}, boom), &err) {
		got = append(got, c)
	}

	assert.Equal(t, []string{"a", "b"}, got)
	require.ErrorIs(t, err, boom)
}

func TestChunks_EarlyBreak(t *testing.T) {
	var err error

	for range Chunks(seqOf([]string{"a", "b", "c"}, nil), &err) {
		break
	}

	require.NoError(t, err)
}

func TestText(t *testing.T) {
	req := Text("hello")

	require.Equal(t, "hello", req.Text)
	require.Nil(t, req.CurrentFile)
}
