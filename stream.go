package acpclient

import (
	"iter"
	"strings"
)

// Collect drains a response stream and returns the concatenated text.
// On error it returns the text received so far together with the error.
func Collect(stream iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder

	for chunk, err := range stream {
		if err != nil {
			return sb.String(), err
		}

		sb.WriteString(chunk)
	}

	return sb.String(), nil
}

// Chunks adapts a response stream to a plain sequence of chunks. The first
// error stops the sequence and is stored in *errp.
func Chunks(stream iter.Seq2[string, error], errp *error) iter.Seq[string] {
	return func(yield func(string) bool) {
		for chunk, err := range stream {
			if err != nil {
				*errp = err

				return
			}

			if !yield(chunk) {
				return
			}
		}
	}
}
