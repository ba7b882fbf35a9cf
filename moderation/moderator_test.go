package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"badger", "snake"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "simple word with preserved spacing",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "multiple occurrences",
			input:    "badger badger",
			expected: "****** ******",
			words:    []string{"badger", "badger"},
		},
		{
			name:     "leet speak folding",
			input:    "a b4dger bit me",
			expected: "a ****** bit me",
			words:    []string{"badger"},
		},
		{
			name:     "uppercase with internal punctuation",
			input:    "S.N.A.K.E alert",
			expected: "********* alert",
			words:    []string{"snake"},
		},
		{
			name:     "clean text untouched",
			input:    "nothing to see here",
			expected: "nothing to see here",
			words:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, found := mod.Censor(tc.input)
			require.Equal(t, tc.expected, sanitized)
			require.Equal(t, tc.words, found)
		})
	}
}

func TestLoadWordlist(t *testing.T) {
	req := require.New(t)

	data, err := LoadWordlist()
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")
}
