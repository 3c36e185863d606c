package fuzzy

import (
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "lowercase and trim",
			title: "  Karma Police  ",
			want:  "karma police",
		},
		{
			name:  "featuring credit stripped",
			title: "Lose Yourself (feat. Someone)",
			want:  "lose yourself",
		},
		{
			name:  "version qualifier stripped",
			title: "Bohemian Rhapsody (Remastered 2011)",
			want:  "bohemian rhapsody",
		},
		{
			name:  "official video qualifier stripped",
			title: "Karma Police [Official Music Video]",
			want:  "karma police",
		},
		{
			name:  "diacritics folded",
			title: "Á Tout le Monde",
			want:  "a tout le monde",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.title); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalizeArtist(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		want   string
	}{
		{
			name:   "punctuation collapsed",
			artist: "AC/DC",
			want:   "ac dc",
		},
		{
			name:   "diacritics folded",
			artist: "Beyoncé",
			want:   "beyonce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeArtist(tt.artist); got != tt.want {
				t.Errorf("NormalizeArtist(%q) = %q, want %q", tt.artist, got, tt.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		min  float64
		max  float64
	}{
		{
			name: "identical",
			s1:   "karma police",
			s2:   "karma police",
			min:  1.0,
			max:  1.0,
		},
		{
			name: "empty side",
			s1:   "karma police",
			s2:   "",
			min:  0.0,
			max:  0.0,
		},
		{
			name: "close variants score high",
			s1:   "karma police",
			s2:   "karma police radiohead",
			min:  0.5,
			max:  1.0,
		},
		{
			name: "unrelated strings score low",
			s1:   "karma police",
			s2:   "zzzzzz",
			min:  0.0,
			max:  0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.s1, tt.s2)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity(%q, %q) = %v, want in [%v, %v]", tt.s1, tt.s2, got, tt.min, tt.max)
			}
		})
	}
}
