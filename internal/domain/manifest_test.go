package domain

import "testing"

func TestPatternMatches(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"exact", "color.mean_saturation", "color.mean_saturation", true},
		{"wildcard vs key", "color.*", "color.mean_saturation", true},
		{"key vs wildcard", "color.mean_saturation", "color.*", true},
		{"wildcard vs other namespace", "color.*", "other.value", false},
		{"other namespace vs wildcard", "other.value", "color.*", false},
		{"universal left", "*", "anything.at_all", true},
		{"universal right", "quality.blur_score", "*", true},
		{"universal both", "*", "*", true},
		{"wildcard vs wildcard same prefix", "color.*", "color.*", true},
		{"different exact keys", "color.dominant", "color.palette", false},
		{"bare prefix wildcard", "color*", "color.anything", true},
		{"prefix shorter than wildcard stem", "color", "color.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PatternMatches(tt.a, tt.b); got != tt.want {
				t.Errorf("PatternMatches(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPatternMatchesSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"color.*", "color.mean_saturation"},
		{"*", "format.name"},
		{"ocr.text", "ocr.text"},
		{"color.*", "other.value"},
	}

	for _, p := range pairs {
		if PatternMatches(p[0], p[1]) != PatternMatches(p[1], p[0]) {
			t.Errorf("PatternMatches not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestEmitsMatching(t *testing.T) {
	m := WaveManifest{
		Name:  "color",
		Emits: []string{"color.is_grayscale", "color.*"},
	}

	if !m.EmitsMatching("color.mean_saturation") {
		t.Error("wildcard emit should match exact pattern")
	}
	if !m.EmitsMatching("color.is_grayscale") {
		t.Error("exact emit should match exact pattern")
	}
	if m.EmitsMatching("quality.blur_score") {
		t.Error("unrelated pattern should not match")
	}
}
