package domain

import "testing"

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{"float64", 0.42, 0.42, true},
		{"float32", float32(1.5), 1.5, true},
		{"int", 7, 7, true},
		{"int64", int64(-3), -3, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"numeric string", "0.25", 0.25, true},
		{"padded string", " 12 ", 12, true},
		{"prose string", "twelve", 0, false},
		{"nil", nil, 0, false},
		{"slice", []string{"a"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NumericValue(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("NumericValue(%v) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("NumericValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestBoolValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   bool
		wantOK bool
	}{
		{"bool", true, true, true},
		{"string true", "true", true, true},
		{"string false", "false", false, true},
		{"nonzero float", 0.5, true, true},
		{"zero float", 0.0, false, true},
		{"unparseable string", "maybe", false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BoolValue(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("BoolValue(%v) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("BoolValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestStringValue(t *testing.T) {
	if got := StringValue("hello"); got != "hello" {
		t.Errorf("StringValue(string) = %q, want %q", got, "hello")
	}
	if got := StringValue([]string{"a", "b"}); got != "a, b" {
		t.Errorf("StringValue(slice) = %q, want %q", got, "a, b")
	}
	if got := StringValue(nil); got != "" {
		t.Errorf("StringValue(nil) = %q, want empty", got)
	}
	if got := StringValue(true); got != "true" {
		t.Errorf("StringValue(bool) = %q, want %q", got, "true")
	}
}

func TestSignalTags(t *testing.T) {
	s := NewSignal("color.dominant", "blue", 0.7, "color", "visual")
	if !s.HasTag("visual") {
		t.Error("HasTag should find visual")
	}
	if s.HasTag("error") {
		t.Error("HasTag should not find error")
	}
	if s.IsError() {
		t.Error("plain signal should not be an error signal")
	}

	e := NewSignal("error.color", "boom", 1.0, "color", TagError)
	if !e.IsError() {
		t.Error("tagged signal should be an error signal")
	}
}
