package ui

import "testing"

func TestThemesHaveNames(t *testing.T) {
	for _, name := range ThemeNames() {
		theme := GetTheme(name, false)
		if theme.Name != name {
			t.Errorf("GetTheme(%q) returned %q", name, theme.Name)
		}
		if !ValidTheme(name) {
			t.Errorf("expected %q valid", name)
		}
	}
	if Rainbow().Accent.GetForeground() == nil {
		t.Error("Rainbow should have colors")
	}
	if !NoColor().Title.GetBold() {
		t.Error("NoColor should use bold for title")
	}
}

func TestGetTheme(t *testing.T) {
	tests := []struct {
		name     string
		noColor  bool
		expected string
	}{
		{"green", false, "green"},
		{"invalid", false, "rainbow"},
		{"rainbow", true, "nocolor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetTheme(tt.name, tt.noColor).Name; got != tt.expected {
				t.Errorf("GetTheme(%q, %v) = %q, want %q", tt.name, tt.noColor, got, tt.expected)
			}
		})
	}
}

func TestVolumeBar(t *testing.T) {
	cases := []struct {
		level, steps int
		want         string
	}{
		{3, 5, "[###..]"},
		{0, 3, "[...]"},
		{9, 3, "[###]"},
		{1, 0, ""},
	}
	for _, tc := range cases {
		if got := VolumeBar(tc.level, tc.steps); got != tc.want {
			t.Errorf("VolumeBar(%d,%d) = %q want %q", tc.level, tc.steps, got, tc.want)
		}
	}
}

func TestBytesAndTruncate(t *testing.T) {
	if got := Bytes(512); got != "512 B" {
		t.Errorf("Bytes(512) = %q", got)
	}
	if got := Bytes(1536); got != "1.5 KiB" {
		t.Errorf("Bytes(1536) = %q", got)
	}
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
}
