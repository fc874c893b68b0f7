package browser

import (
	"strings"
	"testing"
)

func TestToolDefinitions(t *testing.T) {
	defs := ToolDefinitions()

	want := []string{
		"navigate", "click", "extract_text", "get_elements",
		"discover_elements", "current_page", "navigate_back",
	}
	if len(defs) != len(want) {
		t.Fatalf("ToolDefinitions() has %d tools, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if got := defs[i].OfTool.Name; got != name {
			t.Errorf("tool %d = %q, want %q", i, got, name)
		}
	}
}

func TestDiscoverCategories(t *testing.T) {
	tests := []struct {
		elementType string
		wantFirst   string
	}{
		{"links", "All links"},
		{"buttons", "Button elements"},
		{"forms", "Form elements"},
		{"interactive", "Clickable with onclick"},
		{"all", "Links"},
		{"", "Links"},
		{"unknown", "Links"},
	}

	for _, tt := range tests {
		t.Run(tt.elementType, func(t *testing.T) {
			cats := discoverCategories(tt.elementType)
			if len(cats) == 0 {
				t.Fatal("no categories returned")
			}
			if cats[0].label != tt.wantFirst {
				t.Errorf("first category = %q, want %q", cats[0].label, tt.wantFirst)
			}
		})
	}
}

func TestClickSuggestions(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		contains string
	}{
		{"anchor with class", "a.storylink", "Try 'a' instead"},
		{"class with link", ".navlink", "a[href]"},
		{"anything else", "div#main", "discover_elements"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(clickSuggestions(tt.selector), "\n")
			if !strings.Contains(got, tt.contains) {
				t.Errorf("clickSuggestions(%q) = %q, want to contain %q", tt.selector, got, tt.contains)
			}
		})
	}
}

func TestFormatElements(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		got := formatElements("a.missing", nil)
		if !strings.Contains(got, "No elements found") {
			t.Errorf("formatElements() = %q", got)
		}
	})

	t.Run("attributes and visibility", func(t *testing.T) {
		infos := []ElementInfo{
			{Tag: "a", Text: "Home", Href: "/home", Visible: true},
			{Tag: "button", Text: "", Type: "submit", ID: "go", Visible: false},
		}
		got := formatElements("a", infos)

		if !strings.Contains(got, `<a> [href="/home"] "Home"`) {
			t.Errorf("missing link line in %q", got)
		}
		if !strings.Contains(got, "(hidden)") {
			t.Errorf("missing hidden marker in %q", got)
		}
		if !strings.Contains(got, `"no text"`) {
			t.Errorf("missing no-text placeholder in %q", got)
		}
	})
}
