package registry

import (
	"encoding/json"
	"testing"
)

func TestCatalogEntryUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantInline bool
		wantRemote string
	}{
		{"string URL", `"https://api.nuget.org/v3/catalog0/data/entry.json"`, false, "https://api.nuget.org/v3/catalog0/data/entry.json"},
		{"inline object", `{"description": "hi"}`, true, ""},
		{"null", `null`, false, ""},
		{"unexpected number", `42`, false, ""},
		{"unexpected array", `[1, 2]`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry catalogEntry
			if err := json.Unmarshal([]byte(tt.input), &entry); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if (entry.Inline != nil) != tt.wantInline {
				t.Errorf("Inline = %v, wantInline %v", entry.Inline, tt.wantInline)
			}
			if entry.Remote != tt.wantRemote {
				t.Errorf("Remote = %q, want %q", entry.Remote, tt.wantRemote)
			}
			if tt.wantInline || tt.wantRemote != "" {
				if entry.empty() {
					t.Error("empty() = true for populated entry")
				}
			} else if !entry.empty() {
				t.Error("empty() = false for absent entry")
			}
		})
	}
}

func TestRegistrationDocumentCandidatesOrder(t *testing.T) {
	raw := `{
	  "catalogEntry": "https://api.nuget.org/first.json",
	  "items": [
	    {"catalogEntry": {"description": "second"}},
	    {"catalogEntry": "https://api.nuget.org/third.json"}
	  ]
	}`

	var doc registrationDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	entries := doc.candidates()
	if len(entries) != 3 {
		t.Fatalf("candidates = %d, want 3", len(entries))
	}
	if entries[0].Remote != "https://api.nuget.org/first.json" {
		t.Errorf("first candidate = %+v, want top-level entry", entries[0])
	}
	if entries[1].Inline == nil || entries[1].Inline.Description != "second" {
		t.Errorf("second candidate = %+v", entries[1])
	}
}

func TestSafeWebURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.org/project", "https://example.org/project"},
		{"http://example.org", "http://example.org"},
		{"", ""},
		{"ftp://example.org/file", ""},
		{"javascript:alert(1)", ""},
		{"/relative/path", ""},
		{"::::", ""},
	}

	for _, tt := range tests {
		if got := safeWebURL(tt.input); got != tt.want {
			t.Errorf("safeWebURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractDependencyGroupsNeverNil(t *testing.T) {
	if got := extractDependencyGroups(nil); got == nil {
		t.Error("extractDependencyGroups(nil) = nil, want empty slice")
	}
}
