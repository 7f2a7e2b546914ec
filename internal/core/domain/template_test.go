package domain

import "testing"

func TestAppendBodyFlipsHeadingToTextOnce(t *testing.T) {
	section := &TemplateSection{Kind: KindHeading}

	section.AppendBody("")
	if section.Kind != KindHeading {
		t.Fatalf("blank body must not flip the kind, got %s", section.Kind)
	}

	section.AppendBody("real content")
	if section.Kind != KindText {
		t.Fatalf("expected text kind after content, got %s", section.Kind)
	}

	section.AppendBody("   ")
	if section.Kind != KindText {
		t.Fatalf("kind transition must not reverse, got %s", section.Kind)
	}
	if section.Content != "real content\n   " {
		t.Fatalf("unexpected accumulated body %q", section.Content)
	}
}

func TestFindSectionResolvesTwoLevels(t *testing.T) {
	child := &TemplateSection{ID: "sec-2"}
	grandchild := &TemplateSection{ID: "sec-3"}
	child.Children = []*TemplateSection{grandchild}
	structure := TemplateStructure{Sections: []*TemplateSection{
		{ID: "sec-1", Children: []*TemplateSection{child}},
	}}

	if got := structure.FindSection("sec-1"); got == nil || got.ID != "sec-1" {
		t.Fatalf("top-level lookup failed: %+v", got)
	}
	if got := structure.FindSection("sec-2"); got == nil || got.ID != "sec-2" {
		t.Fatalf("child lookup failed: %+v", got)
	}
	if got := structure.FindSection("sec-3"); got != nil {
		t.Fatalf("lookup must stop at two levels, got %+v", got)
	}
	if got := structure.FindSection("missing"); got != nil {
		t.Fatalf("unknown id must return nil, got %+v", got)
	}
}

func TestAllSectionsDepthFirst(t *testing.T) {
	structure := TemplateStructure{Sections: []*TemplateSection{
		{ID: "a", Children: []*TemplateSection{{ID: "a1"}, {ID: "a2"}}},
		{ID: "b"},
	}}

	var ids []string
	for _, section := range structure.AllSections() {
		ids = append(ids, section.ID)
	}
	want := []string{"a", "a1", "a2", "b"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobQueued.Terminal() || JobProcessing.Terminal() {
		t.Fatalf("queued/processing must not be terminal")
	}
	if !JobCompleted.Terminal() || !JobFailed.Terminal() {
		t.Fatalf("completed/failed must be terminal")
	}
}
