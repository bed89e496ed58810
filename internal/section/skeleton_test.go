package section

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildSkeleton(t *testing.T) {
	t.Parallel()

	sections := Split("# A\n\ntext\n\n# B\n\nmore")
	fragments := BuildSkeleton(sections)

	if len(fragments) != 2 {
		t.Fatalf("BuildSkeleton() returned %d fragments, want 2", len(fragments))
	}

	if !strings.Contains(fragments[0].HTML, "<h1 class=\"mdr-skeleton-heading\">A</h1>") {
		t.Errorf("first fragment missing heading element: %s", fragments[0].HTML)
	}
	if !strings.Contains(fragments[1].HTML, "<h1 class=\"mdr-skeleton-heading\">B</h1>") {
		t.Errorf("second fragment missing heading element: %s", fragments[1].HTML)
	}

	for i, f := range fragments {
		if f.ID != sections[i].ID {
			t.Errorf("fragment %d id = %q, want %q", i, f.ID, sections[i].ID)
		}
		if !strings.Contains(f.HTML, fmt.Sprintf("data-section-id=%q", f.ID)) {
			t.Errorf("fragment %d missing section id attribute", i)
		}
	}
}

func TestBuildSkeleton_EscapesHeading(t *testing.T) {
	t.Parallel()

	fragments := BuildSkeleton(Split("# <script>alert(1)</script>\nbody\n"))
	if len(fragments) != 1 {
		t.Fatalf("got %d fragments, want 1", len(fragments))
	}
	if strings.Contains(fragments[0].HTML, "<script>") {
		t.Error("heading text was not escaped")
	}
	if !strings.Contains(fragments[0].HTML, "&lt;script&gt;") {
		t.Error("expected escaped heading text")
	}
}

func TestBuildSkeleton_NoHeading(t *testing.T) {
	t.Parallel()

	fragments := BuildSkeleton(Split("plain text only\n"))
	if len(fragments) != 1 {
		t.Fatalf("got %d fragments, want 1", len(fragments))
	}
	if strings.Contains(fragments[0].HTML, "<h") {
		t.Error("fragment for headingless section must not contain a heading element")
	}
	if !strings.Contains(fragments[0].HTML, "mdr-placeholder") {
		t.Error("fragment missing placeholder element")
	}
}

func TestEstimateHeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "short text clamps to minimum",
			text: "x",
			want: minPlaceholderPx,
		},
		{
			name: "proportional to line count",
			text: strings.Repeat("line\n", 9) + "line",
			want: 10 * placeholderLinePx,
		},
		{
			name: "huge text clamps to maximum",
			text: strings.Repeat("line\n", 500),
			want: maxPlaceholderPx,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := estimateHeight(tt.text); got != tt.want {
				t.Errorf("estimateHeight() = %d, want %d", got, tt.want)
			}
		})
	}
}
