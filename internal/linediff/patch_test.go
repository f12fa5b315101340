package linediff

import (
	"strings"
	"testing"
)

type wantLine struct {
	number  int
	content string
}

func assertLines(t *testing.T, got []CodeLine, want []wantLine) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].LineNumber != want[i].number || got[i].Content != want[i].content {
			t.Errorf("line[%d] = {%d %q}, want {%d %q}",
				i, got[i].LineNumber, got[i].Content, want[i].number, want[i].content)
		}
	}
}

func TestParsePatch_Fixtures(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  []wantLine
	}{
		{
			name:  "Only additions",
			patch: "@@ -0,0 +1,2 @@\n+line1\n+line2",
			want:  []wantLine{{1, "+line1"}, {2, "+line2"}},
		},
		{
			name:  "Only deletions",
			patch: "@@ -1,2 +0,0 @@\n-line1\n-line2",
			want:  []wantLine{{1, "-line1"}, {2, "-line2"}},
		},
		{
			name: "Multiple hunks",
			patch: strings.Join([]string{
				"@@ -1,2 +1,3 @@",
				" line1",
				"-line2",
				"+line2_modified",
				"+line3",
				"@@ -5,2 +6,3 @@",
				" line5",
				"-line6",
				"+line6_modified",
				"+line7",
			}, "\n"),
			want: []wantLine{
				{2, "-line2"}, {2, "+line2_modified"}, {3, "+line3"},
				{6, "-line6"}, {7, "+line6_modified"}, {8, "+line7"},
			},
		},
		{
			name:  "Context lines only",
			patch: "@@ -1,2 +1,2 @@\n line1\n line2",
			want:  nil,
		},
		{
			name:  "End-of-file marker",
			patch: "@@ -1,2 +1,2 @@\n line1\n-line2\n+line2_modified\n\\ No newline at end of file",
			want:  []wantLine{{2, "-line2"}, {2, "+line2_modified"}},
		},
		{
			name: "Interleaved additions and deletions",
			patch: strings.Join([]string{
				"@@ -3,7 +3,7 @@",
				" line3",
				" line4",
				"-line5",
				"+line5_changed",
				" line6",
				"-line7",
				"+line7_changed",
				" line8",
				" line9",
			}, "\n"),
			want: []wantLine{{5, "-line5"}, {5, "+line5_changed"}, {7, "-line7"}, {7, "+line7_changed"}},
		},
		{
			name:  "Zero-length hunk",
			patch: "@@ -10,0 +11,0 @@\n",
			want:  nil,
		},
		{
			name:  "Rename with patch",
			patch: "@@ -1,2 +1,2 @@\n-oldline\n+newline",
			want:  []wantLine{{1, "-oldline"}, {1, "+newline"}},
		},
		{
			name:  "Marker between changes keeps counters",
			patch: "@@ -1,1 +1,2 @@\n-old\n\\ No newline at end of file\n+new\n+tail",
			want:  []wantLine{{1, "-old"}, {1, "+new"}, {2, "+tail"}},
		},
		{
			name:  "Header with omitted counts",
			patch: "@@ -4 +4 @@\n-before\n+after",
			want:  []wantLine{{4, "-before"}, {4, "+after"}},
		},
		{
			name:  "CRLF line endings",
			patch: "@@ -1,1 +1,1 @@\r\n-a\r\n+b\r\n",
			want:  []wantLine{{1, "-a"}, {1, "+b"}},
		},
		{
			name: "File headers before first hunk are ignored",
			patch: strings.Join([]string{
				"diff --git a/f.txt b/f.txt",
				"--- a/f.txt",
				"+++ b/f.txt",
				"@@ -1 +1 @@",
				"-x",
				"+y",
			}, "\n"),
			want: []wantLine{{1, "-x"}, {1, "+y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePatch(tt.patch, Window{Start: 1, End: 10}, BoundStrict)
			assertLines(t, got, tt.want)
		})
	}
}

func TestParsePatch_WindowBoundaries(t *testing.T) {
	patch := "@@ -0,0 +1,6 @@\n+a\n+b\n+c\n+d\n+e\n+f"

	got := ParsePatch(patch, Window{Start: 2, End: 5}, BoundStrict)
	assertLines(t, got, []wantLine{{2, "+b"}, {3, "+c"}, {4, "+d"}, {5, "+e"}})
}

func TestParsePatch_SkipsHunksOutsideWindow(t *testing.T) {
	patch := strings.Join([]string{
		"@@ -1,1 +1,1 @@",
		"-early",
		"+early2",
		"@@ -40,1 +40,1 @@",
		"-late",
		"+late2",
	}, "\n")

	got := ParsePatch(patch, Window{Start: 30, End: 50}, BoundStrict)
	assertLines(t, got, []wantLine{{40, "-late"}, {40, "+late2"}})
}

func TestParsePatch_LenientBoundMatchesStrict(t *testing.T) {
	patch := strings.Join([]string{
		"@@ -1,3 +1,4 @@",
		" a",
		"-b",
		"+b2",
		"+b3",
		" c",
		"@@ -20,2 +21,1 @@",
		"-x",
		"-y",
		"+z",
	}, "\n")

	for _, w := range []Window{{1, 2}, {2, 3}, {20, 21}, {21, 30}, {100, 200}} {
		strict := ParsePatch(patch, w, BoundStrict)
		lenient := ParsePatch(patch, w, BoundLenient)
		if len(strict) != len(lenient) {
			t.Fatalf("window %s: strict %d lines, lenient %d lines", w, len(strict), len(lenient))
		}
		for i := range strict {
			if strict[i] != lenient[i] {
				t.Errorf("window %s: line[%d] strict=%+v lenient=%+v", w, i, strict[i], lenient[i])
			}
		}
	}
}

func TestParsePatch_Kinds(t *testing.T) {
	got := ParsePatch("@@ -1 +1 @@\n-a\n+b", Window{Start: 1, End: 1}, BoundStrict)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].Kind != ChangeKindDelete || got[1].Kind != ChangeKindAdd {
		t.Errorf("kinds = %v, %v; want delete, add", got[0].Kind, got[1].Kind)
	}
	if got[1].Text() != "b" {
		t.Errorf("Text() = %q, want %q", got[1].Text(), "b")
	}
}

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		line string
		want hunkHeader
		ok   bool
	}{
		{line: "@@ -1,2 +3,4 @@", want: hunkHeader{1, 2, 3, 4}, ok: true},
		{line: "@@ -7 +9 @@ func main() {", want: hunkHeader{7, 1, 9, 1}, ok: true},
		{line: "@@ -0,0 +1 @@", want: hunkHeader{0, 0, 1, 1}, ok: true},
		{line: " @@ -1,2 +3,4 @@", ok: false},
		{line: "+@@ -1 +1 @@", ok: false},
		{line: "not a header", ok: false},
	}

	for _, tt := range tests {
		got, ok := parseHunkHeader(tt.line)
		if ok != tt.ok {
			t.Fatalf("parseHunkHeader(%q) ok = %v, want %v", tt.line, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Errorf("parseHunkHeader(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}
