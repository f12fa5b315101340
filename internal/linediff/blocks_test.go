package linediff

import (
	"reflect"
	"testing"
)

func TestRelevantBlocks(t *testing.T) {
	blocks := []LineDiffBlock{
		{ChangeKind: ChangeKindNone, OriginalStart: 10, OriginalCount: 1, ModifiedStart: 10, ModifiedCount: 1},
		{ChangeKind: ChangeKindAdd, OriginalStart: 1, OriginalCount: 0, ModifiedStart: 2, ModifiedCount: 2},
		{ChangeKind: ChangeKindDelete, OriginalStart: 12, OriginalCount: 2, ModifiedStart: 3, ModifiedCount: 0},
		{ChangeKind: ChangeKindEdit, OriginalStart: 20, OriginalCount: 1, ModifiedStart: 21, ModifiedCount: 1},
	}

	got := RelevantBlocks(blocks, Window{Start: 5, End: 30})
	if len(got) != 2 {
		t.Fatalf("expected 2 relevant blocks, got %d: %+v", len(got), got)
	}
	if got[0].ChangeKind != ChangeKindDelete || got[1].ChangeKind != ChangeKindEdit {
		t.Errorf("unexpected blocks kept: %+v", got)
	}
}

func TestExpandBlocks(t *testing.T) {
	blocks := []LineDiffBlock{
		{ChangeKind: ChangeKindAdd, OriginalStart: 3, OriginalCount: 0, ModifiedStart: 3, ModifiedCount: 2},
		{ChangeKind: ChangeKindAdd, OriginalStart: 4, OriginalCount: 0, ModifiedStart: 4, ModifiedCount: 2},
		{ChangeKind: ChangeKindDelete, OriginalStart: 8, OriginalCount: 2, ModifiedStart: 9, ModifiedCount: 0},
		{ChangeKind: ChangeKindEdit, OriginalStart: 12, OriginalCount: 1, ModifiedStart: 12, ModifiedCount: 2},
	}

	e := ExpandBlocks(blocks, Window{Start: 1, End: 20})

	if got := e.Modified[ChangeKindAdd].Sorted(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("modified add = %v, want [3 4 5]", got)
	}
	if got := e.Modified[ChangeKindEdit].Sorted(); !reflect.DeepEqual(got, []int{12, 13}) {
		t.Errorf("modified edit = %v, want [12 13]", got)
	}
	if _, ok := e.Modified[ChangeKindDelete]; ok {
		t.Errorf("delete blocks with zero modified count must not populate the modified side")
	}
	if got := e.Original[ChangeKindDelete].Sorted(); !reflect.DeepEqual(got, []int{8, 9}) {
		t.Errorf("original delete = %v, want [8 9]", got)
	}
	if got := e.Original[ChangeKindEdit].Sorted(); !reflect.DeepEqual(got, []int{12}) {
		t.Errorf("original edit = %v, want [12]", got)
	}
}

func TestExpandBlocks_Empty(t *testing.T) {
	e := ExpandBlocks([]LineDiffBlock{{ChangeKind: ChangeKindNone, ModifiedStart: 1, ModifiedCount: 3}}, Window{Start: 1, End: 5})
	if !e.Empty() {
		t.Errorf("expected no expanded lines, got %+v", e)
	}
}

func TestLookupPrecedence(t *testing.T) {
	e := ExpandedBlocks{
		Modified: KindLines{
			ChangeKindAdd:    LineSet{5: {}},
			ChangeKindEdit:   LineSet{5: {}, 6: {}},
			ChangeKindDelete: LineSet{7: {}},
		},
		Original: KindLines{
			ChangeKindAdd:    LineSet{7: {}},
			ChangeKindDelete: LineSet{7: {}},
		},
	}

	tests := []struct {
		name   string
		lookup Lookup
		line   int
		want   ChangeKind
	}{
		{"edit wins on modified side", e.ModifiedLookup(), 5, ChangeKindEdit},
		{"edit only", e.ModifiedLookup(), 6, ChangeKindEdit},
		{"delete only on modified side", e.ModifiedLookup(), 7, ChangeKindDelete},
		{"delete wins on original side", e.OriginalLookup(), 7, ChangeKindDelete},
		{"absent", e.OriginalLookup(), 1, ChangeKindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lookup.KindOf(tt.line); got != tt.want {
				t.Errorf("KindOf(%d) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseChangeKind(t *testing.T) {
	tests := map[string]ChangeKind{
		"add":      ChangeKindAdd,
		"delete":   ChangeKindDelete,
		"edit":     ChangeKindEdit,
		"none":     ChangeKindNone,
		"modified": ChangeKindEdit,
		"bogus":    ChangeKindNone,
	}
	for in, want := range tests {
		if got := ParseChangeKind(in); got != want {
			t.Errorf("ParseChangeKind(%q) = %v, want %v", in, got, want)
		}
	}
}
