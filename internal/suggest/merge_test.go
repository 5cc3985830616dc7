package suggest

import (
	"math"
	"testing"
)

func TestMergeDedupCaseInsensitive(t *testing.T) {
	merged := mergeCandidates([][]Candidate{
		{{Text: "Algebra", SourceType: SourceBlock, Score: 0.9}},
		{{Text: "ALGEBRA", SourceType: SourceTopic, Score: 0.9}},
	})
	if len(merged) != 1 {
		t.Fatalf("expected 1 candidate after dedup, got %d: %+v", len(merged), merged)
	}
	if merged[0].SourceType != SourceBlock {
		t.Errorf("winner source = %s, want block (higher dispatch priority)", merged[0].SourceType)
	}
}

func TestMergePriorityBeatsScoreOnCollision(t *testing.T) {
	// The topic candidate scores strictly higher, but blocks dispatch first:
	// the collision policy is priority over score.
	merged := mergeCandidates([][]Candidate{
		{{Text: "algebra", SourceType: SourceTopic, Score: 0.99}},
		{{Text: "Algebra", SourceType: SourceBlock, Score: 0.5}},
	})
	if len(merged) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(merged))
	}
	if merged[0].SourceType != SourceBlock {
		t.Errorf("winner source = %s, want block", merged[0].SourceType)
	}
	if got, want := merged[0].Score, 0.5*1.2; math.Abs(got-want) > 1e-9 {
		t.Errorf("winner score = %v, want %v", got, want)
	}
}

func TestMergeAppliesMultipliers(t *testing.T) {
	merged := mergeCandidates([][]Candidate{
		{{Text: "a", SourceType: SourceBlock, Score: 0.9}},
		{{Text: "b", SourceType: SourcePopular, Score: 1.0}},
		{{Text: "c", SourceType: SourcePersonal, Score: 1.0}},
		{{Text: "d", SourceType: SourceCategory, Score: 0.7}},
	})
	want := map[string]float64{
		"a": 0.9 * 1.2,
		"b": 1.0 * 0.8,
		"c": 1.0 * 1.1,
		"d": 0.7,
	}
	if len(merged) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(merged), len(want))
	}
	for _, c := range merged {
		if w := want[c.Text]; math.Abs(c.Score-w) > 1e-9 {
			t.Errorf("score for %q = %v, want %v", c.Text, c.Score, w)
		}
	}
}

func TestMergeFillsCategoryLabel(t *testing.T) {
	merged := mergeCandidates([][]Candidate{
		{{Text: "a", SourceType: SourceBlock, Score: 1}},
	})
	if merged[0].CategoryLabel != "Block" {
		t.Errorf("label = %q, want Block", merged[0].CategoryLabel)
	}
}

func TestMergeSkipsBlankText(t *testing.T) {
	merged := mergeCandidates([][]Candidate{
		{{Text: "   ", SourceType: SourceBlock, Score: 1}, {Text: "real", SourceType: SourceBlock, Score: 1}},
	})
	if len(merged) != 1 || merged[0].Text != "real" {
		t.Fatalf("blank text should be dropped, got %+v", merged)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if got := mergeCandidates(nil); got != nil {
		t.Fatalf("merge of nothing = %+v, want nil", got)
	}
	if got := mergeCandidates([][]Candidate{nil, {}}); got != nil {
		t.Fatalf("merge of empties = %+v, want nil", got)
	}
}

func TestRankCandidates(t *testing.T) {
	cands := []Candidate{
		{Text: "low", Score: 0.2},
		{Text: "tie-b", Score: 0.5, UsageCount: 1},
		{Text: "high", Score: 0.9},
		{Text: "tie-a", Score: 0.5, UsageCount: 7},
	}
	rankCandidates(cands)

	wantOrder := []string{"high", "tie-a", "tie-b", "low"}
	for i, w := range wantOrder {
		if cands[i].Text != w {
			t.Fatalf("rank[%d] = %q, want %q (full: %+v)", i, cands[i].Text, w, cands)
		}
	}
}
