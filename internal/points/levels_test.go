package points

import "testing"

func TestLevelForBoundaries(t *testing.T) {
	cases := map[int]int{
		0:      1,
		499:    1,
		500:    2,
		1499:   2,
		1500:   3,
		3999:   3,
		4000:   4,
		7999:   4,
		8000:   5,
		14999:  5,
		15000:  6,
		999999: 6,
		-20:    1,
	}
	for total, want := range cases {
		if got := LevelFor(total).Number; got != want {
			t.Fatalf("LevelFor(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestLevelsPartitionWithoutGaps(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		prev := Levels[i-1]
		if prev.MaxPoints == nil {
			t.Fatalf("level %d has no upper bound but is not last", prev.Number)
		}
		if *prev.MaxPoints+1 != Levels[i].MinPoints {
			t.Fatalf("gap between level %d and %d", prev.Number, Levels[i].Number)
		}
	}
	if Levels[len(Levels)-1].MaxPoints != nil {
		t.Fatalf("top level must be open ended")
	}
}

func TestProgress(t *testing.T) {
	band2, _ := LevelByNumber(2)
	if got := Progress(500, band2); got != 0 {
		t.Fatalf("expected 0%% at band start, got %d", got)
	}
	if got := Progress(1000, band2); got != 50 {
		t.Fatalf("expected 50%% mid band, got %d", got)
	}
	if got := Progress(1499, band2); got != 100 {
		t.Fatalf("expected 100%% at band end, got %d", got)
	}
	if got := Progress(5000, band2); got != 100 {
		t.Fatalf("expected clamp to 100, got %d", got)
	}
	top, _ := LevelByNumber(6)
	for _, total := range []int{15000, 20000, 1_000_000} {
		if got := Progress(total, top); got != 0 {
			t.Fatalf("expected open band to report 0 at %d, got %d", total, got)
		}
	}
}

func TestNextLevel(t *testing.T) {
	top, _ := LevelByNumber(6)
	if _, ok := NextLevel(top); ok {
		t.Fatalf("expected no level above the top band")
	}
	first, _ := LevelByNumber(1)
	next, ok := NextLevel(first)
	if !ok || next.Number != 2 {
		t.Fatalf("expected level 2 after level 1, got %+v", next)
	}
}

func TestAwardForKnownEvents(t *testing.T) {
	award, ok := AwardFor("FIRST_BOOKING")
	if !ok || award.Points != 100 {
		t.Fatalf("unexpected first booking award %+v", award)
	}
	if _, ok := AwardFor("UNKNOWN"); ok {
		t.Fatalf("expected unknown event to have no award")
	}
}
