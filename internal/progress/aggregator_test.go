package progress

import (
	"math/rand"
	"testing"

	"github.com/shaiso/foldnode/internal/domain"
)

func testSources() []domain.SourceConfig {
	return []domain.SourceConfig{
		{Name: "uniref90", ChunkCount: 62},
		{Name: "smallbfd", ChunkCount: 17},
		{Name: "mgnify", ChunkCount: 120},
	}
}

func event(source string, done, total int) domain.ProgressEvent {
	return domain.ProgressEvent{SourceName: source, UnitsDone: done, UnitsTotal: total}
}

func TestAggregator_WeightedBySourceSize(t *testing.T) {
	a := NewAggregator(testSources())

	// smallbfd полностью: 17 из 199
	var snap Snapshot
	for i := 1; i <= 17; i++ {
		snap = a.Update(event("smallbfd", i, 17))
	}

	if snap.Total != 199 {
		t.Fatalf("expected total 199, got %d", snap.Total)
	}
	if snap.Done != 17 {
		t.Errorf("expected done 17, got %d", snap.Done)
	}
	want := 17.0 / 199.0
	if got := snap.Fraction(); got != want {
		t.Errorf("expected fraction %v, got %v", want, got)
	}
}

// Для любой перестановки чанков по базам прогресс не убывает и
// достигает ровно 1.0 после последнего чанка каждой базы.
func TestAggregator_MonotonicAndReachesOne(t *testing.T) {
	sources := testSources()

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		a := NewAggregator(sources)

		next := make(map[string]int)
		var pending []string
		for _, s := range sources {
			for i := 0; i < s.ChunkCount; i++ {
				pending = append(pending, s.Name)
			}
		}
		rng.Shuffle(len(pending), func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })

		totals := map[string]int{}
		for _, s := range sources {
			totals[s.Name] = s.ChunkCount
		}

		prev := 0.0
		var last Snapshot
		for _, name := range pending {
			next[name]++
			last = a.Update(event(name, next[name], totals[name]))
			f := last.Fraction()
			if f < prev {
				t.Fatalf("seed %d: progress decreased from %v to %v", seed, prev, f)
			}
			prev = f
		}

		if last.Fraction() != 1.0 {
			t.Errorf("seed %d: expected final fraction 1.0, got %v", seed, last.Fraction())
		}
	}
}

func TestAggregator_IgnoresRegressionAndOverflow(t *testing.T) {
	a := NewAggregator(testSources())

	a.Update(event("smallbfd", 10, 17))
	snap := a.Update(event("smallbfd", 4, 17))
	if sp, _ := snap.Source("smallbfd"); sp.Done != 10 {
		t.Errorf("progress should not go back, got %d", sp.Done)
	}

	snap = a.Update(event("smallbfd", 99, 17))
	if sp, _ := snap.Source("smallbfd"); sp.Done != 17 {
		t.Errorf("progress should be capped at 17, got %d", sp.Done)
	}

	before := snap.Done
	snap = a.Update(event("unknown", 5, 5))
	if snap.Done != before {
		t.Error("unknown source should not change progress")
	}
}

func TestAggregator_Complete(t *testing.T) {
	a := NewAggregator(testSources())

	a.Update(event("uniref90", 3, 62))
	snap := a.Complete("uniref90")

	if sp, _ := snap.Source("uniref90"); sp.Done != 62 {
		t.Errorf("expected uniref90 complete, got %d", sp.Done)
	}
}

func TestSnapshot_IsImmutable(t *testing.T) {
	a := NewAggregator(testSources())

	snap := a.Update(event("mgnify", 1, 120))
	a.Update(event("mgnify", 50, 120))

	if sp, _ := snap.Source("mgnify"); sp.Done != 1 {
		t.Errorf("snapshot changed after later update: %d", sp.Done)
	}
}

func TestSnapshot_EmptyFraction(t *testing.T) {
	a := NewAggregator(nil)
	if f := a.Snapshot().Fraction(); f != 0 {
		t.Errorf("expected 0 for empty aggregator, got %v", f)
	}
}
