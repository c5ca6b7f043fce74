package tasksort

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/testutil"
)

func taskGen() *rapid.Generator[*model.Task] {
	return rapid.Custom(func(t *rapid.T) *model.Task {
		cfg := testutil.DefaultConfig()
		cfg.Seed = rapid.Int64Range(1, 1<<40).Draw(t, "seed")
		cfg.ExtraTags = true
		return model.NewTask(testutil.New(cfg).Line())
	})
}

func orderGen() *rapid.Generator[Comparator] {
	return rapid.Custom(func(t *rapid.T) Comparator {
		return Comparator{
			OrderBy:    rapid.SampledFrom(Keys).Draw(t, "orderBy"),
			Descending: rapid.Bool().Draw(t, "descending"),
		}
	})
}

func TestPropertyAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := orderGen().Draw(t, "cmp")
		x := taskGen().Draw(t, "x")
		y := taskGen().Draw(t, "y")
		if sign(c.Compare(x, y)) != -sign(c.Compare(y, x)) {
			t.Fatalf("%+v not antisymmetric for %q and %q", c, x.Line(), y.Line())
		}
	})
}

func TestPropertyTransitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := orderGen().Draw(t, "cmp")
		x := taskGen().Draw(t, "x")
		y := taskGen().Draw(t, "y")
		z := taskGen().Draw(t, "z")
		if c.Compare(x, y) <= 0 && c.Compare(y, z) <= 0 && c.Compare(x, z) > 0 {
			t.Fatalf("%+v not transitive for %q, %q, %q", c, x.Line(), y.Line(), z.Line())
		}
	})
}

func TestPropertySortedOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := orderGen().Draw(t, "cmp")
		tasks := rapid.SliceOfN(taskGen(), 0, 30).Draw(t, "tasks")
		Sort(tasks, c.OrderBy, c.Descending)
		for i := 1; i < len(tasks); i++ {
			if c.Compare(tasks[i-1], tasks[i]) > 0 {
				t.Fatalf("out of order at %d: %q then %q", i, tasks[i-1].Line(), tasks[i].Line())
			}
		}
	})
}

func TestSortGeneratedDoneLast(t *testing.T) {
	tasks := testutil.NewDefault().Tasks(300)
	for _, key := range Keys {
		for _, desc := range []bool{false, true} {
			testutil.AssertDoneLast(t, Sorted(tasks, key, desc))
		}
	}
}

func BenchmarkSort(b *testing.B) {
	tasks := testutil.NewDefault().Tasks(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sorted(tasks, ByPriority, false)
	}
}
