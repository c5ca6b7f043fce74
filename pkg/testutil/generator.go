// Package testutil provides todo.txt fixture generators and test assertions.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vanderheijden86/todoq/pkg/model"
)

// GeneratorConfig controls task line generation.
type GeneratorConfig struct {
	Seed         int64     // Random seed (0 = time-based)
	BaseDate     time.Time // Dates are spread around this day
	DateSpread   int       // Max days before/after BaseDate (default: 30)
	Projects     []string  // Project pool (default: a small fixed set)
	Contexts     []string  // Context pool
	DoneRatio    float64   // Share of completed tasks
	PriorityRate float64   // Share of tasks with a priority
	DueRate      float64   // Share of tasks with a due:
	CreatedRate  float64   // Share of tasks with a creation date
	ExtraTags    bool      // Add key:value tags other than due:
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:         42,
		BaseDate:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		DateSpread:   30,
		Projects:     []string{"home", "work", "garden", "taxes"},
		Contexts:     []string{"phone", "email", "errand", "desk"},
		DoneRatio:    0.2,
		PriorityRate: 0.5,
		DueRate:      0.3,
		CreatedRate:  0.6,
	}
}

var words = []string{
	"call", "mom", "write", "report", "fix", "fence", "buy", "milk",
	"review", "draft", "plan", "trip", "pay", "rent", "clean", "garage",
	"book", "dentist", "update", "budget", "water", "plants", "email", "bank",
}

// Generator creates todo.txt fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	def := DefaultConfig()
	if cfg.BaseDate.IsZero() {
		cfg.BaseDate = def.BaseDate
	}
	if cfg.DateSpread <= 0 {
		cfg.DateSpread = def.DateSpread
	}
	if len(cfg.Projects) == 0 {
		cfg.Projects = def.Projects
	}
	if len(cfg.Contexts) == 0 {
		cfg.Contexts = def.Contexts
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *Generator) date() string {
	off := g.rng.Intn(2*g.cfg.DateSpread+1) - g.cfg.DateSpread
	return g.cfg.BaseDate.AddDate(0, 0, off).Format(model.DateLayout)
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// Line returns one task line in todo.txt order:
// [x done-date] [(P)] [created] words [+project] [@context] [key:value].
func (g *Generator) Line() string {
	var parts []string
	if g.chance(g.cfg.DoneRatio) {
		parts = append(parts, "x", g.date())
	}
	if g.chance(g.cfg.PriorityRate) {
		parts = append(parts, fmt.Sprintf("(%c)", 'A'+rune(g.rng.Intn(5))))
	}
	if g.chance(g.cfg.CreatedRate) {
		parts = append(parts, g.date())
	}
	for n := 1 + g.rng.Intn(4); n > 0; n-- {
		parts = append(parts, g.pick(words))
	}
	for n := g.rng.Intn(3); n > 0; n-- {
		parts = append(parts, "+"+g.pick(g.cfg.Projects))
	}
	for n := g.rng.Intn(3); n > 0; n-- {
		parts = append(parts, "@"+g.pick(g.cfg.Contexts))
	}
	if g.chance(g.cfg.DueRate) {
		parts = append(parts, "due:"+g.date())
	}
	if g.cfg.ExtraTags && g.chance(0.3) {
		parts = append(parts, fmt.Sprintf("t:%s", g.date()))
	}
	return strings.Join(parts, " ")
}

// Lines returns n generated task lines.
func (g *Generator) Lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = g.Line()
	}
	return out
}

// Document returns n lines joined as a todo.txt file body.
func (g *Generator) Document(n int) string {
	return strings.Join(g.Lines(n), "\n")
}

// Tasks returns n parsed tasks.
func (g *Generator) Tasks(n int) []*model.Task {
	return model.NewTasks(g.Lines(n))
}
