package rules

import (
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"
)

// InsertMode controls where/how a rule is added to a kind's list.
type InsertMode uint8

const (
	// InsertAppend adds the rule to the tail of the list.
	InsertAppend InsertMode = iota
	// InsertPrepend adds the rule to the head of the list.
	InsertPrepend
	// InsertUnique refuses to add the rule if one with the same Name
	// already exists for the kind.
	InsertUnique
	// InsertPrependUnique replaces any existing same-name rule and
	// places the new one at the head.
	InsertPrependUnique
)

// Func is a rule callable. win is the window associated with the event,
// if any (zero otherwise).
type Func func(win xproto.Window) bool

// Rule is a named callable plus its pass-through tag.
type Rule struct {
	Name        string
	PassThrough PassThrough
	Negate      bool // for IF_TRUE/IF_FALSE, negate the returned result before returning it on stop
	Func        Func
}

// PassThrough decides whether a downstream rule is also invoked after
// this one returns.
type PassThrough uint8

const (
	PassNo PassThrough = iota
	PassAlways
	PassIfTrue
	PassIfFalse
)

const maxReentrantDepth = 8

// Engine is the dispatcher: an ordered rule list and a batched rule list
// per Kind, dispatched under a single re-entrant-bounded call depth.
type Engine struct {
	direct  [][]Rule
	batched [][]Rule

	batchCounter []int

	crashOnErrors bool
	depth         int

	log *logrus.Logger
}

// NewEngine returns an engine with empty rule lists for every Kind.
func NewEngine(crashOnErrors bool, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		direct:        make([][]Rule, NumKinds),
		batched:       make([][]Rule, NumKinds),
		batchCounter:  make([]int, NumKinds),
		crashOnErrors: crashOnErrors,
		log:           log,
	}
}

// Add inserts a rule for kind according to mode.
func (e *Engine) Add(kind Kind, r Rule, mode InsertMode) {
	e.addTo(&e.direct[kind], r, mode)
}

// AddBatched inserts a batched rule for kind; batched rules fire once
// per idle cycle when the kind's batch counter is non-zero.
func (e *Engine) AddBatched(kind Kind, r Rule, mode InsertMode) {
	e.addTo(&e.batched[kind], r, mode)
}

func (e *Engine) addTo(list *[]Rule, r Rule, mode InsertMode) {
	switch mode {
	case InsertPrepend:
		*list = append([]Rule{r}, *list...)
	case InsertUnique:
		for _, existing := range *list {
			if existing.Name == r.Name {
				return
			}
		}
		*list = append(*list, r)
	case InsertPrependUnique:
		filtered := (*list)[:0:0]
		for _, existing := range *list {
			if existing.Name != r.Name {
				filtered = append(filtered, existing)
			}
		}
		*list = append([]Rule{r}, filtered...)
	default:
		*list = append(*list, r)
	}
}

// Remove deletes every direct rule named name from kind's list.
func (e *Engine) Remove(kind Kind, name string) {
	e.direct[kind] = removeNamed(e.direct[kind], name)
}

func removeNamed(list []Rule, name string) []Rule {
	out := list[:0:0]
	for _, r := range list {
		if r.Name != name {
			out = append(out, r)
		}
	}
	return out
}

// Apply runs the direct rule list for kind in order, combining each
// result with its pass-through tag, and increments kind's batch
// counter. It returns the final handled/not-handled result.
func (e *Engine) Apply(kind Kind, win xproto.Window) bool {
	if kind == KindError {
		return e.applyError(win)
	}
	if e.depth >= maxReentrantDepth {
		e.log.WithField("kind", kind).Warn("rules: max re-entrant dispatch depth reached, dropping")
		return false
	}
	e.depth++
	defer func() { e.depth-- }()

	if int(kind) < len(e.batchCounter) {
		e.batchCounter[kind]++
	}

	result := true
	for _, r := range e.direct[int(kind)] {
		result = r.Func(win)
		switch r.PassThrough {
		case PassNo:
			return result
		case PassAlways:
			continue
		case PassIfTrue:
			if !result {
				return applyNegate(r, result)
			}
		case PassIfFalse:
			if result {
				return applyNegate(r, result)
			}
		}
	}
	return result
}

func applyNegate(r Rule, result bool) bool {
	if r.Negate {
		return !result
	}
	return result
}

func (e *Engine) applyError(win xproto.Window) bool {
	for _, r := range e.direct[KindError] {
		if !r.Func(win) {
			if e.crashOnErrors {
				e.log.Fatal("rules: aborting on X error (CRASH_ON_ERRORS set)")
			}
			e.log.WithField("rule", r.Name).Warn("rules: X error rule reported failure")
			return false
		}
	}
	return true
}

// ApplyBatched fires every batched rule whose kind has a non-zero
// counter, then resets that counter to zero. Batched rules never abort
// the batch cycle regardless of their return value.
func (e *Engine) ApplyBatched() {
	for kind := range e.batched {
		if e.batchCounter[kind] == 0 {
			continue
		}
		for _, r := range e.batched[kind] {
			r.Func(0)
		}
		e.batchCounter[kind] = 0
	}
}

// BatchCounter exposes a kind's pending-batch counter, used by tests
// asserting the reset-on-idle property.
func (e *Engine) BatchCounter(kind Kind) int {
	return e.batchCounter[kind]
}
