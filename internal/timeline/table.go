package timeline

import (
	"sort"
	"time"

	"github.com/nerrad567/aerial-hk/internal/action"
)

// task is one slot of the timer table.
type task struct {
	id     uint64
	live   bool
	action action.ID
	due    time.Duration
	period time.Duration // zero for one-shot
	step   bool          // drives the step cursor instead of performing
	repeat bool          // re-firing of a repeating event
	index  int           // authoring index, set for stepped-mode repeats
}

// table is a fixed-capacity set of timers. Identifiers increase with every
// arm, so sorting by id gives arming order.
type table struct {
	slots  []task
	nextID uint64
}

func newTable(capacity int) *table {
	return &table{slots: make([]task, capacity)}
}

func (t *table) arm(tk task) (uint64, bool) {
	for i := range t.slots {
		if !t.slots[i].live {
			t.nextID++
			tk.id = t.nextID
			tk.live = true
			t.slots[i] = tk
			return tk.id, true
		}
	}
	return 0, false
}

// setTimeout arms a one-shot due at due.
func (t *table) setTimeout(a action.ID, due time.Duration) (uint64, bool) {
	return t.arm(task{action: a, due: due})
}

// setInterval arms a repeating timer first due one period after now.
func (t *table) setInterval(a action.ID, now, period time.Duration) (uint64, bool) {
	return t.arm(task{action: a, due: now + period, period: period, repeat: true})
}

// delay pushes a live timer's next due time back by d.
func (t *table) delay(id uint64, d time.Duration) {
	if tk := t.find(id); tk != nil {
		tk.due += d
	}
}

func (t *table) cancel(id uint64) {
	if tk := t.find(id); tk != nil {
		tk.live = false
	}
}

func (t *table) cancelAll() {
	for i := range t.slots {
		t.slots[i].live = false
	}
}

func (t *table) find(id uint64) *task {
	for i := range t.slots {
		if t.slots[i].live && t.slots[i].id == id {
			return &t.slots[i]
		}
	}
	return nil
}

func (t *table) pending() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].live {
			n++
		}
	}
	return n
}

func (t *table) free() int {
	return len(t.slots) - t.pending()
}

// due returns copies of the live timers due at or before now, in arming order.
func (t *table) due(now time.Duration) []task {
	var out []task
	for i := range t.slots {
		if t.slots[i].live && t.slots[i].due <= now {
			out = append(out, t.slots[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// complete retires a fired timer: one-shots are freed, intervals move to
// their next due time after now. Missed periods are skipped, not replayed.
func (t *table) complete(id uint64, now time.Duration) {
	tk := t.find(id)
	if tk == nil {
		return
	}
	if tk.period <= 0 {
		tk.live = false
		return
	}
	tk.due += tk.period
	if tk.due <= now {
		missed := (now-tk.due)/tk.period + 1
		tk.due += missed * tk.period
	}
}
