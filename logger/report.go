package logger

import (
	"sort"
	"sync"
	"sync/atomic"
)

type componentStat struct {
	warns  int64
	errors int64
}

var components sync.Map // map[string]*componentStat

// ComponentCounts is a point-in-time view of warnings and errors logged by one component.
type ComponentCounts struct {
	Component string `json:"component"`
	Warnings  int64  `json:"warnings"`
	Errors    int64  `json:"errors"`
}

func stat(component string) *componentStat {
	v, _ := components.LoadOrStore(component, &componentStat{})
	return v.(*componentStat)
}

func recordWarn(component string) {
	atomic.AddInt64(&stat(component).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&stat(component).errors, 1)
}

// Counts returns per-component warning and error totals sorted by component.
func Counts() []ComponentCounts {
	var out []ComponentCounts
	components.Range(func(k, v any) bool {
		cs := v.(*componentStat)
		out = append(out, ComponentCounts{
			Component: k.(string),
			Warnings:  atomic.LoadInt64(&cs.warns),
			Errors:    atomic.LoadInt64(&cs.errors),
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

// ResetCounts clears the per-component totals; used at the start of each run.
func ResetCounts() {
	components.Range(func(k, _ any) bool {
		components.Delete(k)
		return true
	})
}
