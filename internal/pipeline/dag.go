package pipeline

import (
	"fmt"

	"salesflow/models"
)

// StageKind selects what a stage does when the runner executes it.
type StageKind int

const (
	KindLoad StageKind = iota
	KindClean
	KindFill
	KindAlign
	KindEnrich
	KindAggregate
	KindCheck
	KindPublish
)

func (k StageKind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindClean:
		return "clean"
	case KindFill:
		return "forward_fill"
	case KindAlign:
		return "align"
	case KindEnrich:
		return "enrich"
	case KindAggregate:
		return "aggregate"
	case KindCheck:
		return "quality"
	case KindPublish:
		return "publish"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Stage is one node of the stage graph. Upstream names the stages whose
// output it consumes.
type Stage struct {
	Name     string
	Kind     StageKind
	Upstream []string
}

// DefaultStages returns the run graph. The forward-fill stage is only part
// of the graph when fill is set.
func DefaultStages(fill bool) []Stage {
	alignUpstream := []string{"clean"}
	stages := []Stage{
		{Name: "load", Kind: KindLoad},
		{Name: "clean", Kind: KindClean, Upstream: []string{"load"}},
	}
	if fill {
		stages = append(stages, Stage{Name: "forward_fill", Kind: KindFill, Upstream: []string{"clean"}})
		alignUpstream = []string{"forward_fill"}
	}
	return append(stages,
		Stage{Name: "align", Kind: KindAlign, Upstream: alignUpstream},
		Stage{Name: "enrich", Kind: KindEnrich, Upstream: []string{"clean", "align"}},
		Stage{Name: "aggregate", Kind: KindAggregate, Upstream: []string{"enrich"}},
		Stage{Name: "quality", Kind: KindCheck, Upstream: []string{"aggregate"}},
		Stage{Name: "publish", Kind: KindPublish, Upstream: []string{"quality"}},
	)
}

// Order sorts stages so every stage follows its upstream stages. Stages
// that become ready together keep their declaration order.
func Order(stages []Stage) ([]Stage, error) {
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate stage %q", s.Name)
		}
		index[s.Name] = i
	}

	indegree := make([]int, len(stages))
	downstream := make([][]int, len(stages))
	for i, s := range stages {
		for _, up := range s.Upstream {
			j, ok := index[up]
			if !ok {
				return nil, fmt.Errorf("stage %q depends on unknown stage %q", s.Name, up)
			}
			indegree[i]++
			downstream[j] = append(downstream[j], i)
		}
	}

	ordered := make([]Stage, 0, len(stages))
	done := make([]bool, len(stages))
	for len(ordered) < len(stages) {
		next := -1
		for i := range stages {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, s := range stages {
				if !done[i] {
					stuck = append(stuck, s.Name)
				}
			}
			return nil, fmt.Errorf("%w: %v", models.ErrCycle, stuck)
		}
		done[next] = true
		ordered = append(ordered, stages[next])
		for _, d := range downstream[next] {
			indegree[d]--
		}
	}
	return ordered, nil
}
