package pipeline

import (
	"errors"
	"testing"

	"salesflow/models"
)

func stageNames(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}

func TestOrderDefaultStages(t *testing.T) {
	cases := []struct {
		fill bool
		want []string
	}{
		{false, []string{"load", "clean", "align", "enrich", "aggregate", "quality", "publish"}},
		{true, []string{"load", "clean", "forward_fill", "align", "enrich", "aggregate", "quality", "publish"}},
	}
	for _, tc := range cases {
		ordered, err := Order(DefaultStages(tc.fill))
		if err != nil {
			t.Fatalf("Order(fill=%v) returned error: %v", tc.fill, err)
		}
		got := stageNames(ordered)
		if len(got) != len(tc.want) {
			t.Fatalf("Order(fill=%v) = %v, want %v", tc.fill, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Order(fill=%v) = %v, want %v", tc.fill, got, tc.want)
			}
		}
	}
}

func TestOrderResolvesOutOfOrderDeclarations(t *testing.T) {
	stages := []Stage{
		{Name: "report", Upstream: []string{"b", "a"}},
		{Name: "b", Upstream: []string{"a"}},
		{Name: "a"},
		{Name: "c"},
	}
	ordered, err := Order(stages)
	if err != nil {
		t.Fatalf("Order returned error: %v", err)
	}
	got := stageNames(ordered)
	want := []string{"a", "b", "report", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order = %v, want %v", got, want)
		}
	}
}

func TestOrderErrors(t *testing.T) {
	_, err := Order([]Stage{
		{Name: "a", Upstream: []string{"c"}},
		{Name: "b", Upstream: []string{"a"}},
		{Name: "c", Upstream: []string{"b"}},
		{Name: "d"},
	})
	if !errors.Is(err, models.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	if _, err := Order([]Stage{{Name: "a", Upstream: []string{"missing"}}}); err == nil || errors.Is(err, models.ErrCycle) {
		t.Fatalf("expected unknown upstream error, got %v", err)
	}

	if _, err := Order([]Stage{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Fatal("expected duplicate stage error")
	}
}

func TestStageKindString(t *testing.T) {
	if KindFill.String() != "forward_fill" || KindCheck.String() != "quality" {
		t.Fatalf("unexpected kind names %q %q", KindFill, KindCheck)
	}
	if StageKind(42).String() != "kind(42)" {
		t.Fatalf("unexpected unknown kind name %q", StageKind(42))
	}
}
