// ABOUTME: Stage transition policies consulted before a drag is applied
// ABOUTME: AnyStage allows every move; ForwardOnly blocks moving back except into Lost
package kanban

import (
	"fmt"

	"github.com/harperreed/dealflow/models"
)

type Policy interface {
	Name() string
	Allow(from, to models.Stage) bool
}

type anyStage struct{}

func (anyStage) Name() string                     { return "any" }
func (anyStage) Allow(from, to models.Stage) bool { return from != to }

type forwardOnly struct{}

func (forwardOnly) Name() string { return "forward" }

func (forwardOnly) Allow(from, to models.Stage) bool {
	if to == models.StageLost {
		return from != to
	}
	return to.Index() > from.Index()
}

var (
	AnyStage    Policy = anyStage{}
	ForwardOnly Policy = forwardOnly{}
)

// ParsePolicy maps a PIPELINE_POLICY value to a policy. Empty means AnyStage.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "any":
		return AnyStage, nil
	case "forward":
		return ForwardOnly, nil
	default:
		return nil, fmt.Errorf("unknown pipeline policy %q: must be any or forward", name)
	}
}
