package provisioning

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph_OrdersByDependencies(t *testing.T) {
	t.Parallel()
	a := mustDeclare(t, "A", "a", nil, stdoutOutputs("x"))
	c := mustDeclare(t, "C", "c ${y}", nil, nil)
	b := mustDeclare(t, "B", "b ${x}", nil, stdoutOutputs("y"))

	g, err := BuildGraph([]*Step{a, c, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, g.Names())
	assert.Equal(t, []string{"A", "B", "C"}, stepNames(g.Order()))
	assert.Equal(t, []string{"B"}, g.Dependencies("C"))
	assert.Empty(t, g.Dependencies("A"))

	p, ok := g.Producer("y")
	assert.True(t, ok)
	assert.Equal(t, "B", p)

	s, ok := g.Step("C")
	require.True(t, ok)
	assert.Same(t, c, s)
}

func TestBuildGraph_IndependentStepsKeepDeclarationOrder(t *testing.T) {
	t.Parallel()
	steps := []*Step{
		mustDeclare(t, "z", "z", nil, nil),
		mustDeclare(t, "m", "m ${rg}", nil, nil),
		mustDeclare(t, "a", "a", nil, nil),
	}

	g, err := BuildGraph(steps, "rg")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "m", "a"}, g.Names())
}

func TestBuildGraph_EarliestDeclaredReadyStepFirst(t *testing.T) {
	t.Parallel()
	// rg -> env, rg -> storage -> share; env declared after share
	steps := []*Step{
		mustDeclare(t, "rg", "rg", nil, stdoutOutputs("rg_id")),
		mustDeclare(t, "storage", "st ${rg_id}", nil, stdoutOutputs("account")),
		mustDeclare(t, "share", "sh ${account}", nil, nil),
		mustDeclare(t, "env", "env ${rg_id}", nil, nil),
	}

	g, err := BuildGraph(steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"rg", "storage", "share", "env"}, g.Names())
}

func TestBuildGraph_Errors(t *testing.T) {
	t.Parallel()

	t.Run("duplicate step", func(t *testing.T) {
		t.Parallel()
		_, err := BuildGraph([]*Step{
			mustDeclare(t, "a", "a", nil, nil),
			mustDeclare(t, "a", "b", nil, nil),
		})
		var dup *DuplicateStepError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "a", dup.Name)
	})

	t.Run("duplicate output", func(t *testing.T) {
		t.Parallel()
		_, err := BuildGraph([]*Step{
			mustDeclare(t, "a", "a", nil, stdoutOutputs("x")),
			mustDeclare(t, "b", "b", nil, stdoutOutputs("x")),
		})
		var dup *DuplicateOutputError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "x", dup.Output)
		assert.Equal(t, "step a", dup.First)
		assert.Equal(t, "b", dup.Second)
	})

	t.Run("output shadows variable", func(t *testing.T) {
		t.Parallel()
		_, err := BuildGraph([]*Step{mustDeclare(t, "a", "a", nil, stdoutOutputs("location"))}, "location")
		var dup *DuplicateOutputError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "variables", dup.First)
	})

	t.Run("unsatisfied", func(t *testing.T) {
		t.Parallel()
		_, err := BuildGraph([]*Step{mustDeclare(t, "a", "a ${missing}", nil, nil)})
		var unsat *UnsatisfiedDependencyError
		require.ErrorAs(t, err, &unsat)
		assert.Equal(t, "a", unsat.Step)
		assert.Equal(t, "missing", unsat.Input)
	})

	t.Run("seed satisfies input", func(t *testing.T) {
		t.Parallel()
		_, err := BuildGraph([]*Step{mustDeclare(t, "a", "a ${registry_password}", nil, nil)}, "registry_password")
		assert.NoError(t, err)
	})
}

func TestBuildGraph_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps func(t *testing.T) []*Step
		cycle []string
	}{
		{
			name: "self",
			steps: func(t *testing.T) []*Step {
				return []*Step{mustDeclare(t, "a", "a ${x}", nil, stdoutOutputs("x"))}
			},
			cycle: []string{"a", "a"},
		},
		{
			name: "two steps",
			steps: func(t *testing.T) []*Step {
				return []*Step{
					mustDeclare(t, "a", "a ${y}", nil, stdoutOutputs("x")),
					mustDeclare(t, "b", "b ${x}", nil, stdoutOutputs("y")),
				}
			},
			cycle: []string{"a", "b", "a"},
		},
		{
			name: "behind a ready prefix",
			steps: func(t *testing.T) []*Step {
				return []*Step{
					mustDeclare(t, "root", "r", nil, stdoutOutputs("r")),
					mustDeclare(t, "tail", "t ${z}", nil, nil),
					mustDeclare(t, "p", "p ${r} ${q}", nil, stdoutOutputs("p")),
					mustDeclare(t, "q", "q ${s}", nil, stdoutOutputs("q")),
					mustDeclare(t, "s", "s ${p}", nil, stdoutOutputs("s", "z")),
				}
			},
			cycle: []string{"s", "p", "q", "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildGraph(tt.steps(t))
			var cyc *CyclicDependencyError
			require.ErrorAs(t, err, &cyc)
			assert.Equal(t, tt.cycle, cyc.Cycle)
		})
	}
}

// randomDAG declares n steps where step i may consume outputs of earlier
// steps, then shuffles the declaration order.
func randomDAG(t *testing.T, rng *rand.Rand, n int) []*Step {
	steps := make([]*Step, n)
	for i := 0; i < n; i++ {
		cmd := fmt.Sprintf("s%d", i)
		for j := 0; j < i; j++ {
			if rng.Intn(3) == 0 {
				cmd += fmt.Sprintf(" ${o%d}", j)
			}
		}
		steps[i] = mustDeclare(t, fmt.Sprintf("s%d", i), cmd, nil, stdoutOutputs(fmt.Sprintf("o%d", i)))
	}
	rng.Shuffle(n, func(i, j int) { steps[i], steps[j] = steps[j], steps[i] })
	return steps
}

func TestBuildGraph_TopologicalAndDeterministic(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		steps := randomDAG(t, rng, 2+rng.Intn(12))

		g, err := BuildGraph(steps)
		require.NoError(t, err)

		pos := make(map[string]int)
		for i, name := range g.Names() {
			pos[name] = i
		}
		require.Len(t, pos, len(steps))
		for _, s := range steps {
			for _, dep := range g.Dependencies(s.Name) {
				assert.Less(t, pos[dep], pos[s.Name], "%s must run after %s", s.Name, dep)
			}
		}

		again, err := BuildGraph(steps)
		require.NoError(t, err)
		assert.Equal(t, g.Names(), again.Names())
	}
}
