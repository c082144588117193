package template

import "strings"

// callState is shared by every frame of one top-level call
type callState struct {
	inclusions    int
	hasUnresolved bool
}

// processContext is one frame of a top-level call: the include depth and chain
// of this branch plus the call-wide counters.
type processContext struct {
	depth int
	chain []string
	state *callState
}

func newProcessContext(chain ...string) *processContext {
	return &processContext{
		chain: chain,
		state: &callState{},
	}
}

// child returns the frame for an included template
func (pc *processContext) child(id string) *processContext {
	chain := make([]string, len(pc.chain), len(pc.chain)+1)
	copy(chain, pc.chain)
	return &processContext{
		depth: pc.depth + 1,
		chain: append(chain, id),
		state: pc.state,
	}
}

func (pc *processContext) inChain(id string) bool {
	for _, c := range pc.chain {
		if c == id {
			return true
		}
	}
	return false
}

func (pc *processContext) templateID() string {
	if len(pc.chain) == 0 {
		return ""
	}
	return pc.chain[len(pc.chain)-1]
}

func (pc *processContext) chainString(next string) string {
	return strings.Join(append(append([]string(nil), pc.chain...), next), " -> ")
}
