package termhost

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loopcraft/reconciler/internal/hostapi"
)

// Adapter implements hostapi.Host on top of a running Bubble Tea
// program: every mutation is applied to an in-memory Instance tree,
// then a RepaintMsg carrying the (possibly reparented) root is sent to
// the program so Model.Update can re-render.
type Adapter struct {
	program *tea.Program
	root    *Instance
}

// NewAdapter returns an Adapter whose root container is the returned
// *Instance; pass it as the container argument to reconciler.NewFiberRoot.
func NewAdapter(program *tea.Program) (*Adapter, *Instance) {
	root := &Instance{Kind: "root"}
	return &Adapter{program: program, root: root}, root
}

func (a *Adapter) PrepareForCommit(container any) hostapi.FocusHandle { return nil }
func (a *Adapter) ResetAfterCommit(container any) {
	if a.program != nil {
		a.program.Send(RepaintMsg{Root: a.root})
	}
}
func (a *Adapter) BeforeActiveInstanceBlur() {}
func (a *Adapter) AfterActiveInstanceBlur()  {}

func (a *Adapter) ApplyMutation(m hostapi.Mutation) error {
	inst, _ := m.Instance.(*Instance)
	switch m.Kind {
	case hostapi.MutationPlacement:
		if inst == nil {
			return fmt.Errorf("termhost: placement mutation with nil instance")
		}
		parent, _ := m.Parent.(*Instance)
		if parent == nil {
			parent = a.root
		}
		before, _ := m.Before.(*Instance)
		parent.insertBefore(inst, before)

	case hostapi.MutationUpdate:
		if inst == nil {
			return fmt.Errorf("termhost: update mutation with nil instance")
		}
		if text, ok := m.Props.(string); ok {
			inst.Text = text
		} else if m.Props != nil {
			inst.Text = fmt.Sprint(m.Props)
		}

	case hostapi.MutationDeletion:
		if inst == nil {
			return fmt.Errorf("termhost: deletion mutation with nil instance")
		}
		if inst.Parent != nil {
			inst.Parent.remove(inst)
		}

	case hostapi.MutationContentReset:
		if inst != nil {
			inst.Text = ""
		}

	case hostapi.MutationHydrate:
		// No server-rendered markup to adopt in a terminal host.
	}
	return nil
}

func (a *Adapter) ScheduleTimeout(fn func(), d time.Duration) hostapi.TimeoutHandle {
	return time.AfterFunc(d, fn)
}

func (a *Adapter) CancelTimeout(h hostapi.TimeoutHandle) {
	if t, ok := h.(*time.Timer); ok {
		t.Stop()
	}
}

// LineHost is the go-isatty fallback adapter for non-terminal stdout
// (piped output, CI logs): it applies mutations to the same Instance
// tree but prints one line per mutation instead of driving a Bubble
// Tea program, matching cmd/capsule/main.go's NoTUI branch.
type LineHost struct {
	root *Instance
}

// NewLineHost returns a LineHost and its root container.
func NewLineHost() (*LineHost, *Instance) {
	root := &Instance{Kind: "root"}
	return &LineHost{root: root}, root
}

func (h *LineHost) PrepareForCommit(container any) hostapi.FocusHandle { return nil }
func (h *LineHost) ResetAfterCommit(container any)                    {}
func (h *LineHost) BeforeActiveInstanceBlur()                         {}
func (h *LineHost) AfterActiveInstanceBlur()                          {}

func (h *LineHost) ApplyMutation(m hostapi.Mutation) error {
	inst, _ := m.Instance.(*Instance)
	switch m.Kind {
	case hostapi.MutationPlacement:
		parent, _ := m.Parent.(*Instance)
		if parent == nil {
			parent = h.root
		}
		before, _ := m.Before.(*Instance)
		parent.insertBefore(inst, before)
		fmt.Printf("+ %s\n", inst.Kind)
	case hostapi.MutationUpdate:
		if text, ok := m.Props.(string); ok {
			inst.Text = text
		}
		fmt.Printf("~ %s %q\n", inst.Kind, inst.Text)
	case hostapi.MutationDeletion:
		if inst.Parent != nil {
			inst.Parent.remove(inst)
		}
		fmt.Printf("- %s\n", inst.Kind)
	case hostapi.MutationContentReset:
		inst.Text = ""
	case hostapi.MutationHydrate:
	}
	return nil
}

func (h *LineHost) ScheduleTimeout(fn func(), d time.Duration) hostapi.TimeoutHandle {
	return time.AfterFunc(d, fn)
}

func (h *LineHost) CancelTimeout(handle hostapi.TimeoutHandle) {
	if t, ok := handle.(*time.Timer); ok {
		t.Stop()
	}
}
