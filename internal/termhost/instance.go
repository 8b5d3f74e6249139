// Package termhost is the reference hostapi.Host adapter: a terminal
// UI built on Bubble Tea, following the teacher's internal/tui model
// shape (a Model driven by typed msg values, lipgloss styles for
// status color, a scrollable detail viewport) but rendering a live
// host-instance tree instead of a pipeline phase list.
package termhost

// Instance is a host node. The component layer (internal/democomp's
// workhooks.Hooks implementation) constructs these and stores them in
// a fiber's StateNode; this package only ever receives them back via
// hostapi.Mutation, never constructs one on the reconciler's behalf.
type Instance struct {
	Kind     string
	Text     string
	Parent   *Instance
	Children []*Instance
}

func (i *Instance) insertBefore(child *Instance, before *Instance) {
	if before == nil {
		i.Children = append(i.Children, child)
		child.Parent = i
		return
	}
	idx := len(i.Children)
	for j, c := range i.Children {
		if c == before {
			idx = j
			break
		}
	}
	i.Children = append(i.Children, nil)
	copy(i.Children[idx+1:], i.Children[idx:])
	i.Children[idx] = child
	child.Parent = i
}

func (i *Instance) remove(child *Instance) {
	for j, c := range i.Children {
		if c == child {
			i.Children = append(i.Children[:j], i.Children[j+1:]...)
			return
		}
	}
}
