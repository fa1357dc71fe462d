package command

import "context"

// DefaultMaxDepth bounds a History when no depth is configured.
const DefaultMaxDepth = 50

// InternalHistory records the sub-commands a composite command ran so they
// can be undone as one unit. It never touches the outer History.
type InternalHistory struct {
	buffer []Command
}

// Submit runs cmd and records it when it succeeds.
func (h *InternalHistory) Submit(ctx context.Context, cmd Command) bool {
	if !cmd.Do(ctx) {
		return false
	}
	h.buffer = append(h.buffer, cmd)
	return true
}

// SubmitBatch runs cmds in order as one atomic unit. When a member fails,
// the members that already ran are undone in reverse and nothing is recorded.
func (h *InternalHistory) SubmitBatch(ctx context.Context, cmds ...Command) bool {
	for i, cmd := range cmds {
		if cmd.Do(ctx) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			cmds[j].Undo(ctx)
		}
		return false
	}
	h.buffer = append(h.buffer, cmds...)
	return true
}

// UndoAll undoes every recorded command, newest first. If one fails, the
// commands already undone are redone and false is returned with the buffer
// intact.
func (h *InternalHistory) UndoAll(ctx context.Context) bool {
	for i := len(h.buffer) - 1; i >= 0; i-- {
		if h.buffer[i].Undo(ctx) {
			continue
		}
		for _, cmd := range h.buffer[i+1:] {
			cmd.Do(ctx)
		}
		return false
	}
	h.buffer = nil
	return true
}

// Len returns the number of recorded commands.
func (h *InternalHistory) Len() int { return len(h.buffer) }

// History is a bounded undo/redo stack of user-facing commands.
type History struct {
	undoStack []Command
	redoStack []Command
	maxDepth  int
}

// NewHistory creates a History keeping at most maxDepth undo entries.
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &History{maxDepth: maxDepth}
}

// Submit runs cmd. Only a successful command is pushed; pushing clears the
// redo stack.
func (h *History) Submit(ctx context.Context, cmd Command) bool {
	if !cmd.Do(ctx) {
		return false
	}
	h.undoStack = append(h.undoStack, cmd)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[len(h.undoStack)-h.maxDepth:]
	}
	h.redoStack = nil
	return true
}

// Undo reverts the most recent command and moves it to the redo stack.
// Returns false when there is nothing to undo or the undo failed; a failed
// undo leaves both stacks unchanged.
func (h *History) Undo(ctx context.Context) bool {
	if len(h.undoStack) == 0 {
		return false
	}
	cmd := h.undoStack[len(h.undoStack)-1]
	if !cmd.Undo(ctx) {
		return false
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, cmd)
	return true
}

// Redo re-runs the most recently undone command and moves it back to the
// undo stack. A failed redo leaves both stacks unchanged.
func (h *History) Redo(ctx context.Context) bool {
	if len(h.redoStack) == 0 {
		return false
	}
	cmd := h.redoStack[len(h.redoStack)-1]
	if !cmd.Do(ctx) {
		return false
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, cmd)
	return true
}

// CanUndo returns true if there is at least one command to undo.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo returns true if there is at least one command to redo.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// UndoName returns the name of the command Undo would revert.
func (h *History) UndoName() string {
	if len(h.undoStack) == 0 {
		return ""
	}
	return h.undoStack[len(h.undoStack)-1].Name()
}

// RedoName returns the name of the command Redo would re-run.
func (h *History) RedoName() string {
	if len(h.redoStack) == 0 {
		return ""
	}
	return h.redoStack[len(h.redoStack)-1].Name()
}

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
