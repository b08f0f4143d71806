package switchcore

import "github.com/softnic/softnicd/sv"

// MaxTasksPerModule bounds the number of task slots a module may register.
const MaxTasksPerModule = 16

// Task is a unit of work registered by a module and, once attached,
// scheduled by exactly one worker.
type Task struct {
	Module   *Module
	ID       int
	Arg      sv.Value
	Attached bool
	Worker   int // valid only if Attached
}
