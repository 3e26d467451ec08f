package eventhub

import "sort"

// Phase orders module init/exit relative to the critical dependencies:
// allocator, then coroutine primitives, then platform, then interior
// subsystems (timer, event-callback dispatcher), then application
// modules. Gaps of 10 are left between the named
// phases so a caller can splice a module in between two of them without
// renumbering anything.
type Phase int

const (
	PhaseAllocator Phase = iota * 10
	PhaseCoroutine
	PhasePlatform
	PhaseInterior
	PhaseApplication
)

// ModuleInit is run in phase order at InitModules. A non-nil error
// aborts the whole sequence and rolls back every already-started entry.
type ModuleInit func() error

// ModuleExit tears down what ModuleInit set up. Called in reverse
// registration order within reverse phase order, both on rollback and
// on ExitModules.
type ModuleExit func()

type moduleEntry struct {
	phase Phase
	name  string
	init  ModuleInit
	exit  ModuleExit
}

var (
	moduleRegistry []moduleEntry
	modulesStarted []moduleEntry
)

// RegisterModule declares one (init, exit) pair in the given phase. Must
// be called before InitModules; this is a compile-time-style
// declaration mechanism, not a runtime plugin system.
func RegisterModule(phase Phase, name string, init ModuleInit, exit ModuleExit) {
	moduleRegistry = append(moduleRegistry, moduleEntry{phase: phase, name: name, init: init, exit: exit})
}

// InitModules runs every registered module's init, lowest phase first
// and in declaration order within a phase. On failure, every module that
// had already started is torn down in reverse order and the triggering
// error is returned; no partial state is left registered as started.
func InitModules() error {
	entries := make([]moduleEntry, len(moduleRegistry))
	copy(entries, moduleRegistry)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].phase < entries[j].phase })

	var startedEntries []moduleEntry
	for _, e := range entries {
		if e.init != nil {
			if err := e.init(); err != nil {
				teardown(startedEntries)
				return WrapError(Fault, err)
			}
		}
		startedEntries = append(startedEntries, e)
		logDebug("module initialized", "name", e.name, "phase", int(e.phase))
	}
	modulesStarted = startedEntries
	return nil
}

// ExitModules tears down every started module in reverse order.
func ExitModules() {
	teardown(modulesStarted)
	modulesStarted = nil
}

func teardown(entries []moduleEntry) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].exit != nil {
			entries[i].exit()
		}
		logDebug("module torn down", "name", entries[i].name)
	}
}
