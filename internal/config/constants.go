package config

// Backend names accepted by the CLI and config file.
const (
	BackendTreeWalk = "tree-walk"
	BackendVM       = "vm"
)

// Compiler modes.
const (
	CompilerModeOff       = "off"
	CompilerModeImmediate = "immediate"
	CompilerModeMixed     = "mixed"
)

// DefaultWarmupThreshold is the number of interpreted runs a call site gets
// in mixed mode before compilation is attempted.
const DefaultWarmupThreshold = 100

// ConfigFileName is the config file the CLI looks for.
const ConfigFileName = "exprel.yaml"

// ReplPrompt is printed before each interactive input line.
const ReplPrompt = "exprel> "
