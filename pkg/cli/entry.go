// Package cli implements the exprel command line: one-shot evaluation,
// an interactive REPL, and type inspection.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/exprel/internal/config"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/inspect"
	"github.com/funvibe/exprel/internal/remote"
	"github.com/funvibe/exprel/pkg/exprel"
)

const usage = `Usage:
  exprel [flags] -e <expression>    evaluate one expression
  exprel [flags]                    start a REPL (or read stdin when piped)
  exprel methods <package> <Type>   list methods callable on a Go type

Flags:
  -e <expression>     expression to evaluate
  --target <yaml>     root object as a YAML/JSON literal
  --backend <name>    tree-walk or vm (overrides config)
  --mode <name>       compiler mode: off, immediate or mixed
  --config <path>     exprel.yaml path (default: search upward from cwd)
  --disasm            print bytecode disassembly instead of evaluating
`

// Entry runs the CLI and returns the process exit code.
func Entry(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "methods" {
		return runMethods(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("exprel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	expr := fs.String("e", "", "expression to evaluate")
	targetYAML := fs.String("target", "", "root object as a YAML/JSON literal")
	backendName := fs.String("backend", "", "execution backend")
	modeName := fs.String("mode", "", "compiler mode")
	configPath := fs.String("config", "", "config file path")
	disasm := fs.Bool("disasm", false, "print bytecode disassembly")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	if *modeName != "" {
		cfg.Compiler.Mode = *modeName
	}
	switch cfg.Backend {
	case config.BackendTreeWalk, config.BackendVM:
	default:
		fmt.Fprintf(stderr, "unknown backend %q\n", cfg.Backend)
		return 2
	}
	if _, ok := exprel.ParseMode(cfg.Compiler.Mode); !ok {
		fmt.Fprintf(stderr, "unknown compiler mode %q\n", cfg.Compiler.Mode)
		return 2
	}

	session, err := newSession(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer session.close()
	session.disasm = *disasm

	if *targetYAML != "" {
		var target any
		if err := yaml.Unmarshal([]byte(*targetYAML), &target); err != nil {
			fmt.Fprintf(stderr, "invalid --target: %v\n", err)
			return 2
		}
		session.target = normalizeYAML(target)
	}

	if *expr != "" {
		if err := session.evalAndPrint(*expr); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	return session.repl(os.Stdin)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return &config.Config{
				Backend:  config.BackendTreeWalk,
				Compiler: config.CompilerConfig{Mode: config.CompilerModeMixed, Warmup: config.DefaultWarmupThreshold},
			}, nil
		}
		path = found
	}
	return config.Load(path)
}

// normalizeYAML rewrites decoded YAML trees so nested values keep the
// map[string]any/[]any shapes expressions expect.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}

func runMethods(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "usage: exprel methods <package> <Type>")
		return 2
	}
	methods, err := inspect.Methods(".", args[0], args[1])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	for _, m := range methods {
		recv := ""
		if m.PointerReceiver {
			recv = " (pointer receiver)"
		}
		fmt.Fprintf(stdout, "%s %s%s\n", m.Name, m.Signature, recv)
	}
	return 0
}

// session holds the shared evaluation setup for -e mode and the REPL.
type session struct {
	cfg      *config.Config
	services []*remote.Service
	target   any
	disasm   bool
	stdout   io.Writer
	stderr   io.Writer
}

func newSession(cfg *config.Config, stdout, stderr io.Writer) (*session, error) {
	s := &session{cfg: cfg, stdout: stdout, stderr: stderr}
	for _, svcCfg := range cfg.Services {
		svc, err := remote.Dial(svcCfg)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("service %s: %w", svcCfg.Name, err)
		}
		s.services = append(s.services, svc)
	}
	return s, nil
}

func (s *session) close() {
	for _, svc := range s.services {
		_ = svc.Close()
	}
}

func (s *session) options() []exprel.Option {
	mode, _ := exprel.ParseMode(s.cfg.Compiler.Mode)
	if s.cfg.Backend == config.BackendTreeWalk {
		mode = exprel.ModeOff
	}
	opts := []exprel.Option{
		exprel.WithCompilerMode(mode),
		exprel.WithWarmup(s.cfg.Compiler.Warmup),
	}
	for name, value := range s.cfg.Variables {
		opts = append(opts, exprel.WithVariable(name, normalizeYAML(value)))
	}
	if len(s.services) > 0 {
		// Service proxies bind their methods at call time.
		opts = append(opts, exprel.WithResolver(&dispatch.DynamicResolver{}))
	}
	for i, svcCfg := range s.cfg.Services {
		opts = append(opts, exprel.WithVariable(svcCfg.Name, s.services[i]))
	}
	return opts
}

func (s *session) evalAndPrint(source string) error {
	e, err := exprel.Parse(source, s.options()...)
	if err != nil {
		return err
	}
	if s.disasm {
		text, err := e.Disassemble(s.target)
		if err != nil {
			return err
		}
		fmt.Fprint(s.stdout, text)
		return nil
	}
	result, err := e.Eval(s.target)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "%v\n", result)
	return nil
}
