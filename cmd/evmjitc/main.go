// Command evmjitc compiles raw EVM bytecode through the backend/llvmir
// backend and reports the resolved native entry point, the way a
// standalone ahead-of-time driver for the JIT would: useful for inspecting
// the IR a given contract lowers to, or for smoke-testing a new opcode's
// translation without embedding the compiler in a full node.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/eth2030/eth2030/backend/llvmir"
	"github.com/eth2030/eth2030/jit/callback"
	"github.com/eth2030/eth2030/jit/compiler"
	"github.com/eth2030/eth2030/jit/opcodes"
	"github.com/eth2030/eth2030/log"
)

var specByName = map[string]opcodes.SpecID{
	"frontier":         opcodes.Frontier,
	"homestead":        opcodes.Homestead,
	"tangerinewhistle": opcodes.TangerineWhistle,
	"spuriousdragon":   opcodes.SpuriousDragon,
	"byzantium":        opcodes.Byzantium,
	"constantinople":   opcodes.Constantinople,
	"istanbul":         opcodes.Istanbul,
	"berlin":           opcodes.Berlin,
	"london":           opcodes.London,
	"merge":            opcodes.Merge,
	"shanghai":         opcodes.Shanghai,
	"cancun":           opcodes.Cancun,
	"prague":           opcodes.Prague,
}

func main() {
	app := &cli.App{
		Name:      "evmjitc",
		Usage:     "ahead-of-time compile EVM bytecode to a native function pointer",
		UsageText: "evmjitc [options] <bytecode-file>",
		Flags:     appFlags(),
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "evmjitc:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one bytecode file argument", 2)
	}

	log.SetDefault(log.New(slogLevelFromFlag(c.String(flagLogLevel.Name))))

	code, err := readBytecode(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("read bytecode: %v", err), 1)
	}

	spec, ok := specByName[strings.ToLower(c.String(flagSpec.Name))]
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown --spec %q", c.String(flagSpec.Name)), 2)
	}

	backend, err := llvmir.New(c.String(flagWorkDir.Name))
	if err != nil {
		return cli.Exit(fmt.Sprintf("init backend: %v", err), 1)
	}

	opts := []compiler.Option{compiler.WithOptLevel(c.Int(flagOptLevel.Name))}
	if c.Bool(flagDebugAssertions.Name) {
		opts = append(opts, compiler.WithDebugAssertions())
	}
	if c.Bool(flagDisableGas.Name) {
		opts = append(opts, compiler.WithDisableGas())
	}
	if c.Bool(flagPassStackThroughArgs.Name) {
		opts = append(opts, compiler.WithPassStackThroughArgs())
	}
	if c.Bool(flagPassStackLenThroughArgs.Name) {
		opts = append(opts, compiler.WithPassStackLenThroughArgs())
	}
	if dir := c.String(flagDumpTo.Name); dir != "" {
		opts = append(opts, compiler.WithDumpTo(dir))
	}

	comp, err := compiler.New(backend, callback.Default(), opts...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("construct compiler: %v", err), 1)
	}

	if limit := c.Uint64(flagStaticGasLimit.Name); limit != 0 {
		comp.SetStaticGasLimit(&limit)
	}

	fn, err := comp.Compile(context.Background(), code, spec)
	if err != nil {
		return cli.Exit(fmt.Sprintf("compile: %v", err), 1)
	}

	fmt.Printf("compiled %d bytes of bytecode under %s: entry point 0x%x\n", len(code), c.String(flagSpec.Name), uintptr(fn))
	return nil
}

// readBytecode accepts either raw bytecode or a hex string (with or
// without a 0x prefix), matching how contract code is most often pasted
// into a file by hand.
func readBytecode(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if decoded, err := hex.DecodeString(trimmed); err == nil && isLikelyHex(trimmed) {
		return decoded, nil
	}
	return raw, nil
}

func isLikelyHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func slogLevelFromFlag(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
