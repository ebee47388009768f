package main

import "github.com/urfave/cli/v2"

var (
	flagSpec = &cli.StringFlag{
		Name:  "spec",
		Usage: "hardfork rules to compile against (frontier..prague)",
		Value: "cancun",
	}
	flagOptLevel = &cli.IntFlag{
		Name:  "opt-level",
		Usage: "backend optimisation level passed to OptimizeFunction",
		Value: 2,
	}
	flagDebugAssertions = &cli.BoolFlag{
		Name:  "debug-assertions",
		Usage: "compile with the translator's debug-mode assertions enabled",
	}
	flagDisableGas = &cli.BoolFlag{
		Name:  "disable-gas",
		Usage: "compile functions that never charge gas",
	}
	flagStaticGasLimit = &cli.Uint64Flag{
		Name:  "static-gas-limit",
		Usage: "bake a fixed gas limit into the compiled function (0 disables)",
	}
	flagPassStackThroughArgs = &cli.BoolFlag{
		Name:  "pass-stack-through-args",
		Usage: "pass the EVM stack as a caller-owned argument instead of allocating it",
	}
	flagPassStackLenThroughArgs = &cli.BoolFlag{
		Name:  "pass-stack-len-through-args",
		Usage: "pass the EVM stack length as a caller-owned argument",
	}
	flagDumpTo = &cli.StringFlag{
		Name:  "dump-to",
		Usage: "directory to dump intermediate and optimised LLVM IR to",
	}
	flagWorkDir = &cli.StringFlag{
		Name:  "work-dir",
		Usage: "scratch directory the llvmir backend uses for its module and shared object (empty picks a temp dir)",
	}
	flagLogLevel = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn, or error",
		Value: "info",
	}
)

func appFlags() []cli.Flag {
	return []cli.Flag{
		flagSpec,
		flagOptLevel,
		flagDebugAssertions,
		flagDisableGas,
		flagStaticGasLimit,
		flagPassStackThroughArgs,
		flagPassStackLenThroughArgs,
		flagDumpTo,
		flagWorkDir,
		flagLogLevel,
	}
}
