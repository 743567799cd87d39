// Command ec is the EC compiler driver: source text in, an executable (or
// assembly text, or a shared object) out. Flag handling follows welle's
// cmd/welle/main.go idiom (stdlib flag, parsed after a leading positional
// argument) rather than the teacher's argv-index main.go, since this CLI
// is flag-rich in a way the teacher's single-file smoke-test driver never
// needed.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"ec/internal/compiler"
	"ec/internal/diag"
	"ec/internal/driver"
	"ec/internal/runtime"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	sourcePath := os.Args[1]

	fs := flag.NewFlagSet("ec", flag.ExitOnError)
	emitAsm := fs.Bool("emit-asm", false, "write assembly text only")
	runAfter := fs.Bool("run", false, "compile then execute")
	shared := fs.Bool("shared", false, "emit a position-independent shared object")
	output := fs.String("o", "", "output file path")
	linkLibs := fs.String("link", "", "comma-separated shared libraries to link against")
	libPaths := fs.String("lib-path", "", "comma-separated library search paths")
	target := fs.String("target", "x86_64", "target architecture")
	verbose := fs.Bool("v", false, "verbose per-stage progress")
	verboseLong := fs.Bool("verbose", false, "verbose per-stage progress")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	if err := driver.ValidateTarget(*target); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", sourcePath, err)
		os.Exit(1)
	}

	isVerbose := *verbose || *verboseLong
	if isVerbose {
		fmt.Fprintf(os.Stderr, "compiling %s...\n", sourcePath)
	}

	result, err := compiler.Compile(string(src))
	printDiagnostics(string(src), result)
	if err != nil {
		os.Exit(1)
	}

	if isVerbose {
		fmt.Fprintf(os.Stderr, "features: %s\n", strings.Join(result.Features.Sorted(), ", "))
	}

	runtimeText, err := runtime.Link(result.Features)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fullAsm := result.Assembly + "\n" + runtimeText

	opts := driver.Options{
		SourcePath:  sourcePath,
		OutputPath:  *output,
		EmitAsmOnly: *emitAsm,
		Shared:      *shared,
		Run:         *runAfter,
		Verbose:     isVerbose,
		Target:      *target,
	}
	if *linkLibs != "" {
		opts.LinkLibs = strings.Split(*linkLibs, ",")
	}
	if *libPaths != "" {
		opts.LibPaths = strings.Split(*libPaths, ",")
	}

	out, err := driver.Build(fullAsm, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if isVerbose && !*emitAsm {
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}
}

func printDiagnostics(src string, result *compiler.Result) {
	if result == nil || len(result.Diagnostics) == 0 {
		return
	}
	lines := strings.Split(src, "\n")
	for _, d := range result.Diagnostics {
		fmt.Fprint(os.Stderr, renderOrString(d, lines))
	}
}

func renderOrString(d diag.Diagnostic, lines []string) string {
	return d.Render(lines)
}

func usage() {
	fmt.Fprintln(os.Stderr, "ec: compile English-sentence source to x86_64 assembly")
	fmt.Fprintln(os.Stderr, "usage: ec <source.en> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  --emit-asm         write assembly text only")
	fmt.Fprintln(os.Stderr, "  --run              compile then execute")
	fmt.Fprintln(os.Stderr, "  --shared           emit a shared object")
	fmt.Fprintln(os.Stderr, "  --link <names>     comma-separated libraries to link")
	fmt.Fprintln(os.Stderr, "  --lib-path <paths> comma-separated library search paths")
	fmt.Fprintln(os.Stderr, "  --target <arch>    target architecture (x86_64 only)")
	fmt.Fprintln(os.Stderr, "  -o <file>          output path")
	fmt.Fprintln(os.Stderr, "  -v, --verbose      per-stage progress")
}
