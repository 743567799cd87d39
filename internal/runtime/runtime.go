// Package runtime holds the thirteen pre-written NASM modules the code
// generator's feature flags pull into a compiled program. Grounded on
// the teacher's pkg/asm registry-table idiom (asm.go's opcode lookup tables
// keyed by mnemonic): here the table is keyed by feature name instead of
// mnemonic, and the "encoding" step is textual concatenation rather than
// machine-code emission, since EC hands its output to an external
// assembler/linker (nasm/ld) rather than encoding bytes itself.
//
// The original compiler this is grounded on used NASM's own `%include
// "coreasm/<arch>/NAME.asm"` directive, which requires the module files to
// exist on disk next to the emitted assembly. EC instead embeds every
// module into the compiler binary with go:embed and concatenates the
// selected module text directly into the output, so a single `ec` binary
// is self-contained and the driver never has to locate a coreasm/ install
// directory.
package runtime

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed asm/*.asm
var moduleFS embed.FS

// Module is one runtime contract unit: a feature name and the NASM source
// text it contributes.
type Module struct {
	Feature string
	path    string
}

// moduleTable enumerates every module in the fixed dependency order core
// must come first, and dependents such as file (which calls into resource)
// must follow what they depend on. This mirrors the teacher's
// zeroOperandOps/twoRegisterOps-style table-per-concern layout.
var moduleTable = []Module{
	{Feature: "core", path: "asm/core.asm"},
	{Feature: "io", path: "asm/io.asm"},
	{Feature: "resource", path: "asm/resource.asm"},
	{Feature: "heap", path: "asm/heap.asm"},
	{Feature: "string", path: "asm/string.asm"},
	{Feature: "binary", path: "asm/binary.asm"},
	{Feature: "list", path: "asm/list.asm"},
	{Feature: "math", path: "asm/math.asm"},
	{Feature: "float", path: "asm/float.asm"},
	{Feature: "args", path: "asm/args.asm"},
	{Feature: "time", path: "asm/time.asm"},
	{Feature: "file", path: "asm/file.asm"},
	{Feature: "format", path: "asm/format.asm"},
}

// Names returns every module name in the fixed inclusion order, regardless
// of selection — used by tests asserting the table covers exactly the
// thirteen runtime modules.
func Names() []string {
	names := make([]string, len(moduleTable))
	for i, m := range moduleTable {
		names[i] = m.Feature
	}
	return names
}

// Link concatenates the NASM text for every feature in features, in
// moduleTable's fixed order, regardless of the order features was
// populated in (selection is a set operation: additive and monotonic).
// "core" is always appended even if absent from features, since every
// emitted program needs _last_error and the exit primitive.
func Link(features map[string]bool) (string, error) {
	selected := make(map[string]bool, len(features))
	for k, v := range features {
		if v {
			selected[k] = true
		}
	}
	selected["core"] = true

	var b strings.Builder
	for _, m := range moduleTable {
		if !selected[m.Feature] {
			continue
		}
		text, err := moduleFS.ReadFile(m.path)
		if err != nil {
			return "", fmt.Errorf("runtime: missing module %q: %w", m.Feature, err)
		}
		fmt.Fprintf(&b, "; ---- runtime module: %s ----\n", m.Feature)
		b.Write(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}
