package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustGenerate(t *testing.T, src string) string {
	t.Helper()
	toks, err := Lex(src)
	require.NoError(t, err)
	prog, err := Parse(toks, src)
	require.NoError(t, err)
	result, sink := Analyze(prog)
	require.False(t, sink.HasErrors(), "unexpected analysis errors: %v", sink.Diagnostics())
	return Generate(prog, result)
}

func TestGenerateHasEntrySymbolAndSections(t *testing.T) {
	asm := mustGenerate(t, `Print "Hello, World!".`)
	require.Contains(t, asm, "global _start")
	require.Contains(t, asm, "_start:")
	require.Contains(t, asm, "section .text")
}

func TestGenerateHelloCallsIOPrint(t *testing.T) {
	asm := mustGenerate(t, `Print "Hello, World!".`)
	require.Contains(t, asm, "call io_print_string")
	require.Contains(t, asm, "call io_print_newline")
	require.Contains(t, asm, `db "Hello, World!"`)
}

func TestGenerateFloatLiteralUsesDataQuadword(t *testing.T) {
	asm := mustGenerate(t, `a float called "p" is 3.1415926535. Print "{p:.4}".`)
	// The float pool must emit a real IEEE-754 bit pattern via "dq", never
	// route a FloatLiteral through the NUL-terminated string pool.
	require.Contains(t, asm, "dq 3.1415926535")
	require.Contains(t, asm, "movsd")
}

func TestGenerateOwnsNoLastErrorDefinition(t *testing.T) {
	asm := mustGenerate(t, `a list of number called "xs". On error print "bad".`)
	// _last_error belongs solely to core.asm; codegen must never redefine it.
	require.NotContains(t, asm, "_last_error: dq 0")
	require.NotContains(t, asm, "_last_error dq 0")
}

func TestGenerateWhileLoopEmitsLabelsAndJumps(t *testing.T) {
	src := `a number called "i" is 1. a number called "s" is 0. While i is less than or equal to 10, s is s add i, i is i add 1. Print the s.`
	asm := mustGenerate(t, src)
	require.Contains(t, asm, "setle")
	require.Contains(t, asm, "jmp")
}

func TestGenerateForEachRangeDoesNotCallListHelpers(t *testing.T) {
	asm := mustGenerate(t, `For each n from 1 to 15, print n.`)
	require.NotContains(t, asm, "call list_length")
	require.NotContains(t, asm, "call list_element_checked")
}

func TestGenerateUnaryNegateDispatchesByOperandType(t *testing.T) {
	intAsm := mustGenerate(t, `a number called "n" is 5. Print -n.`)
	floatAsm := mustGenerate(t, `a float called "f" is 5.5. Print -f.`)
	require.Contains(t, intAsm, "neg rax")
	require.NotContains(t, intAsm, "call float_negate")
	require.Contains(t, floatAsm, "call float_negate")
}

func TestGenerateStringConcatCallsRuntimeHelper(t *testing.T) {
	src := `a text called "left" is "foo". a text called "right" is "bar". Print left + right.`
	asm := mustGenerate(t, src)
	require.Contains(t, asm, "call string_concat")
}

func TestGenerateTextPaddedCastCallsFormatPadText(t *testing.T) {
	src := `a text called "n" is "ok". Print n as text padded to 8.`
	asm := mustGenerate(t, src)
	require.Contains(t, asm, "call format_pad_text")
	require.Contains(t, asm, "mov rsi, 8")
}

func TestGeneratePathExistsCallsFileExists(t *testing.T) {
	asm := mustGenerate(t, `If "data.txt" exists, print "found".`)
	require.Contains(t, asm, "call file_exists")
}

func TestGenerateFunctionEmitsPrologueAndEpilogue(t *testing.T) {
	src := `To "double" with a number called "n". Return a number. Return n multiply 2.`
	asm := mustGenerate(t, src)
	require.Contains(t, asm, "fn_double:")
	require.Contains(t, asm, "push rbp")
	require.Contains(t, asm, "mov rbp, rsp")
	require.Contains(t, asm, "pop rbp")
	require.Contains(t, asm, "ret")
}
