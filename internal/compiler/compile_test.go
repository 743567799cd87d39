package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These mirror the concrete end-to-end scenarios enumerated for this
// language: since the generated assembly is never assembled or run here,
// each case checks the compiled output structurally — the runtime calls
// and data it must contain to produce the documented behavior — rather
// than the actual stdout/exit code a real nasm/ld/run would produce.

func TestCompileHello(t *testing.T) {
	result, err := Compile(`Print "Hello, World!".`)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Contains(t, result.Assembly, `db "Hello, World!"`)
	require.Contains(t, result.Assembly, "call io_print_string")
	require.True(t, result.Features["io"])
}

func TestCompileFizzBuzz(t *testing.T) {
	src := `print each n from 1 to 15, but if n modulo 15 is 0 print "fizzbuzz", but if n modulo 3 is 0 print "fizz", but if n modulo 5 is 0 print "buzz".`
	result, err := Compile(src)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Contains(t, result.Assembly, `db "fizzbuzz"`)
	require.Contains(t, result.Assembly, `db "fizz"`)
	require.Contains(t, result.Assembly, `db "buzz"`)
	require.Contains(t, result.Assembly, "idiv")
}

func TestCompileSumViaWhile(t *testing.T) {
	src := `a number called "i" is 1. a number called "s" is 0. While i is less than or equal to 10, s is s add i, i is i add 1. Print the s.`
	result, err := Compile(src)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Contains(t, result.Assembly, "setle")
	require.Contains(t, result.Assembly, "call io_print_int")
}

func TestCompileBoundsHandler(t *testing.T) {
	src := `a list of number called "xs". Append 1 to xs, append 2 to xs, append 3 to xs. element 100 of xs, on error print "bad".`
	result, err := Compile(src)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Contains(t, result.Assembly, "call list_element_checked")
	require.Contains(t, result.Assembly, `db "bad"`)
	require.Contains(t, result.Assembly, "_last_error")
	require.True(t, result.Features["list"])
}

func TestCompileFormatPrecision(t *testing.T) {
	src := `a float called "p" is 3.1415926535. Print "{p:.4}".`
	result, err := Compile(src)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Contains(t, result.Assembly, "dq 3.1415926535")
	require.Contains(t, result.Assembly, "call string_builder_append_float_spec")
	require.True(t, result.Features["format"])
	require.True(t, result.Features["float"])
}

func TestCompileStringConcatAndPathExists(t *testing.T) {
	src := `a text called "greeting" is "hello, " + "world". If "data.txt" exists, print greeting.`
	result, err := Compile(src)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Contains(t, result.Assembly, "call string_concat")
	require.Contains(t, result.Assembly, "call file_exists")
	require.True(t, result.Features["file"])
}

func TestCompileSemanticErrorAbortsBeforeGeneration(t *testing.T) {
	result, err := Compile(`Print total.`)
	require.Error(t, err)
	require.Empty(t, result.Assembly)
	require.NotEmpty(t, result.Diagnostics)
}

func TestCompileLexErrorPropagates(t *testing.T) {
	_, err := Compile(`Print "unterminated`)
	require.Error(t, err)
}

func TestCompileParseErrorPropagates(t *testing.T) {
	_, err := Compile(`Print "missing period"`)
	require.Error(t, err)
}
