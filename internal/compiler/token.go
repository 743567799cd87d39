package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable, function, or property name
	QUOTED     // "..." — may later be rewritten into a format string
	CHAR_LIT   // not emitted: the lexer turns 'c' into an INTEGER token whose Lexeme is the byte value in decimal
	INTEGER    // decimal, 0x, or 0b integer literal
	FLOAT      // literal containing a '.'

	// Articles
	A   // "a" / "an"
	THE // "the"

	// Keywords: declaration & type words
	CALLED
	IS
	NUMBER
	TEXT
	BOOLEAN
	BUFFER_KW
	FILE_KW
	LIST_KW
	TIME_KW
	TIMER_KW

	// Keywords: control
	IF
	ELSEIF
	ELSE
	WHILE
	FOR
	EACH
	FROM
	TO_KW
	BUT
	TREATING
	AS_KW
	IN_KW
	ON
	ERROR_KW

	// Keywords: statements / verbs
	PRINT
	WITHOUT
	NEWLINE_KW
	RETURN
	BREAK
	CONTINUE
	EXIT
	OPEN
	READING
	WRITING
	APPENDING
	AT
	READ
	INTO
	WRITE
	CLOSE
	DELETE
	EXISTS
	CREATE
	RESIZE
	BYTES_KW
	SET
	BYTE_KW
	OF
	START
	STOP
	WAIT
	SLEEP
	SECOND_KW
	MILLISECOND_KW

	// Function definitions
	TO_DEF // "To" heading a function definition
	WITH
	AND_KW
	BUT_NOT_USED // placeholder kept out of tokenNames gap; never emitted

	// Operators (word and symbol form)
	OR
	ANDOP
	NOT
	ADD
	SUBTRACT
	MULTIPLY
	DIVIDE
	MODULO
	PLURAL_ARE

	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	AMP
	PIPE
	CARET
	TILDE
	SHL
	SHR

	GREATER
	LESS
	GREATER_EQ
	LESS_EQ
	EQUAL_EQUAL
	NOT_EQUAL

	// Punctuation
	APOSTROPHE_S // 's
	LBRACKET
	RBRACKET
	LPAREN
	RPAREN
	PERIOD
	COMMA

	INCREMENT
	DECREMENT
)

var tokenNames = map[TokenType]string{
	EOF: "EOF", IDENTIFIER: "IDENTIFIER", QUOTED: "QUOTED", CHAR_LIT: "CHAR_LIT",
	INTEGER: "INTEGER", FLOAT: "FLOAT", A: "A", THE: "THE", CALLED: "CALLED",
	IS: "IS", NUMBER: "NUMBER", TEXT: "TEXT", BOOLEAN: "BOOLEAN",
	BUFFER_KW: "BUFFER", FILE_KW: "FILE", LIST_KW: "LIST", TIME_KW: "TIME",
	TIMER_KW: "TIMER", IF: "IF", ELSEIF: "ELSEIF", ELSE: "ELSE", WHILE: "WHILE",
	FOR: "FOR", EACH: "EACH", FROM: "FROM", TO_KW: "TO", BUT: "BUT",
	TREATING: "TREATING", AS_KW: "AS", IN_KW: "IN", ON: "ON", ERROR_KW: "ERROR",
	PRINT: "PRINT", WITHOUT: "WITHOUT", NEWLINE_KW: "NEWLINE", RETURN: "RETURN",
	BREAK: "BREAK", CONTINUE: "CONTINUE", EXIT: "EXIT", OPEN: "OPEN",
	READING: "READING", WRITING: "WRITING", APPENDING: "APPENDING", AT: "AT",
	READ: "READ", INTO: "INTO", WRITE: "WRITE", CLOSE: "CLOSE", DELETE: "DELETE",
	EXISTS: "EXISTS", CREATE: "CREATE", RESIZE: "RESIZE", BYTES_KW: "BYTES",
	SET: "SET", BYTE_KW: "BYTE", OF: "OF", START: "START", STOP: "STOP",
	WAIT: "WAIT", SLEEP: "SLEEP", SECOND_KW: "SECOND", MILLISECOND_KW: "MILLISECOND",
	TO_DEF: "TO_DEF", WITH: "WITH", AND_KW: "AND", OR: "OR", ANDOP: "ANDOP",
	NOT: "NOT", ADD: "ADD", SUBTRACT: "SUBTRACT", MULTIPLY: "MULTIPLY",
	DIVIDE: "DIVIDE", MODULO: "MODULO", PLURAL_ARE: "ARE",
	PLUS: "PLUS", MINUS: "MINUS", STAR: "STAR", SLASH: "SLASH", PERCENT: "PERCENT",
	AMP: "AMP", PIPE: "PIPE", CARET: "CARET", TILDE: "TILDE", SHL: "SHL", SHR: "SHR",
	GREATER: "GREATER", LESS: "LESS", GREATER_EQ: "GREATER_EQ", LESS_EQ: "LESS_EQ",
	EQUAL_EQUAL: "EQUAL_EQUAL", NOT_EQUAL: "NOT_EQUAL",
	APOSTROPHE_S: "APOSTROPHE_S", LBRACKET: "LBRACKET", RBRACKET: "RBRACKET",
	LPAREN: "LPAREN", RPAREN: "RPAREN", PERIOD: "PERIOD", COMMA: "COMMA",
	INCREMENT: "INCREMENT", DECREMENT: "DECREMENT",
}

func (tt TokenType) String() string {
	if n, ok := tokenNames[tt]; ok {
		return n
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// keywords maps case-folded source text to its keyword TokenType. Lookup is
// case-insensitive; the lexer lower-cases the lexeme before probing
// this table but preserves the original-case lexeme on the token.
var keywords = map[string]TokenType{
	"a": A, "an": A, "the": THE, "called": CALLED, "is": IS,
	"number": NUMBER, "text": TEXT, "boolean": BOOLEAN, "buffer": BUFFER_KW,
	"file": FILE_KW, "list": LIST_KW, "time": TIME_KW, "timer": TIMER_KW,
	"if": IF, "elseif": ELSEIF, "else": ELSE, "while": WHILE, "for": FOR,
	"each": EACH, "from": FROM, "to": TO_KW, "but": BUT, "treating": TREATING,
	"as": AS_KW, "in": IN_KW, "on": ON, "error": ERROR_KW, "print": PRINT,
	"without": WITHOUT, "newline": NEWLINE_KW, "return": RETURN, "break": BREAK,
	"continue": CONTINUE, "exit": EXIT, "open": OPEN, "reading": READING,
	"writing": WRITING, "appending": APPENDING, "at": AT, "read": READ,
	"into": INTO, "write": WRITE, "close": CLOSE, "delete": DELETE,
	"exists": EXISTS, "create": CREATE, "resize": RESIZE, "bytes": BYTES_KW,
	"set": SET, "byte": BYTE_KW, "of": OF, "start": START, "stop": STOP,
	"wait": WAIT, "sleep": SLEEP, "second": SECOND_KW, "seconds": SECOND_KW,
	"millisecond": MILLISECOND_KW, "milliseconds": MILLISECOND_KW,
	"with": WITH, "and": AND_KW, "or": OR, "not": NOT, "add": ADD, "plus": ADD,
	"subtract": SUBTRACT, "minus": SUBTRACT, "multiply": MULTIPLY, "times": MULTIPLY,
	"divide": DIVIDE, "modulo": MODULO, "mod": MODULO, "remainder": MODULO,
	"are": PLURAL_ARE,
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%-14s %-20q line %d col %d", t.Type, t.Lexeme, t.Line, t.Column)
}
