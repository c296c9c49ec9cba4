package ql

type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Identifier TokenType = iota
	Int
	Float
	String
	True
	False
	And
	Or
	Not
	In
	Plus
	Minus
	Star
	Slash
	Percent
	Comma
	ParenOpen
	ParenClose
	BracketOpen
	BracketClose
	Equals
	NotEquals
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case Float:
		return "Float(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown(" + token.Value + ")"
	default:
		return token.Value
	}
}

// Lexer splits a selection condition into tokens.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(input string) *Lexer {
	lexer := &Lexer{input: input}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.input) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.input[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.input) {
		return 0
	}
	return lexer.input[lexer.readPosition]
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespace()

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: ","}
	case '(':
		token = Token{Type: ParenOpen, Value: "("}
	case ')':
		token = Token{Type: ParenClose, Value: ")"}
	case '[':
		token = Token{Type: BracketOpen, Value: "["}
	case ']':
		token = Token{Type: BracketClose, Value: "]"}
	case '+':
		token = Token{Type: Plus, Value: "+"}
	case '-':
		token = Token{Type: Minus, Value: "-"}
	case '*':
		token = Token{Type: Star, Value: "*"}
	case '/':
		token = Token{Type: Slash, Value: "/"}
	case '%':
		token = Token{Type: Percent, Value: "%"}
	case '&':
		if lexer.peekChar() == '&' {
			lexer.readChar()
		}
		token = Token{Type: And, Value: "&"}
	case '|':
		if lexer.peekChar() == '|' {
			lexer.readChar()
		}
		token = Token{Type: Or, Value: "|"}
	case '~':
		token = Token{Type: Not, Value: "~"}
	case 0:
		return Token{Type: EOF, Value: ""}
	case '\'', '"':
		value, ok := lexer.readString(lexer.ch)
		if !ok {
			return Token{Type: Unknown, Value: value}
		}
		token = Token{Type: String, Value: value}
	case '`':
		value, ok := lexer.readString('`')
		if !ok {
			return Token{Type: Unknown, Value: value}
		}
		token = Token{Type: Identifier, Value: value}
	default:
		if isOperator(lexer.ch) {
			operator := lexer.readOperator()
			switch operator {
			case "=", "==":
				return Token{Type: Equals, Value: operator}
			case "!=", "<>":
				return Token{Type: NotEquals, Value: operator}
			case "<":
				return Token{Type: LessThan, Value: operator}
			case ">":
				return Token{Type: GreaterThan, Value: operator}
			case "<=":
				return Token{Type: LessThanOrEqual, Value: operator}
			case ">=":
				return Token{Type: GreaterThanOrEqual, Value: operator}
			case "!":
				return Token{Type: Not, Value: operator}
			default:
				return Token{Type: Unknown, Value: operator}
			}
		} else if isDigit(lexer.ch) || (lexer.ch == '.' && isDigit(lexer.peekChar())) {
			return lexer.readNumber()
		} else if isIdentifierStart(lexer.ch) {
			literal := lexer.readIdentifier()
			return Token{Type: lookupIdentifier(literal), Value: literal}
		} else {
			token = Token{Type: Unknown, Value: string(lexer.ch)}
		}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' {
		lexer.readChar()
	}
}

func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isIdentifierPart(lexer.ch) {
		lexer.readChar()
	}
	return lexer.input[position:lexer.position]
}

// readString reads a quoted literal. The current character is the opening
// quote; on return it is the closing quote. ok is false when the input ends
// before the closing quote.
func (lexer *Lexer) readString(quote byte) (string, bool) {
	lexer.readChar()
	position := lexer.position
	for lexer.ch != quote && lexer.ch != 0 {
		lexer.readChar()
	}
	str := lexer.input[position:lexer.position]
	return str, lexer.ch == quote
}

func (lexer *Lexer) readDigits() {
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
}

func (lexer *Lexer) readNumber() Token {
	position := lexer.position
	tokenType := Int

	lexer.readDigits()
	if lexer.ch == '.' {
		tokenType = Float
		lexer.readChar()
		lexer.readDigits()
	}
	if lexer.ch == 'e' || lexer.ch == 'E' {
		next := lexer.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && lexer.readPosition+1 < len(lexer.input) && isDigit(lexer.input[lexer.readPosition+1])) {
			tokenType = Float
			lexer.readChar()
			if lexer.ch == '+' || lexer.ch == '-' {
				lexer.readChar()
			}
			lexer.readDigits()
		}
	}
	return Token{Type: tokenType, Value: lexer.input[position:lexer.position]}
}

func (lexer *Lexer) readOperator() string {
	position := lexer.position
	for isOperator(lexer.ch) {
		lexer.readChar()
	}
	return lexer.input[position:lexer.position]
}

func isIdentifierStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isIdentifierPart(ch byte) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isOperator(ch byte) bool {
	return ch == '=' || ch == '!' || ch == '<' || ch == '>'
}

func lookupIdentifier(id string) TokenType {
	switch toLower(id) {
	case "and":
		return And
	case "or":
		return Or
	case "not":
		return Not
	case "in":
		return In
	case "true":
		return True
	case "false":
		return False
	default:
		return Identifier
	}
}

// toLower converts ASCII letters to lower case, allocating only when needed
func toLower(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'A' && s[j] <= 'Z' {
					b[j] = s[j] + 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}

func tokenize(input string) []Token {
	lexer := NewLexer(input)

	var tokens []Token

	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
