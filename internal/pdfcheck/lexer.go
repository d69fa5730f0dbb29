package pdfcheck

import (
	"bytes"
	"strconv"
)

const maxNesting = 100

// lexer is a minimal recursive-descent reader for the PDF object syntax.
// String contents are skipped rather than decoded; validation only needs
// structure, names, and numbers.
type lexer struct {
	data  []byte
	pos   int
	depth int
}

func newLexer(data []byte, pos int) *lexer {
	return &lexer{data: data, pos: pos}
}

func (lx *lexer) done() bool {
	return lx.pos >= len(lx.data)
}

// skipSpace skips PDF whitespace and % comments.
func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if c == '%' {
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		} else if isWhitespace(c) {
			lx.pos++
		} else {
			break
		}
	}
}

// match consumes s if it appears at the current position.
func (lx *lexer) match(s string) bool {
	end := lx.pos + len(s)
	if end > len(lx.data) || string(lx.data[lx.pos:end]) != s {
		return false
	}
	lx.pos = end
	return true
}

// token reads a run of regular characters.
func (lx *lexer) token() string {
	start := lx.pos
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if isWhitespace(c) || isDelim(c) {
			break
		}
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// parseObject reads one object at the current position. Malformed input
// yields a null object rather than an error; callers check the shape of
// what they got.
func (lx *lexer) parseObject() *object {
	if lx.depth > maxNesting {
		return &object{typ: objNull}
	}
	lx.depth++
	defer func() { lx.depth-- }()

	lx.skipSpace()
	if lx.done() {
		return &object{typ: objNull}
	}

	c := lx.data[lx.pos]
	switch {
	case c == 'n' && lx.match("null"):
		return &object{typ: objNull}
	case c == 't' && lx.match("true"):
		return &object{typ: objBool, num: 1}
	case c == 'f' && lx.match("false"):
		return &object{typ: objBool}
	case c == '(':
		return lx.skipLiteralString()
	case c == '<' && lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<':
		return lx.parseDict()
	case c == '<':
		return lx.skipHexString()
	case c == '/':
		return lx.parseName()
	case c == '[':
		return lx.parseArray()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return lx.parseNumberOrRef()
	default:
		lx.pos++
		return &object{typ: objNull}
	}
}

// skipLiteralString consumes (...) with balanced parens and escapes.
func (lx *lexer) skipLiteralString() *object {
	lx.pos++ // '('
	depth := 1
	for lx.pos < len(lx.data) && depth > 0 {
		switch lx.data[lx.pos] {
		case '\\':
			lx.pos++ // skip the escaped byte too
		case '(':
			depth++
		case ')':
			depth--
		}
		lx.pos++
	}
	return &object{typ: objString}
}

// skipHexString consumes <...>.
func (lx *lexer) skipHexString() *object {
	lx.pos++ // '<'
	for lx.pos < len(lx.data) && lx.data[lx.pos] != '>' {
		lx.pos++
	}
	if lx.pos < len(lx.data) {
		lx.pos++
	}
	return &object{typ: objString}
}

func (lx *lexer) parseName() *object {
	lx.pos++ // '/'
	return &object{typ: objName, name: lx.token()}
}

func (lx *lexer) parseArray() *object {
	lx.pos++ // '['
	var arr []*object
	for {
		lx.skipSpace()
		if lx.done() {
			break
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			break
		}
		arr = append(arr, lx.parseObject())
	}
	return &object{typ: objArray, array: arr}
}

// parseDict reads <<...>> and, if followed by "stream", the raw stream
// bytes delimited by /Length or the "endstream" keyword.
func (lx *lexer) parseDict() *object {
	lx.pos += 2 // '<<'
	d := make(dict)
	for {
		lx.skipSpace()
		if lx.done() {
			break
		}
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos] == '>' && lx.data[lx.pos+1] == '>' {
			lx.pos += 2
			break
		}
		if lx.data[lx.pos] != '/' {
			lx.pos++
			continue
		}
		key := lx.parseName()
		d[key.name] = lx.parseObject()
	}

	lx.skipSpace()
	if !lx.match("stream") {
		return &object{typ: objDict, dict: d}
	}
	if lx.pos < len(lx.data) && lx.data[lx.pos] == '\r' {
		lx.pos++
	}
	if lx.pos < len(lx.data) && lx.data[lx.pos] == '\n' {
		lx.pos++
	}

	start := lx.pos
	length := -1
	if n, ok := d.getInt("Length"); ok {
		length = n
	}
	var stream []byte
	if length >= 0 && start+length <= len(lx.data) {
		stream = lx.data[start : start+length]
		lx.pos = start + length
	} else {
		end := bytes.Index(lx.data[start:], []byte("endstream"))
		if end < 0 {
			end = len(lx.data) - start
		}
		stream = lx.data[start : start+end]
		lx.pos = start + end
	}
	lx.skipSpace()
	lx.match("endstream")

	return &object{typ: objStream, dict: d, stream: stream}
}

// parseNumberOrRef reads a number, upgrading "N G R" to a reference.
func (lx *lexer) parseNumberOrRef() *object {
	tok := lx.token()
	n, errInt := strconv.ParseInt(tok, 10, 64)
	if errInt == nil {
		after := lx.pos
		lx.skipSpace()
		genTok := lx.token()
		if _, err := strconv.Atoi(genTok); err == nil {
			lx.skipSpace()
			if lx.pos < len(lx.data) && lx.data[lx.pos] == 'R' {
				next := lx.pos + 1
				if next >= len(lx.data) || isWhitespace(lx.data[next]) || isDelim(lx.data[next]) {
					lx.pos++
					return &object{typ: objRef, ref: int(n)}
				}
			}
		}
		lx.pos = after
		return &object{typ: objInt, num: float64(n)}
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return &object{typ: objFloat, num: f}
	}
	return &object{typ: objNull}
}
