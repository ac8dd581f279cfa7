package resolver

import (
	"bytes"
	"iter"
	"strings"
)

// statementKind is the kind of a pre-parsed dependency statement.
type statementKind int

const (
	stmtInclude statementKind = iota
	stmtCImport
	stmtFromCImport
)

// statement is one dependency statement found by Scan.
type statement struct {
	kind statementKind
	line int
	// module is the include path, or the dotted module of a cimport.
	module string
	// names holds the imported names of a from-cimport.
	names []string
}

// Scan extracts include and cimport statements from buf without running the
// grammar. Comments, string bodies and bracketed continuations are honoured;
// everything else is skipped.
func Scan(buf []byte) []statement {
	var stmts []statement
	for line, text := range logicalLines(buf) {
		text = strings.TrimSpace(text)
		switch {
		case hasKeyword(text, "include"):
			if p, ok := quoted(strings.TrimSpace(text[len("include"):])); ok {
				stmts = append(stmts, statement{kind: stmtInclude, line: line, module: p})
			}
		case hasKeyword(text, "cimport"):
			for _, part := range splitNames(text[len("cimport"):]) {
				mod, _, _ := strings.Cut(part, " as ")
				stmts = append(stmts, statement{kind: stmtCImport, line: line, module: strings.TrimSpace(mod)})
			}
		case hasKeyword(text, "from"):
			rest := strings.TrimSpace(text[len("from"):])
			mod, names, ok := strings.Cut(rest, " cimport ")
			if !ok {
				continue
			}
			var imported []string
			for _, n := range splitNames(names) {
				name, _, _ := strings.Cut(n, " as ")
				imported = append(imported, strings.TrimSpace(name))
			}
			stmts = append(stmts, statement{kind: stmtFromCImport, line: line, module: strings.TrimSpace(mod), names: imported})
		}
	}
	return stmts
}

func hasKeyword(text, kw string) bool {
	if !strings.HasPrefix(text, kw) || len(text) == len(kw) {
		return false
	}
	c := text[len(kw)]
	return c == ' ' || c == '\t' || c == '(' || c == '"' || c == '\''
}

func quoted(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return "", false
	}
	end := strings.IndexByte(s[1:], q)
	if end < 0 {
		return "", false
	}
	return s[1 : end+1], true
}

// splitNames splits a comma separated name list, dropping parentheses.
func splitNames(s string) []string {
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		part = strings.Join(strings.Fields(part), " ")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// logicalLines yields each logical line with the 1-based number of its first
// physical line. Comments are removed; lines inside triple-quoted strings are
// dropped; backslash and open-bracket continuations are joined.
func logicalLines(buf []byte) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		var (
			cur       strings.Builder
			start     int
			depth     int
			inTriple  byte
			lineNo    int
			continued bool
		)
		for len(buf) > 0 {
			var raw []byte
			if i := bytes.IndexByte(buf, '\n'); i >= 0 {
				raw, buf = buf[:i], buf[i+1:]
			} else {
				raw, buf = buf, nil
			}
			lineNo++

			text, d, triple := stripLine(raw, inTriple)
			inTriple = triple
			if cur.Len() == 0 && !continued {
				start = lineNo
			}
			depth += d
			text = strings.TrimRight(text, " \t\r")
			continued = strings.HasSuffix(text, "\\")
			text = strings.TrimSuffix(text, "\\")
			if cur.Len() > 0 {
				cur.WriteByte(' ')
			}
			cur.WriteString(text)

			if continued || depth > 0 || inTriple != 0 {
				continue
			}
			depth = 0
			if !yield(start, cur.String()) {
				return
			}
			cur.Reset()
		}
		if cur.Len() > 0 {
			yield(start, cur.String())
		}
	}
}

// stripLine removes comments and string bodies that cannot hold statements,
// keeping single-line string literals intact. It reports the bracket depth
// change and the triple-quote state at the end of the line.
func stripLine(raw []byte, inTriple byte) (string, int, byte) {
	var out strings.Builder
	depth := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inTriple != 0 {
			if c == inTriple && i+2 < len(raw) && raw[i+1] == c && raw[i+2] == c {
				inTriple = 0
				i += 2
			}
			continue
		}
		switch c {
		case '#':
			return out.String(), depth, 0
		case '"', '\'':
			if i+2 < len(raw) && raw[i+1] == c && raw[i+2] == c {
				inTriple = c
				i += 2
				continue
			}
			end := bytes.IndexByte(raw[i+1:], c)
			if end < 0 {
				out.Write(raw[i:])
				return out.String(), depth, 0
			}
			out.Write(raw[i : i+end+2])
			i += end + 1
		case '(', '[', '{':
			depth++
			out.WriteByte(c)
		case ')', ']', '}':
			depth--
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), depth, inTriple
}
