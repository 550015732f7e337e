package code

// Balance holds running counts of the three grouping pairs.
type Balance struct {
	Paren   int
	Brace   int
	Bracket int
}

// Add returns the element-wise sum of b and o.
func (b Balance) Add(o Balance) Balance {
	return Balance{
		Paren:   b.Paren + o.Paren,
		Brace:   b.Brace + o.Brace,
		Bracket: b.Bracket + o.Bracket,
	}
}

// Zero reports whether all three counts are zero.
func (b Balance) Zero() bool {
	return b.Paren == 0 && b.Brace == 0 && b.Bracket == 0
}

// LineDelta returns the grouping delta contributed by a single line.
//
// Characters inside double-quoted string literals are ignored, a backslash
// escapes the next character, and counting stops at a `//` comment that
// starts outside a string.
func LineDelta(line string) Balance {
	var d Balance
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return d
			}
		case '(':
			d.Paren++
		case ')':
			d.Paren--
		case '{':
			d.Brace++
		case '}':
			d.Brace--
		case '[':
			d.Bracket++
		case ']':
			d.Bracket--
		}
	}
	return d
}

// StripStrings removes the contents of string literals and trailing
// comments from line, keeping only the text that takes part in counting.
func StripStrings(line string) string {
	out := make([]byte, 0, len(line))
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c == '/' && i+1 < len(line) && line[i+1] == '/' {
			break
		}
		out = append(out, c)
	}
	return string(out)
}
