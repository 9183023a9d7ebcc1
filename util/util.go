package util

// Byte classes shared by the tokenizer and the assembly parser. Only ASCII is
// recognised, which is what the expression language and the emitted assembly use.

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

func IsLetterOrUnderscoreOrNumber(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

// IsBlank reports a space or a tab. Newlines are not blank, they end a line.
func IsBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

// CountPrefix returns how many leading bytes of content satisfy accept.
func CountPrefix(content string, accept func(byte) bool) int {
	i := 0
	for i < len(content) && accept(content[i]) {
		i++
	}
	return i
}
