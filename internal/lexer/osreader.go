package lexer

import "os"

// OSFileReader resolves .include paths against the real filesystem,
// relative to the directory of whichever file names them.
func OSFileReader(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
