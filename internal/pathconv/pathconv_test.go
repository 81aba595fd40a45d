package pathconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStyle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, StyleNative, ParseStyle("native"))
	assert.Equal(t, StylePosix, ParseStyle("posix"))
	assert.Equal(t, StyleCMake, ParseStyle("cmake"))
	assert.Equal(t, StyleUnknown, ParseStyle("windows"))
	assert.Equal(t, StyleUnknown, ParseStyle(""))
}

func TestConvertPosix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"windows drive backslash", `C:\Users\x`, "/c/Users/x"},
		{"windows drive forward", `D:/work/pkg`, "/d/work/pkg"},
		{"mixed separators", `C:\a/b\c`, "/c/a/b/c"},
		{"posix passthrough", "/a/b/c", "/a/b/c"},
		{"relative", "a/b", "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.in, StylePosix))
		})
	}
}

func TestConvertCMake(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "C:/Users/x", Convert(`C:\Users\x`, StyleCMake))
	assert.Equal(t, "/a/b/c", Convert("/a/b/c", StyleCMake))
}

func TestConvertUnknownPassthrough(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `C:\x`, Convert(`C:\x`, StyleUnknown))
}
