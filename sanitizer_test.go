package seq2seq_data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type SanitizerTest struct {
	Name     string
	Input    string
	Expected string
}

var sanitizerTests = []SanitizerTest{
	{"\\n handling",
		"\nfoobar\\n\n",
		"\nfoobar\n"},
	{"\\r handling",
		"\r\n\r\n",
		"\n"},
	{"Trailing spaces handling",
		"foobar  ",
		"foobar"},
	{"Extra spaces handling",
		"foo  bar",
		"foo bar"},
	{"Prefix spaces handling",
		" foo bar",
		"foo bar"},
	{"Colon with spaces handling",
		"foo : bar",
		"foo: bar"},
	{"Extra spaces with newlines",
		" foo \n   bar\nfoo ",
		"foo\nbar\nfoo"},
	{"Tabs handling",
		"a\t\tb :   c\r",
		"a b: c"},
	{"Escaped newline runs",
		`first \n\nsecond`,
		"first\nsecond"},
	{"Whitespace only",
		"   ",
		""},
}

func TestSanitizeLine(t *testing.T) {
	for _, test := range sanitizerTests {
		assert.Equal(t, test.Expected, SanitizeLine(test.Input), test.Name)
	}
}
