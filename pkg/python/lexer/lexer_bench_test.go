package lexer

import (
	"strings"
	"testing"
)

var (
	simpleCode = `x = 1 + 2 * 3`

	mediumCode = `
def greet(name: str) -> str:
    message = f"Hello, {name}!"
    return message
`

	complexCode = `import os
from typing import Iterable


class Inventory:
    """Keeps track of items."""

    def __init__(self, items: Iterable[str] = ()) -> None:
        self.items = {item: 0 for item in items}

    def add(self, item, count=1):
        if item not in self.items:
            self.items[item] = 0
        self.items[item] += count
        return self.items[item]

    def report(self):
        for name, count in sorted(self.items.items()):
            print(f"{name:<20}{count:>5}")


match os.name:
    case "posix":
        sep = "/"
    case _:
        sep = "\\"
`
)

func benchmarkLexer(b *testing.B, input string) {
	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for i := 0; i < b.N; i++ {
		l := New(input)
		for {
			tok := l.NextToken()
			if tok.Kind == EOF || tok.Kind == ERROR {
				break
			}
		}
	}
}

func BenchmarkLexerSimple(b *testing.B) {
	benchmarkLexer(b, simpleCode)
}

func BenchmarkLexerMedium(b *testing.B) {
	benchmarkLexer(b, mediumCode)
}

func BenchmarkLexerComplex(b *testing.B) {
	benchmarkLexer(b, complexCode)
}

func BenchmarkLexerLarge(b *testing.B) {
	benchmarkLexer(b, strings.Repeat(complexCode, 50))
}

func BenchmarkPeekToken(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l := New(complexCode)
		for {
			l.PeekToken()
			tok := l.NextToken()
			if tok.Kind == EOF || tok.Kind == ERROR {
				break
			}
		}
	}
}
