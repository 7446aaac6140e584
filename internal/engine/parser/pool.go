package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles parsers bound to one grammar so repeated extraction
// does not allocate a parser per file.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool.New = func() any {
		return sitter.NewParser()
	}
	return p
}

// get returns a parser configured for the pool's grammar.
func (p *parserPool) get() (*sitter.Parser, error) {
	sp := p.pool.Get().(*sitter.Parser)
	if err := sp.SetLanguage(p.lang); err != nil {
		sp.Close()
		return nil, err
	}
	return sp, nil
}

// put resets sp and returns it. sp must not be used afterwards.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
