package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Directive is a parsed cell instruction: *ScalarDirective or *ArrayDirective.
type Directive interface {
	directive()
}

// ScalarDirective is a %%NAME%% placeholder.
type ScalarDirective struct {
	Name string
}

// SourceKind tells plain tables from pivots built over them.
type SourceKind int

const (
	SourcePlain SourceKind = iota
	SourcePivot
)

type Source struct {
	Kind  SourceKind
	Table int
}

func (s Source) String() string {
	if s.Kind == SourcePivot {
		return "pt" + strconv.Itoa(s.Table)
	}
	return "t" + strconv.Itoa(s.Table)
}

type SelectionKind int

const (
	SelectSingle SelectionKind = iota
	SelectList
	SelectRange
)

// Selection picks the columns an array directive writes.
type Selection struct {
	Kind SelectionKind
	// Name is set for SelectSingle.
	Name string
	// Names or Indices (1-based) are set for SelectList.
	Names   []string
	Indices []int
	// Start and End (1-based, inclusive) are set for SelectRange.
	Start, End int
}

func (s Selection) String() string {
	switch s.Kind {
	case SelectRange:
		return "(" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End) + ")"
	case SelectList:
		parts := append([]string(nil), s.Names...)
		for _, i := range s.Indices {
			parts = append(parts, strconv.Itoa(i))
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		return "." + s.Name
	}
}

// ArrayDirective is a [[ ... ]] instruction.
type ArrayDirective struct {
	Source      Source
	Selection   Selection
	Orientation Orientation
	Mode        WriteMode
	MergeEqual  bool
	Step        int
	// Text is the directive body as written in the cell.
	Text string
}

func (*ScalarDirective) directive() {}
func (*ArrayDirective) directive()  {}

// ParseProblem is a non-fatal issue found while parsing; the directive is
// still usable with the documented default.
type ParseProblem struct {
	Category ErrorCategory
	Detail   string
}

const (
	scalarDelim  = "%%"
	arrayOpen    = "[["
	arrayClose   = "]]"
	noDataMarker = "<NO DATA>"
)

func isNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '-'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ScanScalars returns the distinct scalar placeholders in text, in order of
// first appearance.
func ScanScalars(text string) []*ScalarDirective {
	var out []*ScalarDirective
	seen := make(map[string]bool)
	for i := 0; i < len(text); {
		start := strings.Index(text[i:], scalarDelim)
		if start < 0 {
			break
		}
		start += i
		j := start + len(scalarDelim)
		for j < len(text) && isNameByte(text[j]) {
			j++
		}
		if j > start+len(scalarDelim) && strings.HasPrefix(text[j:], scalarDelim) {
			if name := text[start+len(scalarDelim) : j]; !seen[name] {
				seen[name] = true
				out = append(out, &ScalarDirective{Name: name})
			}
			i = j + len(scalarDelim)
			continue
		}
		i = start + 1
	}
	return out
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// FindArray returns the body between the first "[[" and the last "]]".
func FindArray(text string) (string, bool) {
	open := strings.Index(text, arrayOpen)
	if open < 0 {
		return "", false
	}
	end := strings.LastIndex(text, arrayClose)
	if end < open+len(arrayOpen) {
		return "", false
	}
	return text[open+len(arrayOpen) : end], true
}

// parser walks a directive body byte by byte.
type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consume(s string) bool {
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) number() (int, bool) {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	return n, err == nil
}

func (p *parser) name() string {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// ParseArray parses the body of a [[ ... ]] directive. A missing or
// malformed selection yields a *DirectiveError; conflicting flags yield
// problems and fall back to row orientation and update mode.
func ParseArray(body string) (*ArrayDirective, []ParseProblem, error) {
	d := &ArrayDirective{Source: Source{Kind: SourcePlain, Table: 1}, Step: 1, Text: body}
	p := &parser{src: body}

	p.skipSpace()
	if err := p.source(d); err != nil {
		return nil, nil, err
	}
	p.skipSpace()
	if err := p.selection(d); err != nil {
		return nil, nil, err
	}

	var flags string
	if slash := strings.IndexByte(body[p.pos:], '/'); slash >= 0 {
		flags = body[p.pos+slash+1:]
	}
	problems := applyFlags(d, flags)
	return d, problems, nil
}

func (p *parser) source(d *ArrayDirective) error {
	start := p.pos
	kind := SourcePlain
	switch {
	case p.consume("pt"):
		kind = SourcePivot
	case p.consume("t"):
	default:
		return nil
	}
	n, ok := p.number()
	if !ok || n < 1 {
		return &DirectiveError{Category: ErrMissingSelection, Directive: p.src,
			Detail: "invalid table reference '" + p.src[start:p.pos] + "'"}
	}
	d.Source = Source{Kind: kind, Table: n}
	return nil
}

func (p *parser) selection(d *ArrayDirective) error {
	switch p.peek() {
	case '.':
		p.pos++
		p.skipSpace()
		name := p.name()
		if name == "" {
			return &DirectiveError{Category: ErrMissingSelection, Directive: p.src, Detail: "empty column name"}
		}
		d.Selection = Selection{Kind: SelectSingle, Name: name}
		return nil
	case '(':
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], ')')
		if end < 0 {
			return &DirectiveError{Category: ErrMissingSelection, Directive: p.src, Detail: "unterminated column list"}
		}
		inner := p.src[p.pos : p.pos+end]
		p.pos += end + 1
		sel, ok := parseColumnList(inner)
		if !ok {
			return &DirectiveError{Category: ErrMissingSelection, Directive: p.src, Detail: "malformed column list '" + inner + "'"}
		}
		d.Selection = sel
		return nil
	}
	return &DirectiveError{Category: ErrMissingSelection, Directive: p.src, Detail: "no column selection"}
}

func parseColumnList(inner string) (Selection, bool) {
	if lo, hi, found := strings.Cut(inner, ":"); found {
		start, err1 := strconv.Atoi(strings.TrimSpace(lo))
		end, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil || start < 1 || end < start {
			return Selection{}, false
		}
		return Selection{Kind: SelectRange, Start: start, End: end}, true
	}

	var names []string
	for _, tok := range strings.Split(inner, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return Selection{}, false
		}
		for i := 0; i < len(tok); i++ {
			if !isNameByte(tok[i]) && tok[i] != ' ' {
				return Selection{}, false
			}
		}
		names = append(names, tok)
	}

	indices := make([]int, 0, len(names))
	for _, n := range names {
		i, err := strconv.Atoi(n)
		if err != nil {
			return Selection{Kind: SelectList, Names: names}, true
		}
		indices = append(indices, i)
	}
	return Selection{Kind: SelectList, Indices: indices}, true
}

func applyFlags(d *ArrayDirective, flags string) []ParseProblem {
	var problems []ParseProblem
	var column, row, values, insert, update bool
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case 'c':
			column = true
		case 'r':
			row = true
		case 'v':
			values = true
		case 'i':
			insert = true
		case 'u':
			update = true
		case '*':
			d.MergeEqual = true
		case 's':
			j := i + 1
			for j < len(flags) && isDigit(flags[j]) {
				j++
			}
			if n, err := strconv.Atoi(flags[i+1 : j]); err == nil && n > 0 {
				d.Step = n
			}
			i = j - 1
		}
	}

	// c wins over v; only c with r is ambiguous
	switch {
	case column && row:
		problems = append(problems, ParseProblem{Category: ErrAmbiguousOrientation, Detail: "both column and row requested"})
	case column:
		d.Orientation = OrientColumn
	case values && d.Source.Kind != SourcePivot:
		problems = append(problems, ParseProblem{Category: ErrAmbiguousOrientation, Detail: "values orientation needs a pivot source"})
	case values:
		d.Orientation = OrientValues
	}

	if insert && update {
		problems = append(problems, ParseProblem{Category: ErrAmbiguousWriteMode, Detail: "both insert and update requested"})
	} else if insert {
		d.Mode = ModeInsert
	}
	return problems
}
