// Package csscheck runs a real CSS grammar over a stylesheet to cross-check the
// brace scan used for duplicate detection.
package csscheck

import (
	"bytes"
	"errors"
	"io"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// stop reporting after this many grammar errors in one file
const maxErrors = 50

// SyntaxError is a grammar error located in the checked text.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Report summarizes one stylesheet.
type Report struct {
	Rulesets     int // including rulesets nested in at-rule blocks
	AtRules      int
	Declarations int
	MaxDepth     int // deepest block nesting seen
	Errors       []SyntaxError
}

// Consistent reports whether the brace scan found the same number of rules as the grammar.
func (r Report) Consistent(extracted int) bool {
	return r.Rulesets == extracted && len(r.Errors) == 0
}

type Checker struct {
	log *zap.Logger
}

func NewChecker(log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{log: log.Named("csscheck")}
}

// Check parses data and counts what the grammar sees.
func (c *Checker) Check(source string, data []byte) Report {
	var (
		rpt   Report
		depth int
	)

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	for {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			if err == nil || errors.Is(err, io.EOF) {
				c.log.Debug("Checked stylesheet", zap.String("source", source),
					zap.Int("rulesets", rpt.Rulesets), zap.Int("errors", len(rpt.Errors)))
				return rpt
			}
			rpt.Errors = append(rpt.Errors, toSyntaxError(err))
			if len(rpt.Errors) >= maxErrors {
				c.log.Debug("Too many grammar errors, giving up", zap.String("source", source))
				return rpt
			}
		case css.AtRuleGrammar:
			rpt.AtRules++
		case css.BeginAtRuleGrammar:
			rpt.AtRules++
			depth++
			rpt.MaxDepth = max(rpt.MaxDepth, depth)
		case css.BeginRulesetGrammar:
			rpt.Rulesets++
			depth++
			rpt.MaxDepth = max(rpt.MaxDepth, depth)
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth = max(depth-1, 0)
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			rpt.Declarations++
		}
	}
}

func toSyntaxError(err error) SyntaxError {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return SyntaxError{Line: perr.Line, Column: perr.Column, Message: perr.Message}
	}
	return SyntaxError{Message: err.Error()}
}
