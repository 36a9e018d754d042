// Package segment splits undelimited page text into transaction rows.
//
// Row boundaries are found, not consumed: every separator match starts a row
// and the next match on the same page closes it.
package segment

import (
	"fmt"
	"iter"
	"regexp"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/charmbracelet/log"
)

// Span is a half-open [Start, End) byte range of a separator match.
type Span struct {
	Start int
	End   int
}

type Options struct {
	// IncludeTrailingRow closes the last pending match of each page at the
	// end of the page text instead of dropping it.
	IncludeTrailingRow bool
	// TrimTrailing, when set, shortens a row closed by the end of the page.
	TrimTrailing func(row string) string
	Logger       *log.Logger
}

// Matches returns every non-overlapping separator match in text, in order.
func Matches(text string, separator *regexp.Regexp) ([]Span, error) {
	if separator == nil {
		return nil, fmt.Errorf("%w: no row separator bound", common.ErrMalformedLayout)
	}

	indexes := separator.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(indexes))
	for _, loc := range indexes {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans, nil
}

// PageRows splits a single page. With N matches it returns N-1 rows, or N
// when opts.IncludeTrailingRow is set and N > 0.
func PageRows(text string, separator *regexp.Regexp, opts Options) ([]string, error) {
	spans, err := Matches(text, separator)
	if err != nil {
		return nil, err
	}

	var rows []string
	var pending *Span
	for i := range spans {
		current := spans[i]
		if pending != nil {
			rows = append(rows, text[pending.Start:current.Start])
		}
		pending = &current
	}

	if pending != nil && opts.IncludeTrailingRow {
		row := text[pending.Start:]
		if opts.TrimTrailing != nil {
			row = opts.TrimTrailing(row)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Rows walks pages in order and yields one continuous row stream. Row
// indexes are global; page numbers start at 1. A page source error is
// yielded once and ends the stream.
func Rows(pages iter.Seq2[string, error], separator *regexp.Regexp, opts Options) iter.Seq2[common.Row, error] {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return func(yield func(common.Row, error) bool) {
		if separator == nil {
			yield(common.Row{}, fmt.Errorf("%w: no row separator bound", common.ErrMalformedLayout))
			return
		}

		index := 0
		page := 0
		for text, err := range pages {
			page++
			if err != nil {
				yield(common.Row{Index: index, Page: page}, err)
				return
			}

			rows, err := PageRows(text, separator, opts)
			if err != nil {
				yield(common.Row{Index: index, Page: page}, err)
				return
			}
			if !opts.IncludeTrailingRow && separator.MatchString(text) {
				logger.Debug("trailing row not emitted", "page", page)
			}

			for _, row := range rows {
				if !yield(common.Row{Index: index, Page: page, Text: row}, nil) {
					return
				}
				index++
			}
		}
	}
}
