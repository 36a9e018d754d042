package extractor

import (
	"fmt"
	"iter"
	"time"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/aqlanhadi/stmtscrape/extractor/reconcile"
	"github.com/aqlanhadi/stmtscrape/extractor/segment"
	"github.com/aqlanhadi/stmtscrape/metrics"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is one parsing run over a statement's pages.
type Session struct {
	ID             string
	Source         string
	OpeningBalance decimal.Decimal

	layout common.Layout
	pages  iter.Seq2[string, error]
	opts   Options
	logger *log.Logger
}

// NewSession binds a layout and page source. The layout must carry a row
// separator; one without it cannot be segmented.
func NewSession(source string, opening decimal.Decimal, layout common.Layout, pages iter.Seq2[string, error], opts Options) (*Session, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: no layout bound", common.ErrMalformedLayout)
	}
	if layout.RowSeparator() == nil {
		return nil, fmt.Errorf("%w: layout %s has no row separator: %w", common.ErrMalformedLayout, layout.Name(), common.ErrNotSupported)
	}
	if pages == nil {
		pages = common.PagesFromStrings(nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	id := uuid.NewString()

	return &Session{
		ID:             id,
		Source:         source,
		OpeningBalance: opening,
		layout:         layout,
		pages:          pages,
		opts:           opts,
		logger:         logger.With("session", id, "layout", layout.Name()),
	}, nil
}

func (s *Session) Layout() common.Layout {
	return s.layout
}

// Records yields one record per row. The first failure is yielded as a
// *common.RowError and ends the sequence. Each range over the result
// re-reads the page source from the start.
func (s *Session) Records() iter.Seq2[common.TransactionRecord, error] {
	return func(yield func(common.TransactionRecord, error) bool) {
		start := time.Now()
		name := s.layout.Name()
		var failure error
		// Records and mismatches are only counted for runs that did not abort.
		typeCounts := map[common.TransactionType]int{}
		unreconciled := 0
		defer func() {
			if failure == nil {
				for txType, n := range typeCounts {
					metrics.AddRecords(name, string(txType), n)
				}
				metrics.AddUnreconciled(name, unreconciled)
			}
			metrics.ObserveSession(name, metrics.Result(failure), time.Since(start))
		}()

		s.logger.Debug("session started", "source", s.Source, "opening_balance", s.OpeningBalance)

		segmentOpts := segment.Options{
			IncludeTrailingRow: s.opts.IncludeTrailingRow,
			Logger:             s.logger,
		}
		if trimmer, ok := s.layout.(common.RowTrimmer); ok {
			segmentOpts.TrimTrailing = trimmer.TrimTrailingRow
		}
		rows := segment.Rows(s.pages, s.layout.RowSeparator(), segmentOpts)

		previous := s.OpeningBalance
		count := 0
		for row, err := range rows {
			if err == nil {
				var record common.TransactionRecord
				var result reconcile.Result
				record, result, err = Assemble(s.layout, row, previous, s.opts)
				if err == nil {
					if !result.Reconciled {
						unreconciled++
						s.logger.Warn("balance does not reconcile, recorded as credit",
							"row", row.Index, "page", row.Page,
							"previous", previous, "amount", record.TransactionAmount,
							"balance", record.Balance, "delta", result.Delta)
					}
					typeCounts[record.TransactionType]++
					count++
					if !yield(record, nil) {
						return
					}
					previous = record.Balance
					continue
				}
			}

			failure = &common.RowError{Index: row.Index, Page: row.Page, Err: err}
			s.logger.Error("session aborted", "row", row.Index, "page", row.Page, "kind", common.KindOf(err), "err", err)
			yield(common.TransactionRecord{}, failure)
			return
		}

		s.logger.Debug("session finished", "records", count, "closing_balance", previous)
	}
}

// Collect runs the session to completion. On failure nothing is returned
// but the error, so a partial ledger never leaves the session.
func (s *Session) Collect() (common.Statement, error) {
	var records []common.TransactionRecord
	for record, err := range s.Records() {
		if err != nil {
			return common.Statement{}, err
		}
		records = append(records, record)
	}
	return common.NewStatement(s.ID, s.Source, s.layout.Name(), s.OpeningBalance, records), nil
}
